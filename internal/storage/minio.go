package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/labconnect/medtest-booking/internal/config"
)

// objectPutter is the subset of *minio.Client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioStore writes artifacts into one bucket of an S3 compatible store.
type MinioStore struct {
	client   objectPutter
	bucket   string
	baseURL  string
	maxBytes int64
	log      zerolog.Logger
}

// NewMinioClient builds a MinIO client from the storage configuration.
func NewMinioClient(cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return client, nil
}

// NewMinioStore returns a store writing into cfg.Bucket.  Object URLs are
// built from cfg.PublicBaseURL.
func NewMinioStore(client objectPutter, cfg config.StorageConfig, log zerolog.Logger) *MinioStore {
	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	limit := cfg.MaxBytes
	if limit <= 0 {
		limit = MaxReportBytes
	}
	return &MinioStore{
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(base, "/"),
		maxBytes: limit,
		log:      log.With().Str("component", "storage").Logger(),
	}
}

// Upload stores a under folder/<uuid>-<name> and returns its public URL.
func (s *MinioStore) Upload(ctx context.Context, a Artifact, folder string) (string, error) {
	if err := Check(a, s.maxBytes); err != nil {
		return "", err
	}
	key := objectKey(folder, a.Name)
	info, err := s.client.PutObject(ctx, s.bucket, key, a.Body, a.Size, minio.PutObjectOptions{
		ContentType: a.ContentType,
	})
	if err != nil {
		s.log.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("put object failed")
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Int64("size", info.Size).Msg("artifact uploaded")
	return s.objectURL(key), nil
}

// objectURL escapes each segment of bucket/key under the base URL.
func (s *MinioStore) objectURL(key string) string {
	segs := strings.Split(s.bucket+"/"+key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segs, "/")
}

// objectKey keeps only the base name of the client supplied file name.
func objectKey(folder, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "report"
	}
	name = strings.ReplaceAll(name, " ", "_")
	key := uuid.NewString() + "-" + name
	if folder = strings.Trim(folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	return key
}
