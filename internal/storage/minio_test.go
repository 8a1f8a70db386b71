package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labconnect/medtest-booking/internal/config"
)

type fakePutter struct {
	bucket, key string
	body        string
	opts        minio.PutObjectOptions
	err         error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	b, _ := io.ReadAll(r)
	f.bucket, f.key, f.body, f.opts = bucket, key, string(b), opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func pdf(body string) Artifact {
	return Artifact{Name: "lab report.pdf", ContentType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestMinioStore_Upload(t *testing.T) {
	p := &fakePutter{}
	s := NewMinioStore(p, config.StorageConfig{Endpoint: "minio:9000", Bucket: "reports"}, zerolog.Nop())

	link, err := s.Upload(context.Background(), pdf("%PDF-1.7"), "reports/b-1")
	require.NoError(t, err)
	assert.Equal(t, "reports", p.bucket)
	assert.True(t, strings.HasPrefix(p.key, "reports/b-1/"))
	assert.True(t, strings.HasSuffix(p.key, "-lab_report.pdf"))
	assert.Equal(t, "%PDF-1.7", p.body)
	assert.Equal(t, "application/pdf", p.opts.ContentType)
	assert.Equal(t, "http://minio:9000/reports/"+p.key, link)
}

func TestMinioStore_UploadError(t *testing.T) {
	p := &fakePutter{err: errors.New("connection refused")}
	s := NewMinioStore(p, config.StorageConfig{Bucket: "reports", PublicBaseURL: "https://cdn.example/"}, zerolog.Nop())

	_, err := s.Upload(context.Background(), pdf("x"), "reports")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(pdf("abc"), 10))
	assert.ErrorIs(t, Check(pdf("abcdef"), 3), ErrTooLarge)
	assert.ErrorIs(t, Check(Artifact{Name: "a.txt", ContentType: "text/plain", Size: 1, Body: strings.NewReader("a")}, 0), ErrUnsupportedType)
	assert.ErrorIs(t, Check(Artifact{ContentType: "application/pdf"}, 0), ErrEmpty)
	assert.NoError(t, Check(Artifact{ContentType: "image/jpeg; charset=binary", Size: 1, Body: strings.NewReader("a")}, 0))
}

func TestObjectKey_StripsDirectories(t *testing.T) {
	k := objectKey("/reports/", "../../etc/passwd")
	assert.True(t, strings.HasPrefix(k, "reports/"))
	assert.True(t, strings.HasSuffix(k, "-passwd"))
	assert.NotContains(t, k, "..")
}

func TestMinioStore_UploadEscapesURL(t *testing.T) {
	p := &fakePutter{}
	s := NewMinioStore(p, config.StorageConfig{Bucket: "reports", PublicBaseURL: "https://cdn.example"}, zerolog.Nop())

	a := pdf("%PDF")
	a.Name = "CBC #2?v=100%.pdf"
	link, err := s.Upload(context.Background(), a, "reports/b-1")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p.key, "-CBC_#2?v=100%.pdf"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Empty(t, u.RawQuery)
	assert.Empty(t, u.Fragment)
	assert.Equal(t, "/reports/"+p.key, u.Path)
	assert.Contains(t, link, "%23")
	assert.Contains(t, link, "%3F")
	assert.Contains(t, link, "%25")
}
