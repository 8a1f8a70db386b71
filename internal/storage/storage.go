// Package storage uploads report artifacts to object storage and hands
// back a public URL for them.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// MaxReportBytes is the largest report accepted for upload.
const MaxReportBytes int64 = 10 << 20

var (
	// ErrTooLarge is returned when an artifact exceeds the size limit.
	ErrTooLarge = errors.New("artifact exceeds maximum size")
	// ErrUnsupportedType is returned for content types outside the allow list.
	ErrUnsupportedType = errors.New("unsupported artifact content type")
	// ErrEmpty is returned when an artifact has no body.
	ErrEmpty = errors.New("artifact is empty")
)

// Artifact is a file handed over for upload.  Size must be the exact
// byte length of Body.
type Artifact struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ArtifactStore uploads an artifact under folder and returns its URL.
type ArtifactStore interface {
	Upload(ctx context.Context, a Artifact, folder string) (string, error)
}

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// Check validates an artifact against the size limit and the content
// type allow list.
func Check(a Artifact, maxBytes int64) error {
	if a.Body == nil || a.Size <= 0 {
		return ErrEmpty
	}
	if maxBytes > 0 && a.Size > maxBytes {
		return ErrTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(a.ContentType, ";", 2)[0]))
	if !allowedTypes[ct] {
		return ErrUnsupportedType
	}
	return nil
}
