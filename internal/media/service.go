package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/objectstore"
)

var (
	// ErrEmpty is returned for a zero-length upload.
	ErrEmpty = errors.New("media: empty file")

	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("media: file too large")

	// ErrUnsupportedType is returned when the upload is not an accepted image.
	ErrUnsupportedType = errors.New("media: unsupported file type")
)

// allowedTypes maps accepted MIME types to the stored file extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Object describes a stored upload.
type Object struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Service validates uploads and writes them to object storage.
type Service struct {
	store    objectstore.ObjectStorage
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

// NewService creates a media service. Public URLs are built from
// cfg.PublicBaseURL, or from the endpoint and bucket when it is unset.
func NewService(store objectstore.ObjectStorage, cfg config.MediaConfig) *Service {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, store.Bucket())
	}
	return &Service{
		store:    store,
		baseURL:  base,
		maxBytes: cfg.MaxUploadBytes(),
		now:      time.Now,
	}
}

// MaxBytes returns the largest accepted upload.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload reads r fully, checks its size and type, and stores it.
func (s *Service) Upload(ctx context.Context, r io.Reader) (*Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := fmt.Sprintf("uploads/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.NewString(), ext)
	size := int64(len(data))
	if err := s.store.Put(ctx, key, bytes.NewReader(data), size, contentType); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	return &Object{
		URL:         s.baseURL + "/" + key,
		Key:         key,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// HealthCheck reports whether the backing bucket is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}
