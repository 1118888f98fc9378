package media

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

// pngHeader is enough of a PNG file for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestService(t *testing.T, cfg config.MediaConfig) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore("media")
	svc := NewService(store, cfg)
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestUpload_StoresImage(t *testing.T) {
	svc, store := newTestService(t, config.MediaConfig{
		PublicBaseURL: "https://cdn.example.com/",
		MaxUploadMB:   1,
	})

	obj, err := svc.Upload(context.Background(), bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if obj.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", obj.ContentType)
	}
	if !strings.HasPrefix(obj.Key, "uploads/2026/03/") || !strings.HasSuffix(obj.Key, ".png") {
		t.Errorf("Key = %q, want uploads/2026/03/*.png", obj.Key)
	}
	if obj.URL != "https://cdn.example.com/"+obj.Key {
		t.Errorf("URL = %q", obj.URL)
	}
	if obj.Size != int64(len(pngHeader)) {
		t.Errorf("Size = %d, want %d", obj.Size, len(pngHeader))
	}

	stored, ok := store.Object(obj.Key)
	if !ok {
		t.Fatal("object not stored")
	}
	if !bytes.Equal(stored.Data, pngHeader) || stored.ContentType != "image/png" {
		t.Errorf("stored object = %+v", stored)
	}
}

func TestUpload_DefaultURL(t *testing.T) {
	svc, _ := newTestService(t, config.MediaConfig{Endpoint: "minio:9000", UseSSL: true})

	obj, err := svc.Upload(context.Background(), bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(obj.URL, "https://minio:9000/media/uploads/") {
		t.Errorf("URL = %q", obj.URL)
	}
}

func TestUpload_Rejects(t *testing.T) {
	svc, store := newTestService(t, config.MediaConfig{MaxUploadMB: 1})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"text file", []byte("just some plain text, not an image"), ErrUnsupportedType},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("store holds %d objects after rejected uploads", store.Len())
	}
}
