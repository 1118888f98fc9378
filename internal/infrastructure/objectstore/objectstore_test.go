package objectstore

import (
	"errors"
	"testing"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

func TestNewMinioClient(t *testing.T) {
	valid := config.MediaConfig{
		Enabled:   true,
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "schoolsite-media",
	}

	client, err := NewMinioClient(valid)
	if err != nil {
		t.Fatalf("NewMinioClient() error = %v", err)
	}
	if client.Bucket() != "schoolsite-media" {
		t.Errorf("Bucket() = %q", client.Bucket())
	}
	if client.Endpoint() != "http://localhost:9000" {
		t.Errorf("Endpoint() = %q", client.Endpoint())
	}

	tests := []struct {
		name   string
		mutate func(*config.MediaConfig)
	}{
		{"missing endpoint", func(c *config.MediaConfig) { c.Endpoint = " " }},
		{"missing keys", func(c *config.MediaConfig) { c.SecretKey = "" }},
		{"missing bucket", func(c *config.MediaConfig) { c.Bucket = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if _, err := NewMinioClient(cfg); err == nil {
				t.Error("NewMinioClient() expected error")
			}
		})
	}
}

func TestNewMinioClient_Disabled(t *testing.T) {
	if _, err := NewMinioClient(config.MediaConfig{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("NewMinioClient() error = %v, want ErrDisabled", err)
	}
}
