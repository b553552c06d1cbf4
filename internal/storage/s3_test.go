package storage

import (
	"testing"

	"github.com/newthinker/scout/internal/config"
)

func TestS3Store_ImplementsStore(t *testing.T) {
	var _ Store = (*S3Store)(nil)
}

func TestS3Store_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "ohlcv/RELIANCE.NS.json", "ohlcv/RELIANCE.NS.json"},
		{"scout", "scan_20260828.json", "scout/scan_20260828.json"},
		{"scout/prod", "cache_metadata.json", "scout/prod/cache_metadata.json"},
	}

	for _, tt := range tests {
		s := &S3Store{prefix: tt.prefix}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestNewS3_TrimsPrefixSlash(t *testing.T) {
	store, err := NewS3(config.S3Config{
		Bucket: "scout-data",
		Region: "ap-south-1",
		Prefix: "ohlcv/",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	if store.bucket != "scout-data" {
		t.Errorf("bucket = %q, want scout-data", store.bucket)
	}
	if store.prefix != "ohlcv" {
		t.Errorf("prefix = %q, want trailing slash trimmed", store.prefix)
	}
	if got := store.key("RELIANCE.NS.json"); got != "ohlcv/RELIANCE.NS.json" {
		t.Errorf("key = %q, want ohlcv/RELIANCE.NS.json", got)
	}
}
