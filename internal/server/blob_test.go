package server

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	n, err := store.Put(ctx, "20240101_000000_ab12_x.png", strings.NewReader("bytes"), -1, "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 5 {
		t.Errorf("Put wrote %d bytes, want 5", n)
	}

	rc, err := store.Get(ctx, "20240101_000000_ab12_x.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := io.ReadAll(rc)
	rc.Close()
	if err != nil || string(b) != "bytes" {
		t.Fatalf("Get read %q (%v)", b, err)
	}

	if err := store.Remove(ctx, "20240101_000000_ab12_x.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Get(ctx, "20240101_000000_ab12_x.png"); err == nil {
		t.Fatal("Get succeeded after Remove")
	}
	// Removing again is not an error.
	if err := store.Remove(ctx, "20240101_000000_ab12_x.png"); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestFSStoreRejectsPathEscapes(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"", "../escape.png", "a/b.png"} {
		if _, err := store.Put(ctx, name, strings.NewReader("x"), -1, ""); err == nil {
			t.Errorf("Put(%q) accepted an unsafe name", name)
		}
		if _, err := store.Get(ctx, name); err == nil {
			t.Errorf("Get(%q) accepted an unsafe name", name)
		}
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		secure bool
		ok     bool
	}{
		{"minio:9000", "minio:9000", false, true},
		{"http://minio:9000", "minio:9000", false, true},
		{"https://s3.example.com", "s3.example.com", true, true},
		{"", "", false, false},
		{"http://minio:9000/some/path", "", false, false},
	}
	for _, tt := range tests {
		host, secure, err := normaliseEndpoint(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("normaliseEndpoint(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && (host != tt.host || secure != tt.secure) {
			t.Errorf("normaliseEndpoint(%q) = (%q, %v), want (%q, %v)", tt.in, host, secure, tt.host, tt.secure)
		}
	}
}
