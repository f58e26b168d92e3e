package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewWithoutBucketIsNoOp(t *testing.T) {
	a, err := New(context.Background(), "", "screenshots", zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a != nil {
		t.Fatal("empty bucket must yield a nil archiver")
	}

	// Every method on the nil archiver is safe.
	if uri, err := a.Store(context.Background(), []byte("x"), "image/jpeg"); err != nil || uri != "" {
		t.Errorf("nil Store = %q, %v", uri, err)
	}
	a.StoreAsync([]byte("x"), "image/jpeg")
	if err := a.Close(); err != nil {
		t.Errorf("nil Close = %v", err)
	}
}

func TestObjectName(t *testing.T) {
	a := &Archiver{bucket: "b", prefix: "screenshots"}
	now := time.Date(2025, 8, 12, 11, 30, 0, 0, time.UTC)

	name := a.objectName(now, ".jpg")
	if !strings.HasPrefix(name, "screenshots/2025/08/12/") {
		t.Errorf("name = %q, want date-bucketed prefix", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("name = %q, want .jpg suffix", name)
	}
	if name == a.objectName(now, ".jpg") {
		t.Error("object names must be unique per call")
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/png":    ".png",
		"image/webp":   ".webp",
		"image/jpeg":   ".jpg",
		"what/unknown": ".jpg",
	}
	for mime, want := range cases {
		if got := extensionFor(mime); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}
