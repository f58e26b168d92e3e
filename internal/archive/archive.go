// Package archive stores ingested screenshots in Google Cloud Storage
// for later audit. Archival is best-effort: a failed upload is logged
// and never blocks the ledger write that triggered it.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Archiver uploads screenshot bytes to a bucket. A nil Archiver is a
// valid no-op, which is how archival stays optional.
type Archiver struct {
	client *storage.Client
	bucket string
	prefix string
	log    zerolog.Logger
}

// New creates an Archiver for the given bucket. Application Default
// Credentials must be configured. An empty bucket returns nil without
// error so callers can pass the result straight through.
func New(ctx context.Context, bucket, prefix string, log zerolog.Logger) (*Archiver, error) {
	if bucket == "" {
		return nil, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive.New: create storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket, prefix: prefix, log: log}, nil
}

// Close releases the underlying client.
func (a *Archiver) Close() error {
	if a == nil {
		return nil
	}
	return a.client.Close()
}

// objectName builds a date-bucketed unique object path, such as
// screenshots/2025/08/12/9f2c....jpg.
func (a *Archiver) objectName(now time.Time, ext string) string {
	return path.Join(
		a.prefix,
		now.Format("2006/01/02"),
		uuid.NewString()+ext,
	)
}

// Store uploads one screenshot and returns its gs:// URI. Callers that
// do not care about the URI may discard it; callers that do not want
// the latency run Store in a goroutine.
func (a *Archiver) Store(ctx context.Context, image []byte, mimeType string) (string, error) {
	if a == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	name := a.objectName(time.Now().UTC(), extensionFor(mimeType))
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := io.Copy(w, bytes.NewReader(image)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Store: write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Store: close object %s: %w", name, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, name)
	a.log.Debug().Str("uri", uri).Int("bytes", len(image)).Msg("screenshot archived")
	return uri, nil
}

// StoreAsync fires an upload in the background, detached from the
// request context, and logs the outcome.
func (a *Archiver) StoreAsync(image []byte, mimeType string) {
	if a == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := a.Store(ctx, image, mimeType); err != nil {
			a.log.Warn().Err(err).Msg("screenshot archival failed")
		}
	}()
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
