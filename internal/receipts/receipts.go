// Package receipts stores uploaded reimbursement receipts and returns the
// URL the receipt can be fetched from.
package receipts

import (
	"context"
	"io"
	"log/slog"
)

type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Fallback saves through primary and falls back to secondary when primary
// fails. Deletes go to whichever store owns the URL.
type Fallback struct {
	primary   Store
	secondary *Local
	logger    *slog.Logger
}

func NewFallback(primary Store, secondary *Local, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	// The reader cannot be replayed, so buffer it once.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url, err := f.primary.Save(ctx, filename, bytesReader(data))
	if err == nil {
		return url, nil
	}
	f.logger.WarnContext(ctx, "Remote receipt upload failed, storing locally", "error", err, "filename", filename)
	return f.secondary.Save(ctx, filename, bytesReader(data))
}

func (f *Fallback) Delete(ctx context.Context, url string) error {
	if f.secondary.Owns(url) {
		return f.secondary.Delete(ctx, url)
	}
	return f.primary.Delete(ctx, url)
}
