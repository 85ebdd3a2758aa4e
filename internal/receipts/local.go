package receipts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// PublicPrefix is the URL path the HTTP server serves UploadDir under.
const PublicPrefix = "/uploads/"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Local writes receipts under <dir>/receipts.
type Local struct {
	dir string
	now func() time.Time
}

func NewLocal(dir string) *Local {
	return &Local{dir: dir, now: time.Now}
}

func (l *Local) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(l.dir, "receipts")
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create receipts dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", l.now().UnixMilli(), sanitize(filename))
	f, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", fmt.Errorf("create receipt file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close receipt: %w", err)
	}
	return PublicPrefix + "receipts/" + name, nil
}

// Owns reports whether url points at a locally stored receipt.
func (l *Local) Owns(url string) bool {
	return strings.HasPrefix(url, PublicPrefix)
}

func (l *Local) Delete(_ context.Context, url string) error {
	if !l.Owns(url) {
		return fmt.Errorf("not a local receipt: %s", url)
	}
	rel := filepath.FromSlash(strings.TrimPrefix(url, PublicPrefix))
	path := filepath.Join(l.dir, filepath.Clean(string(filepath.Separator) + rel))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove receipt: %w", err)
	}
	return nil
}

func sanitize(filename string) string {
	name := unsafeChars.ReplaceAllString(filepath.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		return "receipt"
	}
	return name
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
