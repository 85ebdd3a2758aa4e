package receipts

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	receiptFolder = "greekledger/receipts"
	uploadTimeout = 60 * time.Second
	deleteTimeout = 30 * time.Second
)

type Cloudinary struct {
	cld *cloudinary.Cloudinary
	now func() time.Time
}

func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &Cloudinary{cld: cld, now: time.Now}, nil
}

func (c *Cloudinary) Save(ctx context.Context, _ string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       receiptFolder,
		PublicID:     fmt.Sprintf("receipt_%d", c.now().UnixMilli()),
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload receipt: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, imageURL string) error {
	publicID, err := extractPublicID(imageURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("delete receipt: %s", resp.Error.Message)
	}
	return nil
}

// extractPublicID turns a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1234/greekledger/receipts/receipt_1.pdf
// into greekledger/receipts/receipt_1.
func extractPublicID(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(parts) {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}
	rest := parts[idx+1:]
	if len(rest) > 1 && isVersion(rest[0]) {
		rest = rest[1:]
	}
	joined := path.Join(rest...)
	return strings.TrimSuffix(joined, path.Ext(joined)), nil
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
