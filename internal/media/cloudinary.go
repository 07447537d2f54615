package media

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Config holds the Cloudinary account credentials. It is loaded once at
// startup and passed in explicitly; the package keeps no global state.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// CloudinaryUploader is a Cloudinary-backed implementation of Uploader.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
}

// NewCloudinaryUploader creates a new CloudinaryUploader from the given
// credentials.
func NewCloudinaryUploader(cfg Config) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}
	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary client: %w", err)
	}
	return &CloudinaryUploader{client: client}, nil
}

// Upload transfers the payload into folder and returns the secure URL of the
// stored asset. A file-backed payload's temp file is removed only after the
// transfer succeeded.
func (u *CloudinaryUploader) Upload(ctx context.Context, payload *Payload, folder string) (string, error) {
	resp, err := u.client.Upload.Upload(ctx, payload.Reader, uploader.UploadParams{
		Folder:   folder,
		PublicID: uuid.New().String(),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload of %s failed: %w", payload.Filename, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected %s: %s", payload.Filename, resp.Error.Message)
	}

	if payload.TempPath != "" {
		_ = payload.Close()
		if err := os.Remove(payload.TempPath); err != nil {
			log.Printf("Failed to remove temp upload file %s: %v", payload.TempPath, err)
		}
	}

	return resp.SecureURL, nil
}

// Delete derives the public ID from the asset URL and requests its removal.
func (u *CloudinaryUploader) Delete(ctx context.Context, rawURL string) error {
	publicID, err := publicIDFromURL(rawURL)
	if err != nil {
		return err
	}
	_, err = u.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy of %s failed: %w", publicID, err)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// publicIDFromURL extracts the Cloudinary public ID (folder/name without the
// file extension) from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v123/products/abc.jpg.
func publicIDFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse asset URL %s: %w", rawURL, err)
	}

	const marker = "/upload/"
	idx := strings.Index(parsed.Path, marker)
	if idx < 0 {
		return "", fmt.Errorf("asset URL %s has no upload path", rawURL)
	}

	segments := strings.Split(parsed.Path[idx+len(marker):], "/")
	if len(segments) > 1 && versionSegment.MatchString(segments[0]) {
		segments = segments[1:]
	}

	publicID := strings.Join(segments, "/")
	publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	if publicID == "" {
		return "", fmt.Errorf("asset URL %s has no public ID", rawURL)
	}
	return publicID, nil
}
