// Package storage keeps product and category images and hands back a public
// URL for them.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Disk stores a blob and returns the URL clients use to fetch it.
type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// Options select and configure a driver.
type Options struct {
	Driver    string // "local" | "s3"
	UploadDir string
	BaseURL   string

	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string
	S3URL      string
}

// Open builds the configured driver.
func Open(ctx context.Context, o Options) (Disk, error) {
	switch o.Driver {
	case "", "local":
		return NewLocal(o.UploadDir, strings.TrimRight(o.BaseURL, "/")+"/uploads")
	case "s3":
		return NewS3(ctx, o)
	}
	return nil, fmt.Errorf("storage: unknown driver %q", o.Driver)
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageExt returns the file extension for an accepted image content type.
func ImageExt(contentType string) (string, bool) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// ImageKey builds a unique object key such as
// "product-images/2026/10/3f1c...e9.jpg".
func ImageKey(bucket, ext string, now time.Time) string {
	return path.Join(bucket, now.Format("2006/01"), uuid.NewString()+ext)
}
