// Package storage persists uploaded images and documents and maps them to
// public URLs.
//
// Two disks are available:
//   - "local" writes under a directory served by the web server
//   - "s3" writes to any S3-compatible bucket (AWS S3, MinIO, R2)
//
// Keys are always "<ownerID>/<filename>" relative to the disk root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prevozkop/backend/config"
)

// Disk is the driver interface behind a Store.
type Disk interface {
	// Put writes size bytes from r to key. It never overwrites an existing key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteAll removes every key under prefix.
	DeleteAll(ctx context.Context, prefix string) error
}

// errCreateDir marks a failure to prepare the owner directory.
var errCreateDir = errors.New("create directory")

// NewStores boots the project and product upload stores from configuration.
func NewStores(ctx context.Context, cfg config.Uploads) (projects, products *Store, err error) {
	switch cfg.Disk {
	case "", "local":
		projects = NewStore(NewLocalDisk(cfg.Dir), cfg.BaseURL, cfg.MaxBytes)
		products = NewStore(NewLocalDisk(cfg.ProductDir), cfg.ProductBaseURL, cfg.MaxBytes)
	case "s3":
		projectDisk, err := NewS3Disk(ctx, cfg.S3, "projects")
		if err != nil {
			return nil, nil, err
		}
		productDisk, err := NewS3Disk(ctx, cfg.S3, "products")
		if err != nil {
			return nil, nil, err
		}
		projects = NewStore(projectDisk, cfg.BaseURL, cfg.MaxBytes)
		products = NewStore(productDisk, cfg.ProductBaseURL, cfg.MaxBytes)
	default:
		return nil, nil, fmt.Errorf("storage: unknown UPLOAD_DISK %q", cfg.Disk)
	}
	return projects, products, nil
}
