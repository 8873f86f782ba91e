package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// localDisk is the local filesystem driver.
type localDisk struct {
	root string
}

func NewLocalDisk(root string) Disk {
	return &localDisk{root: root}
}

func (d *localDisk) abs(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("storage/local: invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

func (d *localDisk) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: %w: %v", errCreateDir, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return fmt.Errorf("storage/local: close %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) Delete(_ context.Context, key string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) DeleteAll(_ context.Context, prefix string) error {
	full, err := d.abs(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("storage/local: delete %s: %w", prefix, err)
	}
	return nil
}
