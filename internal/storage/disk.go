package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores objects as files under Root/<bucket>/<path>; the API server
// serves Root at BaseURL.
type Disk struct {
	Root    string
	BaseURL string
}

func NewDisk(root, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Disk{Root: root, BaseURL: baseURL}, nil
}

func (d *Disk) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := d.resolve(bucket, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	log.Printf("✅ stored %s/%s (%d bytes, %s)", bucket, path, len(data), contentType)
	return publicURL(d.BaseURL, bucket, path), nil
}

func (d *Disk) Delete(ctx context.Context, bucket, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", bucket, path, ErrNotFound)
		}
		return fmt.Errorf("delete %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (d *Disk) Locate(u string) (string, string, bool) { return locate(d.BaseURL, u) }

// resolve keeps object paths inside Root.
func (d *Disk) resolve(bucket, path string) (string, error) {
	rel := filepath.Clean(filepath.Join(bucket, path))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid object path %q", bucket+"/"+path)
	}
	return filepath.Join(d.Root, rel), nil
}
