// Package storage holds the object storage collaborator used for logos,
// fixture images, press images and media photos.
package storage

import (
	"context"
	"errors"
	"strings"
)

const (
	BucketClubLogos = "club-logos"
	BucketFixtures  = "fixtures"
	BucketMedia     = "media"
	BucketPress     = "press"
)

var ErrNotFound = errors.New("object not found")

// Client uploads and removes binary assets and maps public URLs back onto
// the object they were issued for.
type Client interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket, path string) error
	// Locate reports the bucket and path behind a URL this client issued.
	// Externally hosted URLs return ok == false.
	Locate(publicURL string) (bucket, path string, ok bool)
}

// locate splits "<base>/<bucket>/<path>" for URLs issued under base.
func locate(base, publicURL string) (string, string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(publicURL, base) {
		return "", "", false
	}
	rest := strings.TrimPrefix(publicURL, base)
	bucket, path, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || path == "" {
		return "", "", false
	}
	return bucket, path, true
}

func publicURL(base, bucket, path string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}
