package collections

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
)

func TestYouTubeID(t *testing.T) {
	tests := []struct {
		url string
		id  string
		ok  bool
	}{
		{"https://youtube.com/watch?v=XXXX", "XXXX", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"https://m.youtube.com/watch?v=abc_-1", "abc_-1", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/shorts/abc123", "abc123", true},
		{"https://vimeo.com/12345", "", false},
		{"https://youtube.com/watch", "", false},
		{"https://youtube.com/watch?v=bad%20id", "", false},
		{"youtube.com/watch?v=XXXX", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		id, err := YouTubeID(tt.url)
		assert.Equal(t, tt.ok, err == nil)
		assert.Equal(t, tt.id, id)
		if err != nil {
			assert.Equal(t, true, errors.Is(err, ErrValidation))
		}
	}
}

func TestCreateVideoStoresThumbnail(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)

	item, err := media.Create(context.Background(), MediaInput{
		Title:      "Final highlights",
		Type:       models.MediaVideo,
		YouTubeURL: "https://youtube.com/watch?v=XXXX",
		Tags:       []string{" final ", "", "football"},
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, "https://img.youtube.com/vi/XXXX/maxresdefault.jpg", item.URL)
	assert.Equal(t, "https://youtube.com/watch?v=XXXX", item.YouTubeURL)
	assert.Equal(t, []string{"final", "football"}, item.TagList())
	assert.Equal(t, 0, f.store.Uploads())

	got, ok := media.Find(item.ID)
	assert.Equal(t, true, ok)
	assert.Equal(t, item.URL, got.URL)
}

func TestCreateVideoRejectsOtherHosts(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)

	_, err := media.Create(context.Background(), MediaInput{Title: "Clip", Type: models.MediaVideo, YouTubeURL: "https://vimeo.com/12345"})
	assert.Equal(t, true, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, f.client.insertCount())
}

func TestCreatePhotoRejectsLargeFileBeforeUpload(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)

	_, err := media.Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto, File: image(MaxPhotoSize + 1)})
	var verr *ValidationError
	assert.Equal(t, true, errors.As(err, &verr))
	assert.Equal(t, "file", verr.Field)
	assert.Equal(t, 0, f.store.Uploads())
	assert.Equal(t, 0, f.client.insertCount())

	_, err = media.Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto})
	assert.Equal(t, true, errors.Is(err, ErrValidation))
	_, err = media.Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto, File: &Upload{Filename: "a.txt", ContentType: "text/plain", Data: []byte("x")}})
	assert.Equal(t, true, errors.Is(err, ErrValidation))
	_, err = media.Create(context.Background(), MediaInput{Title: "Crowd", Type: "audio"})
	assert.Equal(t, true, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, f.store.Uploads())
}

func TestPhotoDeleteRemovesStoredObject(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)

	item, err := media.Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto, File: image(MaxPhotoSize)})
	assert.Equal(t, nil, err)
	bucket, path, ok := f.store.Locate(item.URL)
	assert.Equal(t, true, ok)
	assert.Equal(t, storage.BucketMedia, bucket)
	assert.Equal(t, true, f.store.Has(bucket, path))

	assert.Equal(t, nil, media.Delete(context.Background(), item.ID))
	assert.Equal(t, false, f.store.Has(bucket, path))
	assert.Equal(t, 0, len(media.Snapshot().Items))
}

func TestMediaDeleteSurvivesStorageFailure(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)
	item, err := media.Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto, File: image(64)})
	assert.Equal(t, nil, err)

	f.store.FailDeletes(errors.New("bucket unavailable"))
	assert.Equal(t, nil, media.Delete(context.Background(), item.ID))
	assert.Equal(t, 0, f.mem.Count(models.TableMedia))
	assert.Equal(t, 1, f.store.Deletes())
}

func TestVideoDeleteLeavesStorageAlone(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)
	item, err := media.Create(context.Background(), MediaInput{Title: "Clip", Type: models.MediaVideo, YouTubeURL: "https://youtu.be/abc"})
	assert.Equal(t, nil, err)

	assert.Equal(t, nil, media.Delete(context.Background(), item.ID))
	assert.Equal(t, 0, f.store.Deletes())
}

func TestUpdateMedia(t *testing.T) {
	f := newFixture()
	media := NewMedia(f.deps)
	photo, err := media.Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto, File: image(64)})
	assert.Equal(t, nil, err)
	video, err := media.Create(context.Background(), MediaInput{Title: "Clip", Type: models.MediaVideo, YouTubeURL: "https://youtu.be/abc"})
	assert.Equal(t, nil, err)

	_, err = media.Update(context.Background(), photo.ID, MediaPatch{YouTubeURL: ptr("https://youtu.be/xyz")})
	assert.Equal(t, true, errors.Is(err, ErrValidation))

	moved, err := media.Update(context.Background(), video.ID, MediaPatch{YouTubeURL: ptr("https://youtu.be/xyz"), Tags: &[]string{"final"}})
	assert.Equal(t, nil, err)
	assert.Equal(t, "https://img.youtube.com/vi/xyz/maxresdefault.jpg", moved.URL)
	assert.Equal(t, []string{"final"}, moved.TagList())

	assert.Equal(t, 1, len(media.ByType(models.MediaPhoto)))
	assert.Equal(t, 1, len(media.ByType(models.MediaVideo)))
}

func TestUpdateMediaChecksStoredType(t *testing.T) {
	f := newFixture()
	photo, err := NewMedia(f.deps).Create(context.Background(), MediaInput{Title: "Crowd", Type: models.MediaPhoto, File: image(64)})
	assert.Equal(t, nil, err)

	media := NewMedia(f.deps)
	_, err = media.Update(context.Background(), photo.ID, MediaPatch{YouTubeURL: ptr("https://youtu.be/xyz")})
	var verr *ValidationError
	assert.Equal(t, true, errors.As(err, &verr))
	assert.Equal(t, "youtube_url", verr.Field)

	stored, err := remote.Get[models.Media](context.Background(), f.mem, models.TableMedia, photo.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, photo.URL, stored.URL)
	assert.Equal(t, true, f.store.Has(storage.BucketMedia, strings.TrimPrefix(photo.URL, "http://localhost:8080/assets/media/")))
}
