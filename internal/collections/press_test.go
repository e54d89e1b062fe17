package collections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
)

func TestCreatePressRequiresTypeFields(t *testing.T) {
	f := newFixture()
	press := NewPress(f.deps)

	tests := []struct {
		in    PressInput
		field string
	}{
		{PressInput{Type: "blog", Title: "x"}, "type"},
		{PressInput{Type: models.PressRelease}, "title"},
		{PressInput{Type: models.PressRelease, Title: "Opening day"}, "content"},
		{PressInput{Type: models.PressNews, Title: "Coverage"}, "news_link"},
		{PressInput{Type: models.PressNews, Title: "Coverage", NewsLink: "not a link"}, "news_link"},
		{PressInput{Type: models.PressRelease, Title: "Opening day", Content: "x", PublishDate: "tomorrow"}, "publish_date"},
		{PressInput{Type: models.PressRelease, Title: "Opening day", Content: "x", Image: image(MaxImageSize + 1)}, "image"},
	}
	for _, tt := range tests {
		_, err := press.Create(context.Background(), tt.in)
		var verr *ValidationError
		assert.Equal(t, true, errors.As(err, &verr))
		assert.Equal(t, tt.field, verr.Field)
	}
	assert.Equal(t, 0, f.client.insertCount())
	assert.Equal(t, 0, f.store.Uploads())
}

func TestCreatePressDefaultsPublishDate(t *testing.T) {
	f := newFixture()
	press := NewPress(f.deps)
	press.now = func() time.Time { return time.Date(2025, 2, 14, 18, 0, 0, 0, time.UTC) }

	item, err := press.Create(context.Background(), PressInput{
		Type: models.PressRelease, Title: "Opening day", Content: "Gates open at 9.", Image: image(128),
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, "2025-02-14", time.Time(item.PublishDate).Format(time.DateOnly))

	bucket, _, ok := f.store.Locate(item.Image)
	assert.Equal(t, true, ok)
	assert.Equal(t, storage.BucketPress, bucket)

	dated, err := press.Create(context.Background(), PressInput{
		Type: models.PressNews, Title: "Coverage", NewsLink: "https://news.example.com/a", PublishDate: "2025-01-31",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, "2025-01-31", time.Time(dated.PublishDate).Format(time.DateOnly))
	assert.Equal(t, "Coverage", press.Snapshot().Items[0].Title)
}

func TestUpdatePressRevalidatesMergedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	press := NewPress(f.deps)
	item, err := press.Create(ctx, PressInput{Type: models.PressRelease, Title: "Opening day", Content: "Gates open at 9."})
	assert.Equal(t, nil, err)

	_, err = press.Update(ctx, item.ID, PressPatch{Type: ptr(models.PressNews)})
	assert.Equal(t, true, errors.Is(err, ErrValidation))

	news, err := press.Update(ctx, item.ID, PressPatch{Type: ptr(models.PressNews), NewsLink: ptr("https://news.example.com/a")})
	assert.Equal(t, nil, err)
	assert.Equal(t, models.PressNews, news.Type)

	got, _ := press.Find(item.ID)
	assert.Equal(t, "https://news.example.com/a", got.NewsLink)

	_, err = press.Update(ctx, item.ID, PressPatch{})
	assert.Equal(t, true, errors.Is(err, ErrValidation))
}

func TestHasNewsLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	press := NewPress(f.deps)
	_, err := press.Create(ctx, PressInput{Type: models.PressNews, Title: "Coverage", NewsLink: "https://news.example.com/a"})
	assert.Equal(t, nil, err)

	ok, err := press.HasNewsLink(ctx, "https://news.example.com/a")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ok)

	ok, err = press.HasNewsLink(ctx, "https://news.example.com/b")
	assert.Equal(t, nil, err)
	assert.Equal(t, false, ok)

	item := press.Snapshot().Items[0]
	assert.Equal(t, nil, press.Delete(ctx, item.ID))
	ok, _ = press.HasNewsLink(ctx, "https://news.example.com/a")
	assert.Equal(t, false, ok)
}
