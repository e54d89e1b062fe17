package collections

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
	"gorm.io/datatypes"
)

type MediaInput struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Sport       string   `json:"sport"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	// YouTubeURL is required for videos; the stored url becomes its thumbnail.
	YouTubeURL string `json:"youtube_url"`
	// File is required for photos.
	File *Upload `json:"-"`
}

type MediaPatch struct {
	Title       *string   `json:"title"`
	Sport       *string   `json:"sport"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	YouTubeURL  *string   `json:"youtube_url"`
}

// Media mirrors the media table, newest first.
type Media struct {
	*Collection[models.Media]
	deps Deps
}

func NewMedia(d Deps) *Media {
	m := &Media{deps: d}
	m.Collection = newCollection(d, entity[models.Media]{
		table: models.TableMedia,
		load: func(ctx context.Context) ([]models.Media, error) {
			var rows []models.Media
			q := remote.Query{Order: []remote.Order{{Column: "created_at", Desc: true}}}
			err := d.Client.Query(ctx, models.TableMedia, q, &rows)
			return rows, err
		},
		less:    func(a, b models.Media) bool { return a.CreatedAt.After(b.CreatedAt) },
		id:      func(m models.Media) uuid.UUID { return m.ID },
		updated: func(m models.Media) time.Time { return m.UpdatedAt },
	})
	return m
}

func encodeTags(tags []string) datatypes.JSON {
	b, _ := json.Marshal(trimAll(tags))
	return datatypes.JSON(b)
}

// Create validates everything before uploading. A photo whose row insert
// fails leaves its uploaded file behind; that is logged and counted.
func (m *Media) Create(ctx context.Context, in MediaInput) (models.Media, error) {
	item := models.Media{
		Title:       strings.TrimSpace(in.Title),
		Type:        in.Type,
		Sport:       strings.TrimSpace(in.Sport),
		Description: in.Description,
		Tags:        encodeTags(in.Tags),
	}
	if err := required("title", item.Title); err != nil {
		return models.Media{}, err
	}
	if err := oneOf("type", item.Type, models.MediaPhoto, models.MediaVideo); err != nil {
		return models.Media{}, err
	}
	switch item.Type {
	case models.MediaPhoto:
		if err := checkImage("file", in.File, MaxPhotoSize); err != nil {
			return models.Media{}, err
		}
	case models.MediaVideo:
		id, err := YouTubeID(in.YouTubeURL)
		if err != nil {
			return models.Media{}, err
		}
		item.YouTubeURL = strings.TrimSpace(in.YouTubeURL)
		item.URL = YouTubeThumbnail(id)
	}

	ctx, cancel := m.callContext(ctx)
	defer cancel()

	if item.Type == models.MediaPhoto {
		url, err := m.deps.Storage.Upload(ctx, storage.BucketMedia, objectPath("photos", in.File.Filename), in.File.Data, in.File.ContentType)
		if err != nil {
			return models.Media{}, m.mutationFailed("upload photo", uuid.Nil, err)
		}
		item.URL = url
	}

	if err := m.deps.Client.Insert(ctx, models.TableMedia, &item); err != nil {
		if item.Type == models.MediaPhoto {
			metrics.OrphanedAssets.Inc()
			log.Printf("❌ media %q not created, photo %s left in storage", item.Title, item.URL)
		}
		return models.Media{}, m.mutationFailed("create", uuid.Nil, err)
	}
	m.patchUpsert(item)
	return item, nil
}

func (m *Media) Update(ctx context.Context, id uuid.UUID, p MediaPatch) (models.Media, error) {
	patch := map[string]any{}
	if p.Title != nil {
		if err := required("title", *p.Title); err != nil {
			return models.Media{}, err
		}
		patch["title"] = strings.TrimSpace(*p.Title)
	}
	setIf(patch, "sport", p.Sport)
	setIf(patch, "description", p.Description)
	if p.Tags != nil {
		patch["tags"] = encodeTags(*p.Tags)
	}
	if p.YouTubeURL != nil {
		vid, err := YouTubeID(*p.YouTubeURL)
		if err != nil {
			return models.Media{}, err
		}
		patch["youtube_url"] = strings.TrimSpace(*p.YouTubeURL)
		patch["url"] = YouTubeThumbnail(vid)
	}
	if len(patch) == 0 {
		return models.Media{}, invalid("", "nothing to update")
	}

	ctx, cancel := m.callContext(ctx)
	defer cancel()

	if p.YouTubeURL != nil {
		cur, err := remote.Get[models.Media](ctx, m.deps.Client, models.TableMedia, id)
		if err != nil {
			return models.Media{}, m.mutationFailed("update", id, err)
		}
		if cur.Type != models.MediaVideo {
			return models.Media{}, invalid("youtube_url", "only videos carry a YouTube link")
		}
	}

	var item models.Media
	if err := m.deps.Client.Update(ctx, models.TableMedia, id, patch, &item); err != nil {
		return models.Media{}, m.mutationFailed("update", id, err)
	}
	m.patchUpsert(item)
	return item, nil
}

// Delete removes the row, then the stored photo when this system hosts it.
// A storage failure never undoes or fails the row deletion.
func (m *Media) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := m.callContext(ctx)
	defer cancel()

	item, err := remote.Get[models.Media](ctx, m.deps.Client, models.TableMedia, id)
	if err != nil {
		return m.mutationFailed("delete", id, err)
	}
	if err := m.deps.Client.Delete(ctx, models.TableMedia, id); err != nil {
		return m.mutationFailed("delete", id, err)
	}
	m.patchRemove(id)

	if m.deps.Storage == nil {
		return nil
	}
	bucket, path, ok := m.deps.Storage.Locate(item.URL)
	if !ok {
		return nil
	}
	if err := m.deps.Storage.Delete(ctx, bucket, path); err != nil {
		metrics.OrphanedAssets.Inc()
		log.Printf("❌ media %s deleted, asset %s/%s left in storage: %v", id, bucket, path, err)
	}
	return nil
}

// ByType returns loaded items of one type, newest first.
func (m *Media) ByType(kind string) []models.Media {
	var out []models.Media
	for _, it := range m.Snapshot().Items {
		if it.Type == kind {
			out = append(out, it)
		}
	}
	return out
}
