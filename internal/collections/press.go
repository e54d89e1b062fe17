package collections

import (
	"context"
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

type PressInput struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	Source      string `json:"source"`
	NewsLink    string `json:"news_link"`
	PublishDate string `json:"publish_date"` // YYYY-MM-DD, today when empty
	ImageURL    string `json:"image"`
	Image       *Upload `json:"-"`
}

type PressPatch struct {
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	AuthorName  *string `json:"author_name"`
	Source      *string `json:"source"`
	NewsLink    *string `json:"news_link"`
	PublishDate *string `json:"publish_date"`
	Image       *Upload `json:"-"`
}

// Press mirrors press releases and news links, newest first.
type Press struct {
	*Collection[models.Press]
	deps Deps
	now  func() time.Time
}

func NewPress(d Deps) *Press {
	p := &Press{deps: d, now: time.Now}
	p.Collection = newCollection(d, entity[models.Press]{
		table: models.TablePress,
		load: func(ctx context.Context) ([]models.Press, error) {
			var rows []models.Press
			q := remote.Query{Order: []remote.Order{{Column: "created_at", Desc: true}}}
			err := d.Client.Query(ctx, models.TablePress, q, &rows)
			return rows, err
		},
		less:    func(a, b models.Press) bool { return a.CreatedAt.After(b.CreatedAt) },
		id:      func(p models.Press) uuid.UUID { return p.ID },
		updated: func(p models.Press) time.Time { return p.UpdatedAt },
	})
	return p
}

// validatePress checks the type-dependent fields: a press release needs
// content, a news item needs a link.
func validatePress(item models.Press) error {
	if err := oneOf("type", item.Type, models.PressRelease, models.PressNews); err != nil {
		return err
	}
	if err := required("title", item.Title); err != nil {
		return err
	}
	switch item.Type {
	case models.PressRelease:
		return required("content", item.Content)
	case models.PressNews:
		if err := required("news_link", item.NewsLink); err != nil {
			return err
		}
		return checkLink("news_link", item.NewsLink)
	}
	return nil
}

func (p *Press) today() datatypes.Date {
	y, m, d := p.now().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (p *Press) Create(ctx context.Context, in PressInput) (models.Press, error) {
	item := models.Press{
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		AuthorName:  strings.TrimSpace(in.AuthorName),
		Source:      strings.TrimSpace(in.Source),
		NewsLink:    strings.TrimSpace(in.NewsLink),
		Image:       strings.TrimSpace(in.ImageURL),
		PublishDate: p.today(),
	}
	if strings.TrimSpace(in.PublishDate) != "" {
		d, err := parseDate("publish_date", in.PublishDate)
		if err != nil {
			return models.Press{}, err
		}
		item.PublishDate = d
	}
	if err := validatePress(item); err != nil {
		return models.Press{}, err
	}
	if in.Image != nil {
		if err := checkImage("image", in.Image, MaxImageSize); err != nil {
			return models.Press{}, err
		}
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	if in.Image != nil {
		url, err := p.deps.Storage.Upload(ctx, storage.BucketPress, objectPath(item.Type, in.Image.Filename), in.Image.Data, in.Image.ContentType)
		if err != nil {
			return models.Press{}, p.mutationFailed("upload image", uuid.Nil, err)
		}
		item.Image = url
	}
	if err := p.deps.Client.Insert(ctx, models.TablePress, &item); err != nil {
		if in.Image != nil {
			metrics.OrphanedAssets.Inc()
			log.Printf("❌ press %q not created, image %s left in storage", item.Title, item.Image)
		}
		return models.Press{}, p.mutationFailed("create", uuid.Nil, err)
	}
	p.patchUpsert(item)
	return item, nil
}

// Update applies the patch over the stored row and validates the result, so
// a type change is checked against the fields it then requires.
func (p *Press) Update(ctx context.Context, id uuid.UUID, in PressPatch) (models.Press, error) {
	if in.Image != nil {
		if err := checkImage("image", in.Image, MaxImageSize); err != nil {
			return models.Press{}, err
		}
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	cur, err := remote.Get[models.Press](ctx, p.deps.Client, models.TablePress, id)
	if err != nil {
		return models.Press{}, p.mutationFailed("update", id, err)
	}

	patch := map[string]any{}
	merged := cur
	set := func(column string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			patch[column] = *dst
		}
	}
	set("type", &merged.Type, in.Type)
	set("title", &merged.Title, in.Title)
	set("author_name", &merged.AuthorName, in.AuthorName)
	set("source", &merged.Source, in.Source)
	set("news_link", &merged.NewsLink, in.NewsLink)
	if in.Content != nil {
		merged.Content = *in.Content
		patch["content"] = *in.Content
	}
	if in.PublishDate != nil {
		d, err := parseDate("publish_date", *in.PublishDate)
		if err != nil {
			return models.Press{}, err
		}
		merged.PublishDate = d
		patch["publish_date"] = d
	}
	if err := validatePress(merged); err != nil {
		return models.Press{}, err
	}
	if len(patch) == 0 && in.Image == nil {
		return models.Press{}, invalid("", "nothing to update")
	}

	if in.Image != nil {
		url, err := p.deps.Storage.Upload(ctx, storage.BucketPress, objectPath(merged.Type, in.Image.Filename), in.Image.Data, in.Image.ContentType)
		if err != nil {
			return models.Press{}, p.mutationFailed("upload image", id, err)
		}
		patch["image"] = url
	}

	var item models.Press
	if err := p.deps.Client.Update(ctx, models.TablePress, id, patch, &item); err != nil {
		return models.Press{}, p.mutationFailed("update", id, err)
	}
	p.patchUpsert(item)
	return item, nil
}

func (p *Press) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	if err := p.deps.Client.Delete(ctx, models.TablePress, id); err != nil {
		return p.mutationFailed("delete", id, err)
	}
	p.patchRemove(id)
	return nil
}

// HasNewsLink asks the remote store whether a news item already points at link.
func (p *Press) HasNewsLink(ctx context.Context, link string) (bool, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	var rows []models.Press
	q := remote.Query{
		Filter: map[string]any{"type": models.PressNews, "news_link": strings.TrimSpace(link)},
		Limit:  1,
	}
	if err := p.deps.Client.Query(ctx, models.TablePress, q, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
