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
)

type ClubInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Status       string `json:"status"`
	// LogoURL is used when the logo is already hosted elsewhere.
	LogoURL string  `json:"logo"`
	Logo    *Upload `json:"-"`
}

// ClubPatch changes the set fields. Renaming keeps the slug.
type ClubPatch struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Status       *string `json:"status"`
	Logo         *Upload `json:"-"`
}

// Clubs mirrors the clubs table ordered by name.
type Clubs struct {
	*Collection[models.Club]
	deps Deps
}

func NewClubs(d Deps) *Clubs {
	c := &Clubs{deps: d}
	c.Collection = newCollection(d, entity[models.Club]{
		table: models.TableClubs,
		load: func(ctx context.Context) ([]models.Club, error) {
			var rows []models.Club
			err := d.Client.Query(ctx, models.TableClubs, remote.Query{Order: []remote.Order{{Column: "name"}}}, &rows)
			return rows, err
		},
		less:    clubLess,
		id:      func(c models.Club) uuid.UUID { return c.ID },
		updated: func(c models.Club) time.Time { return c.UpdatedAt },
	})
	return c
}

func clubLess(a, b models.Club) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.Name < b.Name
}

func (c *Clubs) Create(ctx context.Context, in ClubInput) (models.Club, error) {
	club := models.Club{
		Name:         strings.TrimSpace(in.Name),
		Slug:         Slugify(in.Name),
		Description:  in.Description,
		ContactName:  in.ContactName,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		ContactPhone: in.ContactPhone,
		Status:       in.Status,
		Logo:         in.LogoURL,
	}
	if club.Status == "" {
		club.Status = models.ClubActive
	}
	if err := validateClub(club, in.Logo); err != nil {
		return models.Club{}, err
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if in.Logo != nil {
		url, err := c.deps.Storage.Upload(ctx, storage.BucketClubLogos, objectPath(club.Slug, in.Logo.Filename), in.Logo.Data, in.Logo.ContentType)
		if err != nil {
			return models.Club{}, c.mutationFailed("upload logo", uuid.Nil, err)
		}
		club.Logo = url
	}

	if err := c.deps.Client.Insert(ctx, models.TableClubs, &club); err != nil {
		if in.Logo != nil {
			metrics.OrphanedAssets.Inc()
			log.Printf("❌ club %q not created, logo %s left in storage", club.Name, club.Logo)
		}
		return models.Club{}, c.mutationFailed("create", uuid.Nil, err)
	}
	c.patchUpsert(club)
	return club, nil
}

func validateClub(club models.Club, logo *Upload) error {
	if err := required("name", club.Name); err != nil {
		return err
	}
	if club.Slug == "" {
		return invalid("name", "%q has no letters or digits to build a slug from", club.Name)
	}
	if err := oneOf("status", club.Status, models.ClubActive, models.ClubPending, models.ClubInactive); err != nil {
		return err
	}
	if club.ContactEmail != "" {
		if err := checkEmail("contact_email", club.ContactEmail); err != nil {
			return err
		}
	}
	if logo != nil {
		return checkImage("logo", logo, MaxLogoSize)
	}
	return nil
}

func (c *Clubs) Update(ctx context.Context, id uuid.UUID, p ClubPatch) (models.Club, error) {
	patch := map[string]any{}
	if p.Name != nil {
		if err := required("name", *p.Name); err != nil {
			return models.Club{}, err
		}
		patch["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Status != nil {
		if err := oneOf("status", *p.Status, models.ClubActive, models.ClubPending, models.ClubInactive); err != nil {
			return models.Club{}, err
		}
		patch["status"] = *p.Status
	}
	if p.ContactEmail != nil {
		if *p.ContactEmail != "" {
			if err := checkEmail("contact_email", *p.ContactEmail); err != nil {
				return models.Club{}, err
			}
		}
		patch["contact_email"] = *p.ContactEmail
	}
	setIf(patch, "description", p.Description)
	setIf(patch, "contact_name", p.ContactName)
	setIf(patch, "contact_phone", p.ContactPhone)
	if p.Logo != nil {
		if err := checkImage("logo", p.Logo, MaxLogoSize); err != nil {
			return models.Club{}, err
		}
	}
	if len(patch) == 0 && p.Logo == nil {
		return models.Club{}, invalid("", "nothing to update")
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if p.Logo != nil {
		url, err := c.deps.Storage.Upload(ctx, storage.BucketClubLogos, objectPath(id.String(), p.Logo.Filename), p.Logo.Data, p.Logo.ContentType)
		if err != nil {
			return models.Club{}, c.mutationFailed("upload logo", id, err)
		}
		patch["logo"] = url
	}

	var club models.Club
	if err := c.deps.Client.Update(ctx, models.TableClubs, id, patch, &club); err != nil {
		return models.Club{}, c.mutationFailed("update", id, err)
	}
	c.patchUpsert(club)
	return club, nil
}

func (c *Clubs) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.deps.Client.Delete(ctx, models.TableClubs, id); err != nil {
		return c.mutationFailed("delete", id, err)
	}
	c.patchRemove(id)
	return nil
}

// BySlug returns the loaded club with slug.
func (c *Clubs) BySlug(slug string) (models.Club, bool) {
	for _, club := range c.Snapshot().Items {
		if club.Slug == slug {
			return club, true
		}
	}
	return models.Club{}, false
}

func setIf[V any](patch map[string]any, column string, v *V) {
	if v != nil {
		patch[column] = *v
	}
}
