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

type FixtureInput struct {
	Sport   string    `json:"sport"`
	Team1ID uuid.UUID `json:"team1_id"`
	Team2ID uuid.UUID `json:"team2_id"`
	Date    string    `json:"date"` // YYYY-MM-DD
	Time    string    `json:"time"` // HH:MM
	Venue   string    `json:"venue"`
	Status  string    `json:"status"`
	Notes   string    `json:"notes"`
	Image   *Upload   `json:"-"`
}

type FixturePatch struct {
	Sport   *string    `json:"sport"`
	Team1ID *uuid.UUID `json:"team1_id"`
	Team2ID *uuid.UUID `json:"team2_id"`
	Date    *string    `json:"date"`
	Time    *string    `json:"time"`
	Venue   *string    `json:"venue"`
	Status  *string    `json:"status"`
	Notes   *string    `json:"notes"`
	Image   *Upload    `json:"-"`
}

var fixtureStatuses = []string{models.FixtureScheduled, models.FixtureOngoing, models.FixtureCompleted, models.FixtureCancelled}

// Fixtures mirrors the fixtures table by date with both teams joined. Feed
// events carry no team names, so every event reloads the collection.
type Fixtures struct {
	*Collection[FixtureView]
	deps  Deps
	joins *JoinResolver
}

func NewFixtures(d Deps) *Fixtures {
	f := &Fixtures{deps: d, joins: NewJoinResolver(d.Client)}
	f.Collection = newCollection(d, entity[FixtureView]{
		table: models.TableFixtures,
		load: func(ctx context.Context) ([]FixtureView, error) {
			var rows []models.Fixture
			q := remote.Query{Order: []remote.Order{{Column: "date"}, {Column: "time"}}}
			if err := d.Client.Query(ctx, models.TableFixtures, q, &rows); err != nil {
				return nil, err
			}
			return f.joins.Fixtures(ctx, rows)
		},
		less:    func(a, b FixtureView) bool { return fixtureLess(a.Fixture, b.Fixture) },
		id:      func(v FixtureView) uuid.UUID { return v.ID },
		refetch: true,
	})
	return f
}

func fixtureLess(a, b models.Fixture) bool {
	ad, bd := time.Time(a.Date), time.Time(b.Date)
	if !ad.Equal(bd) {
		return ad.Before(bd)
	}
	return a.Time < b.Time
}

func (f *Fixtures) Create(ctx context.Context, in FixtureInput) (models.Fixture, error) {
	fx, err := buildFixture(in)
	if err != nil {
		return models.Fixture{}, err
	}

	ctx, cancel := f.callContext(ctx)
	defer cancel()

	if in.Image != nil {
		url, err := f.deps.Storage.Upload(ctx, storage.BucketFixtures, objectPath("images", in.Image.Filename), in.Image.Data, in.Image.ContentType)
		if err != nil {
			return models.Fixture{}, f.mutationFailed("upload image", uuid.Nil, err)
		}
		fx.Image = url
	}
	if err := f.deps.Client.Insert(ctx, models.TableFixtures, &fx); err != nil {
		if in.Image != nil {
			metrics.OrphanedAssets.Inc()
			log.Printf("❌ fixture not created, image %s left in storage", fx.Image)
		}
		return models.Fixture{}, f.mutationFailed("create", uuid.Nil, err)
	}
	return fx, nil
}

func buildFixture(in FixtureInput) (models.Fixture, error) {
	if in.Team1ID == uuid.Nil {
		return models.Fixture{}, invalid("team1_id", "is required")
	}
	if in.Team2ID == uuid.Nil {
		return models.Fixture{}, invalid("team2_id", "is required")
	}
	if in.Team1ID == in.Team2ID {
		return models.Fixture{}, invalid("team2_id", "a club cannot play itself")
	}
	if err := required("date", in.Date); err != nil {
		return models.Fixture{}, err
	}
	if err := required("time", in.Time); err != nil {
		return models.Fixture{}, err
	}
	if err := required("venue", in.Venue); err != nil {
		return models.Fixture{}, err
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return models.Fixture{}, err
	}
	clock, err := parseClock("time", in.Time)
	if err != nil {
		return models.Fixture{}, err
	}
	status := in.Status
	if status == "" {
		status = models.FixtureScheduled
	}
	if err := oneOf("status", status, fixtureStatuses...); err != nil {
		return models.Fixture{}, err
	}
	if in.Image != nil {
		if err := checkImage("image", in.Image, MaxImageSize); err != nil {
			return models.Fixture{}, err
		}
	}
	return models.Fixture{
		Sport:   strings.TrimSpace(in.Sport),
		Team1ID: in.Team1ID,
		Team2ID: in.Team2ID,
		Date:    date,
		Time:    clock,
		Venue:   strings.TrimSpace(in.Venue),
		Status:  status,
		Notes:   in.Notes,
	}, nil
}

func (f *Fixtures) Update(ctx context.Context, id uuid.UUID, p FixturePatch) (models.Fixture, error) {
	patch := map[string]any{}
	if p.Date != nil {
		d, err := parseDate("date", *p.Date)
		if err != nil {
			return models.Fixture{}, err
		}
		patch["date"] = d
	}
	if p.Time != nil {
		t, err := parseClock("time", *p.Time)
		if err != nil {
			return models.Fixture{}, err
		}
		patch["time"] = t
	}
	if p.Venue != nil {
		if err := required("venue", *p.Venue); err != nil {
			return models.Fixture{}, err
		}
		patch["venue"] = strings.TrimSpace(*p.Venue)
	}
	if p.Status != nil {
		if err := oneOf("status", *p.Status, fixtureStatuses...); err != nil {
			return models.Fixture{}, err
		}
		patch["status"] = *p.Status
	}
	for col, team := range map[string]*uuid.UUID{"team1_id": p.Team1ID, "team2_id": p.Team2ID} {
		if team != nil {
			if *team == uuid.Nil {
				return models.Fixture{}, invalid(col, "is required")
			}
			patch[col] = *team
		}
	}
	if p.Team1ID != nil && p.Team2ID != nil && *p.Team1ID == *p.Team2ID {
		return models.Fixture{}, invalid("team2_id", "a club cannot play itself")
	}
	setIf(patch, "sport", p.Sport)
	setIf(patch, "notes", p.Notes)
	if p.Image != nil {
		if err := checkImage("image", p.Image, MaxImageSize); err != nil {
			return models.Fixture{}, err
		}
	}
	if len(patch) == 0 && p.Image == nil {
		return models.Fixture{}, invalid("", "nothing to update")
	}

	ctx, cancel := f.callContext(ctx)
	defer cancel()

	if p.Team1ID != nil || p.Team2ID != nil {
		if err := f.checkTeamChange(ctx, id, p.Team1ID, p.Team2ID); err != nil {
			return models.Fixture{}, err
		}
	}

	if p.Image != nil {
		url, err := f.deps.Storage.Upload(ctx, storage.BucketFixtures, objectPath("images", p.Image.Filename), p.Image.Data, p.Image.ContentType)
		if err != nil {
			return models.Fixture{}, f.mutationFailed("upload image", id, err)
		}
		patch["image"] = url
	}

	var fx models.Fixture
	if err := f.deps.Client.Update(ctx, models.TableFixtures, id, patch, &fx); err != nil {
		return models.Fixture{}, f.mutationFailed("update", id, err)
	}
	return fx, nil
}

// checkTeamChange validates a team change against the stored fixture: the
// merged teams must differ, and a fixture with a result keeps its teams so
// the result's winner stays one of them.
func (f *Fixtures) checkTeamChange(ctx context.Context, id uuid.UUID, team1, team2 *uuid.UUID) error {
	cur, err := remote.Get[models.Fixture](ctx, f.deps.Client, models.TableFixtures, id)
	if err != nil {
		return f.mutationFailed("update", id, err)
	}
	field := "team1_id"
	if team1 != nil {
		cur.Team1ID = *team1
	}
	if team2 != nil {
		cur.Team2ID = *team2
		if team1 == nil {
			field = "team2_id"
		}
	}
	if cur.Team1ID == cur.Team2ID {
		return invalid("team2_id", "a club cannot play itself")
	}

	var results []models.Result
	q := remote.Query{Filter: map[string]any{"fixture_id": id}, Limit: 1}
	if err := f.deps.Client.Query(ctx, models.TableResults, q, &results); err != nil {
		return f.mutationFailed("update", id, err)
	}
	if len(results) > 0 {
		return invalid(field, "fixture has a result; delete it first")
	}
	return nil
}

func (f *Fixtures) SetStatus(ctx context.Context, id uuid.UUID, status string) (models.Fixture, error) {
	return f.Update(ctx, id, FixturePatch{Status: &status})
}

func (f *Fixtures) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := f.callContext(ctx)
	defer cancel()

	if err := f.deps.Client.Delete(ctx, models.TableFixtures, id); err != nil {
		return f.mutationFailed("delete", id, err)
	}
	return nil
}

// Upcoming returns loaded fixtures that are still to be played.
func (f *Fixtures) Upcoming() []FixtureView {
	var out []FixtureView
	for _, v := range f.Snapshot().Items {
		if v.Status == models.FixtureScheduled || v.Status == models.FixtureOngoing {
			out = append(out, v)
		}
	}
	return out
}
