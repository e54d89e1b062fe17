package collections

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
)

// Display fallbacks for joins whose club no longer exists.
const (
	UnknownTeam = "TBA"
)

// JoinedClub is the slice of a club carried on joined rows.
type JoinedClub struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Logo string    `json:"logo,omitempty"`
}

// FixtureView is a fixture with both teams resolved. A nil team means the
// club has been deleted.
type FixtureView struct {
	models.Fixture
	Team1 *JoinedClub `json:"team1"`
	Team2 *JoinedClub `json:"team2"`
}

func (f FixtureView) Team1Name() string { return clubName(f.Team1) }
func (f FixtureView) Team2Name() string { return clubName(f.Team2) }

// ResultView is a result with its fixture and winner resolved.
type ResultView struct {
	models.Result
	Fixture *FixtureView `json:"fixture"`
	Winner  *JoinedClub  `json:"winner"`
}

func (r ResultView) IsDraw() bool { return r.WinnerID == nil }

// Loser is the fixture team that is not the winner. It is nil for a draw or
// when the fixture is gone, and is never stored.
func (r ResultView) Loser() *JoinedClub {
	if r.WinnerID == nil || r.Fixture == nil {
		return nil
	}
	switch *r.WinnerID {
	case r.Fixture.Team1ID:
		return r.Fixture.Team2
	case r.Fixture.Team2ID:
		return r.Fixture.Team1
	}
	return nil
}

func clubName(c *JoinedClub) string {
	if c == nil || c.Name == "" {
		return UnknownTeam
	}
	return c.Name
}

// JoinResolver attaches club fields to fixtures and results with one
// secondary lookup per related table. Nothing is cached between calls.
type JoinResolver struct {
	client remote.Client
}

func NewJoinResolver(c remote.Client) *JoinResolver {
	return &JoinResolver{client: c}
}

func (j *JoinResolver) Fixtures(ctx context.Context, fixtures []models.Fixture) ([]FixtureView, error) {
	ids := make([]uuid.UUID, 0, 2*len(fixtures))
	for _, f := range fixtures {
		ids = append(ids, f.Team1ID, f.Team2ID)
	}
	clubs, err := j.clubs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]FixtureView, 0, len(fixtures))
	for _, f := range fixtures {
		views = append(views, FixtureView{
			Fixture: f,
			Team1:   clubs.get(f.Team1ID),
			Team2:   clubs.get(f.Team2ID),
		})
	}
	return views, nil
}

func (j *JoinResolver) Results(ctx context.Context, results []models.Result) ([]ResultView, error) {
	if len(results) == 0 {
		return []ResultView{}, nil
	}
	fixtureIDs := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		fixtureIDs = append(fixtureIDs, r.FixtureID)
	}
	var fixtures []models.Fixture
	if err := j.client.Query(ctx, models.TableFixtures, remote.Query{IDs: unique(fixtureIDs)}, &fixtures); err != nil {
		return nil, fmt.Errorf("join fixtures: %w", err)
	}
	byID := make(map[uuid.UUID]models.Fixture, len(fixtures))
	clubIDs := make([]uuid.UUID, 0, 2*len(fixtures)+len(results))
	for _, f := range fixtures {
		byID[f.ID] = f
		clubIDs = append(clubIDs, f.Team1ID, f.Team2ID)
	}
	for _, r := range results {
		if r.WinnerID != nil {
			clubIDs = append(clubIDs, *r.WinnerID)
		}
	}
	clubs, err := j.clubs(ctx, clubIDs)
	if err != nil {
		return nil, err
	}

	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		v := ResultView{Result: r}
		if f, ok := byID[r.FixtureID]; ok {
			v.Fixture = &FixtureView{Fixture: f, Team1: clubs.get(f.Team1ID), Team2: clubs.get(f.Team2ID)}
		}
		if r.WinnerID != nil {
			v.Winner = clubs.get(*r.WinnerID)
		}
		views = append(views, v)
	}
	return views, nil
}

type clubIndex map[uuid.UUID]models.Club

// get returns a fresh copy so views never share a JoinedClub.
func (ci clubIndex) get(id uuid.UUID) *JoinedClub {
	c, ok := ci[id]
	if !ok {
		return nil
	}
	return &JoinedClub{ID: c.ID, Name: c.Name, Logo: c.Logo}
}

func (j *JoinResolver) clubs(ctx context.Context, ids []uuid.UUID) (clubIndex, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return clubIndex{}, nil
	}
	var clubs []models.Club
	if err := j.client.Query(ctx, models.TableClubs, remote.Query{IDs: ids}, &clubs); err != nil {
		return nil, fmt.Errorf("join clubs: %w", err)
	}
	idx := make(clubIndex, len(clubs))
	for _, c := range clubs {
		idx[c.ID] = c
	}
	return idx, nil
}

func unique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
