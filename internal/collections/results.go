package collections

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
)

type ResultInput struct {
	FixtureID  uuid.UUID `json:"fixture_id"`
	Team1Score *int      `json:"team1_score"`
	Team2Score *int      `json:"team2_score"`
	Notes      string    `json:"notes"`
}

type ResultPatch struct {
	Team1Score *int    `json:"team1_score"`
	Team2Score *int    `json:"team2_score"`
	Notes      *string `json:"notes"`
}

// ComputeWinner returns the team with the higher score, or nil for a draw.
func ComputeWinner(score1, score2 int, team1, team2 uuid.UUID) *uuid.UUID {
	switch {
	case score1 > score2:
		return &team1
	case score2 > score1:
		return &team2
	}
	return nil
}

// Results mirrors the results table, newest first, with fixture and winner
// joined. Every feed event reloads the collection.
type Results struct {
	*Collection[ResultView]
	deps  Deps
	joins *JoinResolver
}

func NewResults(d Deps) *Results {
	r := &Results{deps: d, joins: NewJoinResolver(d.Client)}
	r.Collection = newCollection(d, entity[ResultView]{
		table: models.TableResults,
		load: func(ctx context.Context) ([]ResultView, error) {
			var rows []models.Result
			q := remote.Query{Order: []remote.Order{{Column: "created_at", Desc: true}}}
			if err := d.Client.Query(ctx, models.TableResults, q, &rows); err != nil {
				return nil, err
			}
			return r.joins.Results(ctx, rows)
		},
		less:    func(a, b ResultView) bool { return a.CreatedAt.After(b.CreatedAt) },
		id:      func(v ResultView) uuid.UUID { return v.ID },
		refetch: true,
	})
	return r
}

func checkScores(s1, s2 *int) error {
	if s1 == nil {
		return invalid("team1_score", "is required")
	}
	if s2 == nil {
		return invalid("team2_score", "is required")
	}
	if *s1 < 0 {
		return invalid("team1_score", "must not be negative")
	}
	if *s2 < 0 {
		return invalid("team2_score", "must not be negative")
	}
	return nil
}

// Create is AddResultAndCompleteFixture.
func (r *Results) Create(ctx context.Context, in ResultInput) (models.Result, error) {
	return r.AddResultAndCompleteFixture(ctx, in)
}

// AddResultAndCompleteFixture records the result and then marks its fixture
// completed. The two writes are not atomic: when the second fails the stored
// result is returned together with a *PartialError.
func (r *Results) AddResultAndCompleteFixture(ctx context.Context, in ResultInput) (models.Result, error) {
	if in.FixtureID == uuid.Nil {
		return models.Result{}, invalid("fixture_id", "is required")
	}
	if err := checkScores(in.Team1Score, in.Team2Score); err != nil {
		return models.Result{}, err
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()

	fx, err := remote.Get[models.Fixture](ctx, r.deps.Client, models.TableFixtures, in.FixtureID)
	if err != nil {
		return models.Result{}, r.mutationFailed("create", uuid.Nil, err)
	}
	res := models.Result{
		FixtureID:  fx.ID,
		Team1Score: *in.Team1Score,
		Team2Score: *in.Team2Score,
		WinnerID:   ComputeWinner(*in.Team1Score, *in.Team2Score, fx.Team1ID, fx.Team2ID),
		Notes:      in.Notes,
	}
	if err := r.deps.Client.Insert(ctx, models.TableResults, &res); err != nil {
		return models.Result{}, r.mutationFailed("create", uuid.Nil, err)
	}

	err = r.deps.Client.Update(ctx, models.TableFixtures, fx.ID, map[string]any{"status": models.FixtureCompleted}, nil)
	if err != nil {
		return res, r.partial("add result", "mark fixture "+fx.ID.String()+" completed", err)
	}
	log.Printf("✅ result %s recorded, fixture %s completed", res.ID, fx.ID)
	return res, nil
}

// Update changes scores or notes. New scores recompute the winner from the
// fixture's teams.
func (r *Results) Update(ctx context.Context, id uuid.UUID, p ResultPatch) (models.Result, error) {
	for field, s := range map[string]*int{"team1_score": p.Team1Score, "team2_score": p.Team2Score} {
		if s != nil && *s < 0 {
			return models.Result{}, invalid(field, "must not be negative")
		}
	}
	if p.Team1Score == nil && p.Team2Score == nil && p.Notes == nil {
		return models.Result{}, invalid("", "nothing to update")
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()

	patch := map[string]any{}
	setIf(patch, "notes", p.Notes)
	if p.Team1Score != nil || p.Team2Score != nil {
		cur, err := remote.Get[models.Result](ctx, r.deps.Client, models.TableResults, id)
		if err != nil {
			return models.Result{}, r.mutationFailed("update", id, err)
		}
		fx, err := remote.Get[models.Fixture](ctx, r.deps.Client, models.TableFixtures, cur.FixtureID)
		if err != nil {
			return models.Result{}, r.mutationFailed("update", id, err)
		}
		s1, s2 := cur.Team1Score, cur.Team2Score
		if p.Team1Score != nil {
			s1 = *p.Team1Score
		}
		if p.Team2Score != nil {
			s2 = *p.Team2Score
		}
		patch["team1_score"] = s1
		patch["team2_score"] = s2
		patch["winner_id"] = nil
		if w := ComputeWinner(s1, s2, fx.Team1ID, fx.Team2ID); w != nil {
			patch["winner_id"] = *w
		}
	}

	var res models.Result
	if err := r.deps.Client.Update(ctx, models.TableResults, id, patch, &res); err != nil {
		return models.Result{}, r.mutationFailed("update", id, err)
	}
	return res, nil
}

// Delete removes the result and reverts its fixture to scheduled. fixtureID
// may be uuid.Nil, in which case it is read from the result first. A failed
// revert leaves the result deleted and returns a *PartialError.
func (r *Results) Delete(ctx context.Context, id, fixtureID uuid.UUID) error {
	ctx, cancel := r.callContext(ctx)
	defer cancel()

	if fixtureID == uuid.Nil {
		cur, err := remote.Get[models.Result](ctx, r.deps.Client, models.TableResults, id)
		if err != nil {
			return r.mutationFailed("delete", id, err)
		}
		fixtureID = cur.FixtureID
	}
	if err := r.deps.Client.Delete(ctx, models.TableResults, id); err != nil {
		return r.mutationFailed("delete", id, err)
	}

	err := r.deps.Client.Update(ctx, models.TableFixtures, fixtureID, map[string]any{"status": models.FixtureScheduled}, nil)
	if err != nil {
		return r.partial("delete result", "revert fixture "+fixtureID.String()+" to scheduled", err)
	}
	return nil
}

// ForFixture returns the loaded result of a fixture.
func (r *Results) ForFixture(fixtureID uuid.UUID) (ResultView, bool) {
	for _, v := range r.Snapshot().Items {
		if v.FixtureID == fixtureID {
			return v, true
		}
	}
	return ResultView{}, false
}

func (r *Results) partial(op, step string, err error) error {
	metrics.PartialFailures.WithLabelValues(op).Inc()
	log.Printf("❌ %s: %s failed, first step already committed: %v", op, step, err)
	return &PartialError{Op: op, Step: step, Err: err}
}
