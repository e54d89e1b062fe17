package collections

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"gorm.io/datatypes"
)

func TestFetchAllOrdersClubsByName(t *testing.T) {
	f := newFixture()
	f.club(t, "gulshan Youth")
	f.club(t, "Abahani")
	f.club(t, "Banani Club")

	clubs := NewClubs(f.deps)
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))

	st := clubs.Snapshot()
	assert.Equal(t, 3, len(st.Items))
	assert.Equal(t, "Abahani", st.Items[0].Name)
	assert.Equal(t, "Banani Club", st.Items[1].Name)
	assert.Equal(t, "gulshan Youth", st.Items[2].Name)
	assert.Equal(t, "", st.Error)
	assert.Equal(t, false, st.Loading)
}

func TestFetchAllOrdersMessagesNewestFirst(t *testing.T) {
	f := newFixture()
	messages := NewMessages(f.deps)
	for _, subject := range []string{"first", "second", "third"} {
		m := models.Message{Name: "Rafi", Email: "rafi@example.com", Subject: subject, Body: "hello", Status: models.MessageUnread}
		assert.Equal(t, nil, f.mem.Insert(context.Background(), models.TableMessages, &m))
	}

	assert.Equal(t, nil, messages.FetchAll(context.Background()))
	items := messages.Snapshot().Items
	assert.Equal(t, 3, len(items))
	assert.Equal(t, "third", items[0].Subject)
	assert.Equal(t, "first", items[2].Subject)
}

func TestFetchFailureKeepsItems(t *testing.T) {
	f := newFixture()
	f.club(t, "Abahani")
	clubs := NewClubs(f.deps)
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))

	f.client.setFailQuery(errors.New("connection reset"))
	err := clubs.FetchAll(context.Background())
	assert.Equal(t, true, errors.Is(err, ErrFetch))

	st := clubs.Snapshot()
	assert.Equal(t, 1, len(st.Items))
	assert.Equal(t, "Abahani", st.Items[0].Name)
	assert.Equal(t, true, strings.HasPrefix(st.Error, "failed to load clubs"))
	assert.Equal(t, false, st.Loading)

	f.client.setFailQuery(nil)
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))
	assert.Equal(t, "", clubs.Snapshot().Error)
}

func TestLoadingIsSetDuringFetch(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)

	var seen []bool
	cancel := clubs.OnChange(func(st State[models.Club]) { seen = append(seen, st.Loading) })
	defer cancel()

	assert.Equal(t, nil, clubs.FetchAll(context.Background()))
	assert.Equal(t, []bool{true, false}, seen)
}

func TestFeedInsertPatchesInSortedPosition(t *testing.T) {
	f := newFixture()
	f.club(t, "Abahani")
	f.club(t, "Gulshan")

	clubs := NewClubs(f.deps)
	defer clubs.Subscribe(context.Background())()
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))
	before := f.client.queryCount(models.TableClubs)

	row := models.Club{
		ID:        uuid.New(),
		Name:      "Banani Club",
		Slug:      "banani-club",
		Status:    models.ClubActive,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, _ := json.Marshal(row)
	assert.Equal(t, 1, f.mem.Publish(feed.ChangeEvent{Type: feed.Insert, Table: models.TableClubs, New: payload}))

	items := clubs.Snapshot().Items
	assert.Equal(t, 3, len(items))
	assert.Equal(t, row.ID, items[1].ID)
	assert.Equal(t, row.Name, items[1].Name)
	assert.Equal(t, row.Slug, items[1].Slug)
	assert.Equal(t, true, row.CreatedAt.Equal(items[1].CreatedAt))
	assert.Equal(t, before, f.client.queryCount(models.TableClubs))

	// a second delivery of the same row is idempotent
	f.mem.Publish(feed.ChangeEvent{Type: feed.Insert, Table: models.TableClubs, New: payload})
	assert.Equal(t, 3, len(clubs.Snapshot().Items))
}

func TestFeedUpdateReplacesRow(t *testing.T) {
	f := newFixture()
	club := f.club(t, "Abahani")
	clubs := NewClubs(f.deps)
	defer clubs.Subscribe(context.Background())()
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))

	var updated models.Club
	err := f.mem.Update(context.Background(), models.TableClubs, club.ID, map[string]any{"status": models.ClubInactive}, &updated)
	assert.Equal(t, nil, err)

	got, ok := clubs.Find(club.ID)
	assert.Equal(t, true, ok)
	assert.Equal(t, models.ClubInactive, got.Status)
	assert.Equal(t, 1, len(clubs.Snapshot().Items))
}

func TestFeedDeleteRemovesOnlyThatRow(t *testing.T) {
	f := newFixture()
	a := f.club(t, "Abahani")
	b := f.club(t, "Banani")
	c := f.club(t, "Gulshan")

	clubs := NewClubs(f.deps)
	defer clubs.Subscribe(context.Background())()
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))

	old, _ := json.Marshal(map[string]any{"id": b.ID})
	f.mem.Publish(feed.ChangeEvent{Type: feed.Delete, Table: models.TableClubs, Old: old})

	items := clubs.Snapshot().Items
	assert.Equal(t, 2, len(items))
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, c.ID, items[1].ID)
}

func TestUndecodableEventReloads(t *testing.T) {
	f := newFixture()
	f.club(t, "Abahani")
	clubs := NewClubs(f.deps)
	defer clubs.Subscribe(context.Background())()
	assert.Equal(t, nil, clubs.FetchAll(context.Background()))
	before := f.client.queryCount(models.TableClubs)

	f.mem.Publish(feed.ChangeEvent{Type: feed.Delete, Table: models.TableClubs, Old: json.RawMessage(`{}`)})
	assert.Equal(t, before+1, f.client.queryCount(models.TableClubs))
	assert.Equal(t, 1, len(clubs.Snapshot().Items))
}

func TestUnsubscribeStopsUpdates(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)
	unsubscribe := clubs.Subscribe(context.Background())
	assert.Equal(t, 1, f.mem.Subscribers(models.TableClubs))

	unsubscribe()
	assert.Equal(t, false, clubs.Subscribed())
	assert.Equal(t, 0, f.mem.Subscribers(models.TableClubs))

	f.club(t, "Abahani")
	assert.Equal(t, 0, len(clubs.Snapshot().Items))

	// releasing twice is harmless
	unsubscribe()
}

func TestSubscribeTwiceKeepsOneSubscription(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)
	clubs.Subscribe(context.Background())
	clubs.Subscribe(context.Background())
	assert.Equal(t, 1, f.mem.Subscribers(models.TableClubs))
	clubs.Unsubscribe()
}

func TestCancelledContextEndsSubscription(t *testing.T) {
	f := newFixture()
	clubs := NewClubs(f.deps)
	ctx, cancel := context.WithCancel(context.Background())
	clubs.Subscribe(ctx)
	cancel()

	assert.Equal(t, false, clubs.Subscribed())
	f.club(t, "Abahani")
	assert.Equal(t, 0, len(clubs.Snapshot().Items))
}

func TestFixtureEventRefetchesOnce(t *testing.T) {
	f := newFixture()
	a, b := f.club(t, "Abahani"), f.club(t, "Banani")
	fixtures := NewFixtures(f.deps)
	defer fixtures.Subscribe(context.Background())()
	assert.Equal(t, nil, fixtures.FetchAll(context.Background()))
	assert.Equal(t, 1, f.client.queryCount(models.TableFixtures))

	fx := f.match(t, a.ID, b.ID, "2025-03-01", "16:00")
	assert.Equal(t, 2, f.client.queryCount(models.TableFixtures))

	err := f.mem.Update(context.Background(), models.TableFixtures, fx.ID, map[string]any{"venue": "Mirpur"}, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, f.client.queryCount(models.TableFixtures))

	assert.Equal(t, nil, f.mem.Delete(context.Background(), models.TableFixtures, fx.ID))
	assert.Equal(t, 4, f.client.queryCount(models.TableFixtures))
	assert.Equal(t, 0, len(fixtures.Snapshot().Items))
}

func TestResultEventRefetchesOnce(t *testing.T) {
	f := newFixture()
	a, b := f.club(t, "Abahani"), f.club(t, "Banani")
	fx := f.match(t, a.ID, b.ID, "2025-03-01", "16:00")

	results := NewResults(f.deps)
	defer results.Subscribe(context.Background())()
	assert.Equal(t, nil, results.FetchAll(context.Background()))
	assert.Equal(t, 1, f.client.queryCount(models.TableResults))

	res := models.Result{FixtureID: fx.ID, Team1Score: 1, Team2Score: 0, WinnerID: &a.ID}
	assert.Equal(t, nil, f.mem.Insert(context.Background(), models.TableResults, &res))
	assert.Equal(t, 2, f.client.queryCount(models.TableResults))

	items := results.Snapshot().Items
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "Abahani", items[0].Winner.Name)
}

func TestFixturesOrderedByDateThenTime(t *testing.T) {
	f := newFixture()
	a, b := f.club(t, "Abahani"), f.club(t, "Banani")
	f.match(t, a.ID, b.ID, "2025-03-02", "10:00")
	f.match(t, b.ID, a.ID, "2025-03-01", "18:30")
	f.match(t, a.ID, b.ID, "2025-03-01", "09:15")

	fixtures := NewFixtures(f.deps)
	assert.Equal(t, nil, fixtures.FetchAll(context.Background()))
	items := fixtures.Snapshot().Items
	assert.Equal(t, 3, len(items))
	assert.Equal(t, datatypes.NewTime(9, 15, 0, 0), items[0].Time)
	assert.Equal(t, datatypes.NewTime(18, 30, 0, 0), items[1].Time)
	assert.Equal(t, datatypes.NewTime(10, 0, 0, 0), items[2].Time)
}

type stalledClient struct{ *countingClient }

func (s stalledClient) Query(ctx context.Context, table string, q remote.Query, dest any) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTimeoutBoundsRemoteCalls(t *testing.T) {
	f := newFixture()
	f.deps.Client = stalledClient{f.client}
	f.deps.Timeout = 10 * time.Millisecond
	clubs := NewClubs(f.deps)

	err := clubs.FetchAll(context.Background())
	assert.Equal(t, true, errors.Is(err, ErrFetch))
	assert.Equal(t, true, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, false, clubs.Snapshot().Loading)
}

// checkNewestFirstPatching feeds three inserts out of order into an empty
// store, then deletes the middle one, without any refetch.
func checkNewestFirstPatching[T any](t *testing.T, f *fixture, c *Collection[T], build func(id uuid.UUID, at time.Time) T, id func(T) uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	defer c.Subscribe(ctx)()
	assert.Equal(t, nil, c.FetchAll(ctx))
	table := c.Table()
	before := f.client.queryCount(table)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := build(uuid.New(), base)
	newest := build(uuid.New(), base.Add(2*time.Hour))
	middle := build(uuid.New(), base.Add(time.Hour))
	for _, row := range []T{oldest, newest, middle} {
		payload, err := json.Marshal(row)
		assert.Equal(t, nil, err)
		assert.Equal(t, 1, f.mem.Publish(feed.ChangeEvent{Type: feed.Insert, Table: table, New: payload}))
	}

	items := c.Snapshot().Items
	assert.Equal(t, 3, len(items))
	assert.Equal(t, id(newest), id(items[0]))
	assert.Equal(t, id(middle), id(items[1]))
	assert.Equal(t, id(oldest), id(items[2]))

	old, _ := json.Marshal(map[string]any{"id": id(middle)})
	f.mem.Publish(feed.ChangeEvent{Type: feed.Delete, Table: table, Old: old})
	items = c.Snapshot().Items
	assert.Equal(t, 2, len(items))
	assert.Equal(t, id(newest), id(items[0]))
	assert.Equal(t, id(oldest), id(items[1]))
	assert.Equal(t, before, f.client.queryCount(table))
}

func TestFeedPatchesNewestFirstEntities(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, f *fixture)
	}{
		{"media", func(t *testing.T, f *fixture) {
			checkNewestFirstPatching(t, f, NewMedia(f.deps).Collection,
				func(id uuid.UUID, at time.Time) models.Media {
					return models.Media{ID: id, Title: "Clip", Type: models.MediaVideo, URL: YouTubeThumbnail("abc"), CreatedAt: at, UpdatedAt: at}
				},
				func(m models.Media) uuid.UUID { return m.ID })
		}},
		{"messages", func(t *testing.T, f *fixture) {
			checkNewestFirstPatching(t, f, NewMessages(f.deps).Collection,
				func(id uuid.UUID, at time.Time) models.Message {
					return models.Message{ID: id, Name: "Rafi", Email: "rafi@example.com", Subject: "Tickets", Body: "Hello", Status: models.MessageUnread, CreatedAt: at, UpdatedAt: at}
				},
				func(m models.Message) uuid.UUID { return m.ID })
		}},
		{"press", func(t *testing.T, f *fixture) {
			checkNewestFirstPatching(t, f, NewPress(f.deps).Collection,
				func(id uuid.UUID, at time.Time) models.Press {
					return models.Press{ID: id, Type: models.PressNews, Title: "Coverage", NewsLink: "https://news.example.com/a", PublishDate: datatypes.Date(at), CreatedAt: at, UpdatedAt: at}
				},
				func(p models.Press) uuid.UUID { return p.ID })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, newFixture())
		})
	}
}

// cancellingClient cancels the caller's context once a query has returned.
type cancellingClient struct {
	remote.Client
	cancel context.CancelFunc
}

func (c *cancellingClient) Query(ctx context.Context, table string, q remote.Query, dest any) error {
	err := c.Client.Query(ctx, table, q, dest)
	c.cancel()
	return err
}

func TestFetchCancelledAfterLoadReportsError(t *testing.T) {
	f := newFixture()
	f.club(t, "Abahani")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clubs := NewClubs(Deps{Client: &cancellingClient{Client: f.mem, cancel: cancel}, Storage: f.store})

	err := clubs.FetchAll(ctx)
	assert.Equal(t, true, errors.Is(err, ErrFetch))
	assert.Equal(t, true, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, len(clubs.Snapshot().Items))
	assert.Equal(t, false, clubs.Snapshot().Loading)
}
