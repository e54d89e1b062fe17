package collections

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
)

// countingClient wraps a remote client, counting queries per table and
// failing calls on demand.
type countingClient struct {
	remote.Client

	mu         sync.Mutex
	queries    map[string]int
	inserts    int
	failQuery  error
	failUpdate map[string]error
}

func newCountingClient(c remote.Client) *countingClient {
	return &countingClient{Client: c, queries: map[string]int{}, failUpdate: map[string]error{}}
}

func (c *countingClient) Query(ctx context.Context, table string, q remote.Query, dest any) error {
	c.mu.Lock()
	c.queries[table]++
	fail := c.failQuery
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.Client.Query(ctx, table, q, dest)
}

func (c *countingClient) Insert(ctx context.Context, table string, row any) error {
	c.mu.Lock()
	c.inserts++
	c.mu.Unlock()
	return c.Client.Insert(ctx, table, row)
}

func (c *countingClient) Update(ctx context.Context, table string, id uuid.UUID, patch map[string]any, dest any) error {
	c.mu.Lock()
	fail := c.failUpdate[table]
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.Client.Update(ctx, table, id, patch, dest)
}

func (c *countingClient) queryCount(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries[table]
}

func (c *countingClient) insertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inserts
}

func (c *countingClient) setFailQuery(err error) {
	c.mu.Lock()
	c.failQuery = err
	c.mu.Unlock()
}

func (c *countingClient) setFailUpdate(table string, err error) {
	c.mu.Lock()
	c.failUpdate[table] = err
	c.mu.Unlock()
}

type fixture struct {
	mem    *remote.Memory
	client *countingClient
	store  *storage.Memory
	deps   Deps
}

func newFixture() *fixture {
	mem := remote.NewMemory()
	client := newCountingClient(mem)
	st := storage.NewMemory("http://localhost:8080/assets")
	return &fixture{
		mem:    mem,
		client: client,
		store:  st,
		deps:   Deps{Client: client, Storage: st},
	}
}

func (f *fixture) club(t *testing.T, name string) models.Club {
	t.Helper()
	c := models.Club{Name: name, Slug: Slugify(name), Status: models.ClubActive}
	assert.Equal(t, nil, f.mem.Insert(context.Background(), models.TableClubs, &c))
	return c
}

func (f *fixture) match(t *testing.T, team1, team2 uuid.UUID, date, clock string) models.Fixture {
	t.Helper()
	fx, err := buildFixture(FixtureInput{Team1ID: team1, Team2ID: team2, Date: date, Time: clock, Venue: "Army Stadium", Sport: "football"})
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, f.mem.Insert(context.Background(), models.TableFixtures, &fx))
	return fx
}

func ptr[V any](v V) *V { return &v }

func image(size int) *Upload {
	return &Upload{Filename: "pic.JPG", ContentType: "image/jpeg", Data: make([]byte, size)}
}
