package collections

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

func TestRegistrySharesOneStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.club(t, "Abahani")
	reg := NewRegistry(ctx, f.deps)

	first, release1 := reg.Clubs(ctx)
	second, release2 := reg.Clubs(ctx)
	assert.Equal(t, true, first == second)
	assert.Equal(t, 2, reg.Refs(models.TableClubs))
	assert.Equal(t, 1, f.mem.Subscribers(models.TableClubs))
	assert.Equal(t, 1, f.client.queryCount(models.TableClubs))
	assert.Equal(t, 1, len(first.Snapshot().Items))

	f.club(t, "Banani")
	assert.Equal(t, 2, len(second.Snapshot().Items))

	release1()
	release1()
	assert.Equal(t, 1, reg.Refs(models.TableClubs))
	assert.Equal(t, 1, f.mem.Subscribers(models.TableClubs))

	release2()
	assert.Equal(t, 0, reg.Refs(models.TableClubs))
	assert.Equal(t, 0, f.mem.Subscribers(models.TableClubs))
	assert.Equal(t, false, first.Subscribed())

	third, release3 := reg.Clubs(ctx)
	defer release3()
	assert.Equal(t, false, third == first)
	assert.Equal(t, 2, f.client.queryCount(models.TableClubs))
	assert.Equal(t, 2, len(third.Snapshot().Items))
}

func TestRegistryKeepsEntitiesApart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	reg := NewRegistry(ctx, f.deps)

	_, releaseFixtures := reg.Fixtures(ctx)
	_, releaseResults := reg.Results(ctx)
	_, releaseMedia := reg.Media(ctx)
	_, releaseMessages := reg.Messages(ctx)
	_, releasePress := reg.Press(ctx)

	for _, table := range []string{models.TableFixtures, models.TableResults, models.TableMedia, models.TableMessages, models.TablePress} {
		assert.Equal(t, 1, reg.Refs(table))
		assert.Equal(t, 1, f.mem.Subscribers(table))
	}
	assert.Equal(t, 0, reg.Refs(models.TableClubs))

	releaseFixtures()
	releaseResults()
	releaseMedia()
	releaseMessages()
	releasePress()
	assert.Equal(t, 0, f.mem.Subscribers(models.TablePress))
}
