package api

import (
	"context"

	"github.com/sirdesai22/sportsfest-sync/internal/collections"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

// view is the entity-agnostic face of a collection the handlers need.
type view interface {
	Snapshot() any
	Watch(fn func(any)) (cancel func())
}

type collectionView[T any] struct{ c *collections.Collection[T] }

func (v collectionView[T]) Snapshot() any { return v.c.Snapshot() }

func (v collectionView[T]) Watch(fn func(any)) func() {
	return v.c.OnChange(func(st collections.State[T]) { fn(st) })
}

// private entities are only listed to authenticated callers.
var private = map[string]bool{models.TableMessages: true}

// open acquires the shared store for entity. The caller must release it.
func (s *Server) open(ctx context.Context, entity string) (view, func(), bool) {
	switch entity {
	case models.TableClubs:
		c, release := s.reg.Clubs(ctx)
		return collectionView[models.Club]{c.Collection}, release, true
	case models.TableFixtures:
		c, release := s.reg.Fixtures(ctx)
		return collectionView[collections.FixtureView]{c.Collection}, release, true
	case models.TableResults:
		c, release := s.reg.Results(ctx)
		return collectionView[collections.ResultView]{c.Collection}, release, true
	case models.TableMedia:
		c, release := s.reg.Media(ctx)
		return collectionView[models.Media]{c.Collection}, release, true
	case models.TableMessages:
		c, release := s.reg.Messages(ctx)
		return collectionView[models.Message]{c.Collection}, release, true
	case models.TablePress:
		c, release := s.reg.Press(ctx)
		return collectionView[models.Press]{c.Collection}, release, true
	}
	return nil, nil, false
}
