package resilience

import (
	"context"

	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
)

// Store wraps every repository of an inner store with an Executor
type Store struct {
	timelines    *timelineRepository
	exhibits     *exhibitRepository
	contentItems *contentItemRepository
	bitmasks     *bitmaskRepository
	triples      *tripleRepository
	collections  *collectionRepository
}

// procedureStore is returned when the inner store evaluates subtrees itself
type procedureStore struct {
	*Store
	inner ports.SubtreeProcedure
	exec  *Executor
}

// Wrap decorates store. The result implements ports.SubtreeProcedure
// exactly when store does.
func Wrap(store ports.Store, exec *Executor) ports.Store {
	s := &Store{
		timelines:    &timelineRepository{inner: store.Timelines(), exec: exec},
		exhibits:     &exhibitRepository{inner: store.Exhibits(), exec: exec},
		contentItems: &contentItemRepository{inner: store.ContentItems(), exec: exec},
		bitmasks:     &bitmaskRepository{inner: store.Bitmasks(), exec: exec},
		triples:      &tripleRepository{inner: store.Triples(), exec: exec},
		collections:  &collectionRepository{inner: store.Collections(), exec: exec},
	}
	if proc, ok := store.(ports.SubtreeProcedure); ok {
		return &procedureStore{Store: s, inner: proc, exec: exec}
	}
	return s
}

func (s *Store) Timelines() ports.TimelineRepository       { return s.timelines }
func (s *Store) Exhibits() ports.ExhibitRepository         { return s.exhibits }
func (s *Store) ContentItems() ports.ContentItemRepository { return s.contentItems }
func (s *Store) Bitmasks() ports.BitmaskRepository         { return s.bitmasks }
func (s *Store) Triples() ports.TripleRepository           { return s.triples }
func (s *Store) Collections() ports.CollectionRepository   { return s.collections }

func (s *procedureStore) TimelineSubtree(ctx context.Context, req ports.SubtreeRequest) ([]*entities.Timeline, error) {
	return call(ctx, s.exec, opName("timelines", "Subtree"), func(ctx context.Context) ([]*entities.Timeline, error) {
		return s.inner.TimelineSubtree(ctx, req)
	})
}

type timelineRepository struct {
	inner ports.TimelineRepository
	exec  *Executor
}

func (r *timelineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "GetByID"), func(ctx context.Context) (*entities.Timeline, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *timelineRepository) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "GetByTitle"), func(ctx context.Context) (*entities.Timeline, error) {
		return r.inner.GetByTitle(ctx, collectionID, title)
	})
}

func (r *timelineRepository) GetRoot(ctx context.Context, collectionID uuid.UUID) (*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "GetRoot"), func(ctx context.Context) (*entities.Timeline, error) {
		return r.inner.GetRoot(ctx, collectionID)
	})
}

func (r *timelineRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "ListChildren"), func(ctx context.Context) ([]*entities.Timeline, error) {
		return r.inner.ListChildren(ctx, parentID)
	})
}

func (r *timelineRepository) FindInWindow(ctx context.Context, filter ports.TimelineFilter) ([]*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "FindInWindow"), func(ctx context.Context) ([]*entities.Timeline, error) {
		return r.inner.FindInWindow(ctx, filter)
	})
}

func (r *timelineRepository) FindByForkNodes(ctx context.Context, collectionID uuid.UUID, nodes []uint64) ([]*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "FindByForkNodes"), func(ctx context.Context) ([]*entities.Timeline, error) {
		return r.inner.FindByForkNodes(ctx, collectionID, nodes)
	})
}

func (r *timelineRepository) FindByForkRange(ctx context.Context, collectionID uuid.UUID, from, to uint64) ([]*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "FindByForkRange"), func(ctx context.Context) ([]*entities.Timeline, error) {
		return r.inner.FindByForkRange(ctx, collectionID, from, to)
	})
}

func (r *timelineRepository) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*entities.Timeline, error) {
	return call(ctx, r.exec, opName("timelines", "ListByCollection"), func(ctx context.Context) ([]*entities.Timeline, error) {
		return r.inner.ListByCollection(ctx, collectionID)
	})
}

func (r *timelineRepository) Save(ctx context.Context, timeline *entities.Timeline) error {
	return r.exec.Do(ctx, opName("timelines", "Save"), func(ctx context.Context) error {
		return r.inner.Save(ctx, timeline)
	})
}

func (r *timelineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec.Do(ctx, opName("timelines", "Delete"), func(ctx context.Context) error {
		return r.inner.Delete(ctx, id)
	})
}

type exhibitRepository struct {
	inner ports.ExhibitRepository
	exec  *Executor
}

func (r *exhibitRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Exhibit, error) {
	return call(ctx, r.exec, opName("exhibits", "GetByID"), func(ctx context.Context) (*entities.Exhibit, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *exhibitRepository) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Exhibit, error) {
	return call(ctx, r.exec, opName("exhibits", "GetByTitle"), func(ctx context.Context) (*entities.Exhibit, error) {
		return r.inner.GetByTitle(ctx, collectionID, title)
	})
}

func (r *exhibitRepository) ListByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*entities.Exhibit, error) {
	return call(ctx, r.exec, opName("exhibits", "ListByTimeline"), func(ctx context.Context) ([]*entities.Exhibit, error) {
		return r.inner.ListByTimeline(ctx, timelineID)
	})
}

func (r *exhibitRepository) ListByTimelines(ctx context.Context, timelineIDs []uuid.UUID, limit int) ([]*entities.Exhibit, error) {
	return call(ctx, r.exec, opName("exhibits", "ListByTimelines"), func(ctx context.Context) ([]*entities.Exhibit, error) {
		return r.inner.ListByTimelines(ctx, timelineIDs, limit)
	})
}

func (r *exhibitRepository) Save(ctx context.Context, exhibit *entities.Exhibit) error {
	return r.exec.Do(ctx, opName("exhibits", "Save"), func(ctx context.Context) error {
		return r.inner.Save(ctx, exhibit)
	})
}

func (r *exhibitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec.Do(ctx, opName("exhibits", "Delete"), func(ctx context.Context) error {
		return r.inner.Delete(ctx, id)
	})
}

type contentItemRepository struct {
	inner ports.ContentItemRepository
	exec  *Executor
}

func (r *contentItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.ContentItem, error) {
	return call(ctx, r.exec, opName("contentItems", "GetByID"), func(ctx context.Context) (*entities.ContentItem, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *contentItemRepository) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.ContentItem, error) {
	return call(ctx, r.exec, opName("contentItems", "GetByTitle"), func(ctx context.Context) (*entities.ContentItem, error) {
		return r.inner.GetByTitle(ctx, collectionID, title)
	})
}

func (r *contentItemRepository) ListByExhibit(ctx context.Context, exhibitID uuid.UUID) ([]*entities.ContentItem, error) {
	return call(ctx, r.exec, opName("contentItems", "ListByExhibit"), func(ctx context.Context) ([]*entities.ContentItem, error) {
		return r.inner.ListByExhibit(ctx, exhibitID)
	})
}

func (r *contentItemRepository) ListByExhibits(ctx context.Context, exhibitIDs []uuid.UUID) ([]*entities.ContentItem, error) {
	return call(ctx, r.exec, opName("contentItems", "ListByExhibits"), func(ctx context.Context) ([]*entities.ContentItem, error) {
		return r.inner.ListByExhibits(ctx, exhibitIDs)
	})
}

func (r *contentItemRepository) Save(ctx context.Context, item *entities.ContentItem) error {
	return r.exec.Do(ctx, opName("contentItems", "Save"), func(ctx context.Context) error {
		return r.inner.Save(ctx, item)
	})
}

func (r *contentItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec.Do(ctx, opName("contentItems", "Delete"), func(ctx context.Context) error {
		return r.inner.Delete(ctx, id)
	})
}

type bitmaskRepository struct {
	inner ports.BitmaskRepository
	exec  *Executor
}

func (r *bitmaskRepository) List(ctx context.Context) ([]entities.BitmaskEntry, error) {
	return call(ctx, r.exec, opName("bitmasks", "List"), func(ctx context.Context) ([]entities.BitmaskEntry, error) {
		return r.inner.List(ctx)
	})
}

func (r *bitmaskRepository) SaveAll(ctx context.Context, entries []entities.BitmaskEntry) error {
	return r.exec.Do(ctx, opName("bitmasks", "SaveAll"), func(ctx context.Context) error {
		return r.inner.SaveAll(ctx, entries)
	})
}

type tripleRepository struct {
	inner ports.TripleRepository
	exec  *Executor
}

func (r *tripleRepository) FindByObject(ctx context.Context, object string) ([]entities.Triple, error) {
	return call(ctx, r.exec, opName("triples", "FindByObject"), func(ctx context.Context) ([]entities.Triple, error) {
		return r.inner.FindByObject(ctx, object)
	})
}

func (r *tripleRepository) Save(ctx context.Context, triple entities.Triple) error {
	return r.exec.Do(ctx, opName("triples", "Save"), func(ctx context.Context) error {
		return r.inner.Save(ctx, triple)
	})
}

type collectionRepository struct {
	inner ports.CollectionRepository
	exec  *Executor
}

func (r *collectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Collection, error) {
	return call(ctx, r.exec, opName("collections", "GetByID"), func(ctx context.Context) (*entities.Collection, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *collectionRepository) GetTour(ctx context.Context, id uuid.UUID) (*entities.Tour, error) {
	return call(ctx, r.exec, opName("collections", "GetTour"), func(ctx context.Context) (*entities.Tour, error) {
		return r.inner.GetTour(ctx, id)
	})
}

func (r *collectionRepository) Save(ctx context.Context, collection *entities.Collection) error {
	return r.exec.Do(ctx, opName("collections", "Save"), func(ctx context.Context) error {
		return r.inner.Save(ctx, collection)
	})
}

func (r *collectionRepository) SaveTour(ctx context.Context, tour *entities.Tour) error {
	return r.exec.Do(ctx, opName("collections", "SaveTour"), func(ctx context.Context) error {
		return r.inner.SaveTour(ctx, tour)
	})
}
