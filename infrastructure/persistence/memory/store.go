package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// FaultFunc lets tests inject store errors. It is called with the operation
// name before every repository call; a non-nil error is returned as is.
type FaultFunc func(op string) error

// Store is an in-memory implementation of ports.Store. It also implements
// ports.SubtreeProcedure.
type Store struct {
	mu           sync.RWMutex
	timelines    map[uuid.UUID]*entities.Timeline
	exhibits     map[uuid.UUID]*entities.Exhibit
	contentItems map[uuid.UUID]*entities.ContentItem
	bitmasks     map[int]entities.BitmaskEntry
	triples      []entities.Triple
	collections  map[uuid.UUID]*entities.Collection
	tours        map[uuid.UUID]*entities.Tour
	seq          int64
	fault        FaultFunc
	calls        map[string]int
}

var (
	_ ports.Store            = (*Store)(nil)
	_ ports.SubtreeProcedure = (*Store)(nil)
)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		timelines:    make(map[uuid.UUID]*entities.Timeline),
		exhibits:     make(map[uuid.UUID]*entities.Exhibit),
		contentItems: make(map[uuid.UUID]*entities.ContentItem),
		bitmasks:     make(map[int]entities.BitmaskEntry),
		collections:  make(map[uuid.UUID]*entities.Collection),
		tours:        make(map[uuid.UUID]*entities.Tour),
		calls:        make(map[string]int),
	}
}

// SetFault installs or clears the fault injector
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Calls returns how often an operation was invoked
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

func (s *Store) Timelines() ports.TimelineRepository       { return timelineRepo{s} }
func (s *Store) Exhibits() ports.ExhibitRepository         { return exhibitRepo{s} }
func (s *Store) ContentItems() ports.ContentItemRepository { return contentItemRepo{s} }
func (s *Store) Bitmasks() ports.BitmaskRepository         { return bitmaskRepo{s} }
func (s *Store) Triples() ports.TripleRepository           { return tripleRepo{s} }
func (s *Store) Collections() ports.CollectionRepository   { return collectionRepo{s} }

// enter records the call and consults the fault injector. Callers hold no lock.
func (s *Store) enter(op string) error {
	s.mu.Lock()
	s.calls[op]++
	fault := s.fault
	s.mu.Unlock()
	if fault != nil {
		return fault(op)
	}
	return nil
}

func copyTimeline(t *entities.Timeline) *entities.Timeline {
	c := *t
	if t.ParentID != nil {
		pid := *t.ParentID
		c.ParentID = &pid
	}
	return &c
}

// sortTimelines orders by depth, then from year, then id, giving a stable
// answer for scans whose order is otherwise unspecified.
func sortTimelines(ts []*entities.Timeline) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Depth != ts[j].Depth {
			return ts[i].Depth < ts[j].Depth
		}
		if c := ts[i].FromYear.Cmp(ts[j].FromYear); c != 0 {
			return c < 0
		}
		return ts[i].ID.String() < ts[j].ID.String()
	})
}

// Timelines

type timelineRepo struct{ s *Store }

func (r timelineRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Timeline, error) {
	if err := r.s.enter("timelines.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.timelines[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("timeline " + id.String())
	}
	return copyTimeline(t), nil
}

func (r timelineRepo) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Timeline, error) {
	if err := r.s.enter("timelines.GetByTitle"); err != nil {
		return nil, err
	}
	matches := r.s.selectTimelines(func(t *entities.Timeline) bool {
		return t.CollectionID == collectionID && t.Title == title
	})
	if len(matches) == 0 {
		return nil, pkgerrors.NewNotFoundError("timeline titled " + title)
	}
	return matches[0], nil
}

func (r timelineRepo) GetRoot(ctx context.Context, collectionID uuid.UUID) (*entities.Timeline, error) {
	if err := r.s.enter("timelines.GetRoot"); err != nil {
		return nil, err
	}
	roots := r.s.selectTimelines(func(t *entities.Timeline) bool {
		return t.CollectionID == collectionID && t.ParentID == nil
	})
	if len(roots) == 0 {
		return nil, pkgerrors.NewNotFoundError("root timeline of collection " + collectionID.String())
	}
	return roots[0], nil
}

func (r timelineRepo) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entities.Timeline, error) {
	if err := r.s.enter("timelines.ListChildren"); err != nil {
		return nil, err
	}
	return r.s.selectTimelines(func(t *entities.Timeline) bool { return t.HasParent(parentID) }), nil
}

func (r timelineRepo) FindInWindow(ctx context.Context, filter ports.TimelineFilter) ([]*entities.Timeline, error) {
	if err := r.s.enter("timelines.FindInWindow"); err != nil {
		return nil, err
	}
	return r.s.selectTimelines(func(t *entities.Timeline) bool {
		if t.CollectionID != filter.CollectionID || t.Depth < filter.MinDepth {
			return false
		}
		if filter.MaxDepth >= 0 && t.Depth > filter.MaxDepth {
			return false
		}
		return t.Interval().Overlaps(filter.Window)
	}), nil
}

func (r timelineRepo) FindByForkNodes(ctx context.Context, collectionID uuid.UUID, nodes []uint64) ([]*entities.Timeline, error) {
	if err := r.s.enter("timelines.FindByForkNodes"); err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	return r.s.selectTimelines(func(t *entities.Timeline) bool {
		if t.CollectionID != collectionID {
			return false
		}
		_, ok := set[t.ForkNode()]
		return ok
	}), nil
}

func (r timelineRepo) FindByForkRange(ctx context.Context, collectionID uuid.UUID, from, to uint64) ([]*entities.Timeline, error) {
	if err := r.s.enter("timelines.FindByForkRange"); err != nil {
		return nil, err
	}
	return r.s.selectTimelines(func(t *entities.Timeline) bool {
		node := t.ForkNode()
		return t.CollectionID == collectionID && node >= from && node <= to
	}), nil
}

func (r timelineRepo) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*entities.Timeline, error) {
	if err := r.s.enter("timelines.ListByCollection"); err != nil {
		return nil, err
	}
	return r.s.selectTimelines(func(t *entities.Timeline) bool { return t.CollectionID == collectionID }), nil
}

func (r timelineRepo) Save(ctx context.Context, timeline *entities.Timeline) error {
	if err := r.s.enter("timelines.Save"); err != nil {
		return err
	}
	if err := timeline.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.timelines[timeline.ID] = copyTimeline(timeline)
	return nil
}

func (r timelineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.s.enter("timelines.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.timelines[id]; !ok {
		return pkgerrors.NewNotFoundError("timeline " + id.String())
	}
	delete(r.s.timelines, id)
	return nil
}

func (s *Store) selectTimelines(keep func(*entities.Timeline) bool) []*entities.Timeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.Timeline, 0)
	for _, t := range s.timelines {
		if keep(t) {
			out = append(out, copyTimeline(t))
		}
	}
	sortTimelines(out)
	return out
}

// TimelineSubtree evaluates the subtree query the way a stored procedure
// would: descendants of the least common ancestor (or the collection root)
// that overlap the window and are at least MinSpan wide.
func (s *Store) TimelineSubtree(ctx context.Context, req ports.SubtreeRequest) ([]*entities.Timeline, error) {
	if err := s.enter("timelines.Subtree"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var anchor *entities.Timeline
	if req.LeastCommonAncestor != nil {
		if t, ok := s.timelines[*req.LeastCommonAncestor]; ok && t.CollectionID == req.CollectionID {
			anchor = t
		}
	}
	if anchor == nil {
		for _, t := range s.timelines {
			if t.CollectionID == req.CollectionID && t.ParentID == nil {
				anchor = t
				break
			}
		}
	}
	if anchor == nil {
		return nil, nil
	}

	children := make(map[uuid.UUID][]*entities.Timeline)
	for _, t := range s.timelines {
		if t.ParentID != nil && t.CollectionID == req.CollectionID {
			children[*t.ParentID] = append(children[*t.ParentID], t)
		}
	}

	var rows []*entities.Timeline
	visited := map[uuid.UUID]bool{anchor.ID: true}
	queue := []*entities.Timeline{anchor}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t.ID != anchor.ID && t.Interval().Overlaps(req.Window) && t.Span().GreaterThanOrEqual(req.MinSpan) {
			rows = append(rows, copyTimeline(t))
		}
		for _, c := range children[t.ID] {
			if !visited[c.ID] {
				visited[c.ID] = true
				queue = append(queue, c)
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Span().Cmp(rows[j].Span()); c != 0 {
			return c > 0
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	rows = append([]*entities.Timeline{copyTimeline(anchor)}, rows...)
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	return rows, nil
}

// Exhibits

type exhibitRepo struct{ s *Store }

func (r exhibitRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Exhibit, error) {
	if err := r.s.enter("exhibits.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.exhibits[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("exhibit " + id.String())
	}
	c := *e
	return &c, nil
}

func (r exhibitRepo) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Exhibit, error) {
	if err := r.s.enter("exhibits.GetByTitle"); err != nil {
		return nil, err
	}
	matches := r.s.selectExhibits(func(e *entities.Exhibit) bool {
		return e.CollectionID == collectionID && e.Title == title
	})
	if len(matches) == 0 {
		return nil, pkgerrors.NewNotFoundError("exhibit titled " + title)
	}
	return matches[0], nil
}

func (r exhibitRepo) ListByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*entities.Exhibit, error) {
	if err := r.s.enter("exhibits.ListByTimeline"); err != nil {
		return nil, err
	}
	return r.s.selectExhibits(func(e *entities.Exhibit) bool { return e.TimelineID == timelineID }), nil
}

func (r exhibitRepo) ListByTimelines(ctx context.Context, timelineIDs []uuid.UUID, limit int) ([]*entities.Exhibit, error) {
	if err := r.s.enter("exhibits.ListByTimelines"); err != nil {
		return nil, err
	}
	if err := valueobjects.ValidateIDs(timelineIDs); err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(timelineIDs))
	for _, id := range timelineIDs {
		set[id] = struct{}{}
	}
	out := r.s.selectExhibits(func(e *entities.Exhibit) bool {
		_, ok := set[e.TimelineID]
		return ok
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r exhibitRepo) Save(ctx context.Context, exhibit *entities.Exhibit) error {
	if err := r.s.enter("exhibits.Save"); err != nil {
		return err
	}
	if err := exhibit.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *exhibit
	r.s.exhibits[exhibit.ID] = &c
	return nil
}

func (r exhibitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.s.enter("exhibits.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.exhibits[id]; !ok {
		return pkgerrors.NewNotFoundError("exhibit " + id.String())
	}
	delete(r.s.exhibits, id)
	return nil
}

func (s *Store) selectExhibits(keep func(*entities.Exhibit) bool) []*entities.Exhibit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.Exhibit, 0)
	for _, e := range s.exhibits {
		if keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Year.Cmp(out[j].Year); c != 0 {
			return c < 0
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Content items

type contentItemRepo struct{ s *Store }

func (r contentItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.ContentItem, error) {
	if err := r.s.enter("contentItems.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contentItems[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("content item " + id.String())
	}
	cp := *c
	return &cp, nil
}

func (r contentItemRepo) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.ContentItem, error) {
	if err := r.s.enter("contentItems.GetByTitle"); err != nil {
		return nil, err
	}
	matches := r.s.selectContentItems(func(c *entities.ContentItem) bool {
		return c.CollectionID == collectionID && c.Title == title
	})
	if len(matches) == 0 {
		return nil, pkgerrors.NewNotFoundError("content item titled " + title)
	}
	return matches[0], nil
}

func (r contentItemRepo) ListByExhibit(ctx context.Context, exhibitID uuid.UUID) ([]*entities.ContentItem, error) {
	if err := r.s.enter("contentItems.ListByExhibit"); err != nil {
		return nil, err
	}
	return r.s.selectContentItems(func(c *entities.ContentItem) bool { return c.ExhibitID == exhibitID }), nil
}

func (r contentItemRepo) ListByExhibits(ctx context.Context, exhibitIDs []uuid.UUID) ([]*entities.ContentItem, error) {
	if err := r.s.enter("contentItems.ListByExhibits"); err != nil {
		return nil, err
	}
	if err := valueobjects.ValidateIDs(exhibitIDs); err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(exhibitIDs))
	for _, id := range exhibitIDs {
		set[id] = struct{}{}
	}
	return r.s.selectContentItems(func(c *entities.ContentItem) bool {
		_, ok := set[c.ExhibitID]
		return ok
	}), nil
}

// Save assigns the arrival sequence on first insert
func (r contentItemRepo) Save(ctx context.Context, item *entities.ContentItem) error {
	if err := r.s.enter("contentItems.Save"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *item
	if existing, ok := r.s.contentItems[item.ID]; ok {
		c.Seq = existing.Seq
	} else {
		r.s.seq++
		c.Seq = r.s.seq
	}
	r.s.contentItems[item.ID] = &c
	return nil
}

func (r contentItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.s.enter("contentItems.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contentItems[id]; !ok {
		return pkgerrors.NewNotFoundError("content item " + id.String())
	}
	delete(r.s.contentItems, id)
	return nil
}

func (s *Store) selectContentItems(keep func(*entities.ContentItem) bool) []*entities.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.ContentItem, 0)
	for _, c := range s.contentItems {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ExhibitID != out[j].ExhibitID {
			return out[i].ExhibitID.String() < out[j].ExhibitID.String()
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Bitmasks

type bitmaskRepo struct{ s *Store }

func (r bitmaskRepo) List(ctx context.Context) ([]entities.BitmaskEntry, error) {
	if err := r.s.enter("bitmasks.List"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entities.BitmaskEntry, 0, len(r.s.bitmasks))
	for _, b := range r.s.bitmasks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (r bitmaskRepo) SaveAll(ctx context.Context, entries []entities.BitmaskEntry) error {
	if err := r.s.enter("bitmasks.SaveAll"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range entries {
		r.s.bitmasks[b.Level] = b
	}
	return nil
}

// Triples

type tripleRepo struct{ s *Store }

func (r tripleRepo) FindByObject(ctx context.Context, object string) ([]entities.Triple, error) {
	if err := r.s.enter("triples.FindByObject"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entities.Triple
	for _, t := range r.s.triples {
		if t.Object == object {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r tripleRepo) Save(ctx context.Context, triple entities.Triple) error {
	if err := r.s.enter("triples.Save"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.triples = append(r.s.triples, triple)
	return nil
}

// Collections

type collectionRepo struct{ s *Store }

func (r collectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Collection, error) {
	if err := r.s.enter("collections.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.collections[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("collection " + id.String())
	}
	cp := *c
	return &cp, nil
}

func (r collectionRepo) GetTour(ctx context.Context, id uuid.UUID) (*entities.Tour, error) {
	if err := r.s.enter("collections.GetTour"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tours[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("tour " + id.String())
	}
	cp := *t
	return &cp, nil
}

func (r collectionRepo) Save(ctx context.Context, collection *entities.Collection) error {
	if err := r.s.enter("collections.Save"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *collection
	r.s.collections[collection.ID] = &cp
	return nil
}

func (r collectionRepo) SaveTour(ctx context.Context, tour *entities.Tour) error {
	if err := r.s.enter("collections.SaveTour"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *tour
	r.s.tours[tour.ID] = &cp
	return nil
}
