package aggregates

import (
	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
)

// TimelineView is a timeline placed in an assembled forest. Children and
// exhibits are held as id lists into the forest's arena.
type TimelineView struct {
	Timeline   *entities.Timeline
	ChildIDs   []uuid.UUID
	ExhibitIDs []uuid.UUID
}

// ExhibitView is an exhibit attached to a forest with its ordered content items.
type ExhibitView struct {
	Exhibit      *entities.Exhibit
	ContentItems []*entities.ContentItem
}

// Forest is the transient result of a timeline query: an arena of views
// keyed by id plus the ordered list of roots. It owns its views; the
// persisted rows are only referenced.
type Forest struct {
	roots     []uuid.UUID
	order     []uuid.UUID
	timelines map[uuid.UUID]*TimelineView
	exhibits  map[uuid.UUID]*ExhibitView
	rejected  int
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{
		timelines: make(map[uuid.UUID]*TimelineView),
		exhibits:  make(map[uuid.UUID]*ExhibitView),
	}
}

// Roots returns the root timeline ids in assembly order.
func (f *Forest) Roots() []uuid.UUID {
	return append([]uuid.UUID(nil), f.roots...)
}

// TimelineIDs returns every timeline id in the forest, in input order.
func (f *Forest) TimelineIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), f.order...)
}

// Timeline returns the view for id.
func (f *Forest) Timeline(id uuid.UUID) (*TimelineView, bool) {
	v, ok := f.timelines[id]
	return v, ok
}

// HasTimeline reports whether id was assembled into the forest.
func (f *Forest) HasTimeline(id uuid.UUID) bool {
	_, ok := f.timelines[id]
	return ok
}

// Exhibit returns the attached exhibit view for id.
func (f *Forest) Exhibit(id uuid.UUID) (*ExhibitView, bool) {
	v, ok := f.exhibits[id]
	return v, ok
}

// ExhibitIDs returns every attached exhibit id, grouped by timeline in
// forest order.
func (f *Forest) ExhibitIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(f.exhibits))
	for _, tid := range f.order {
		ids = append(ids, f.timelines[tid].ExhibitIDs...)
	}
	return ids
}

// Len is the number of timelines in the forest.
func (f *Forest) Len() int {
	return len(f.timelines)
}

// ExhibitCount is the number of attached exhibits.
func (f *Forest) ExhibitCount() int {
	return len(f.exhibits)
}

// Rejected is the number of input rows dropped because the budget ran out.
func (f *Forest) Rejected() int {
	return f.rejected
}

// AttachExhibit adds an exhibit under its owning timeline. It returns false
// when that timeline is not part of the forest or the exhibit is already attached.
func (f *Forest) AttachExhibit(exhibit *entities.Exhibit) bool {
	owner, ok := f.timelines[exhibit.TimelineID]
	if !ok {
		return false
	}
	if _, dup := f.exhibits[exhibit.ID]; dup {
		return false
	}
	f.exhibits[exhibit.ID] = &ExhibitView{Exhibit: exhibit}
	owner.ExhibitIDs = append(owner.ExhibitIDs, exhibit.ID)
	return true
}

// AttachContentItem appends an item to its exhibit. Items for exhibits that
// are not attached are ignored.
func (f *Forest) AttachContentItem(item *entities.ContentItem) bool {
	owner, ok := f.exhibits[item.ExhibitID]
	if !ok {
		return false
	}
	owner.ContentItems = append(owner.ContentItems, item)
	return true
}

// TimelineNode is the nested JSON rendering of a timeline view.
type TimelineNode struct {
	*entities.Timeline
	ForkNode  uint64          `json:"forkNode,string"`
	Timelines []*TimelineNode `json:"timelines,omitempty"`
	Exhibits  []*ExhibitNode  `json:"exhibits,omitempty"`
}

// ExhibitNode is the nested JSON rendering of an exhibit view.
type ExhibitNode struct {
	*entities.Exhibit
	ContentItems []*entities.ContentItem `json:"contentItems,omitempty"`
}

// Tree renders the forest as nested nodes, roots first.
func (f *Forest) Tree() []*TimelineNode {
	out := make([]*TimelineNode, 0, len(f.roots))
	for _, id := range f.roots {
		out = append(out, f.render(id))
	}
	return out
}

func (f *Forest) render(id uuid.UUID) *TimelineNode {
	view := f.timelines[id]
	node := &TimelineNode{Timeline: view.Timeline, ForkNode: view.Timeline.ForkNode()}
	for _, cid := range view.ChildIDs {
		node.Timelines = append(node.Timelines, f.render(cid))
	}
	for _, eid := range view.ExhibitIDs {
		ev := f.exhibits[eid]
		node.Exhibits = append(node.Exhibits, &ExhibitNode{Exhibit: ev.Exhibit, ContentItems: ev.ContentItems})
	}
	return node
}
