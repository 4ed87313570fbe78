package aggregates

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

func timeline(parent *entities.Timeline, from, to int64) *entities.Timeline {
	t := &entities.Timeline{
		ID:           uuid.New(),
		CollectionID: uuid.MustParse("00000000-0000-0000-0000-00000000c011"),
		FromYear:     decimal.NewFromInt(from),
		ToYear:       decimal.NewFromInt(to),
	}
	if parent != nil {
		pid := parent.ID
		t.ParentID = &pid
		t.Depth = parent.Depth + 1
	}
	return t
}

func TestAssemble_BuildsTree(t *testing.T) {
	root := timeline(nil, 0, 1000)
	a := timeline(root, 0, 500)
	b := timeline(root, 500, 1000)
	a1 := timeline(a, 100, 200)

	forest, err := Assemble([]*entities.Timeline{root, a, b, a1}, nil, NewBudget(0))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{root.ID}, forest.Roots())
	assert.Equal(t, 4, forest.Len())
	view, ok := forest.Timeline(root.ID)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, view.ChildIDs)

	tree := forest.Tree()
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Timelines, 2)
	assert.Equal(t, a1.ID, tree[0].Timelines[0].Timelines[0].ID)
}

func TestAssemble_CommonAncestorIsRoot(t *testing.T) {
	root := timeline(nil, 0, 1000)
	lca := timeline(root, 0, 500)
	child := timeline(lca, 0, 100)

	forest, err := Assemble([]*entities.Timeline{lca, child, root}, &lca.ID, NewBudget(0))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{lca.ID, root.ID}, forest.Roots())
	view, _ := forest.Timeline(root.ID)
	assert.Empty(t, view.ChildIDs)
}

func TestAssemble_OrphansBecomeRoots(t *testing.T) {
	root := timeline(nil, 0, 1000)
	a := timeline(root, 0, 500)
	a1 := timeline(a, 0, 100)

	forest, err := Assemble([]*entities.Timeline{root, a1}, nil, NewBudget(0))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{root.ID, a1.ID}, forest.Roots())
}

func TestAssemble_Budget(t *testing.T) {
	root := timeline(nil, 0, 1000)
	a := timeline(root, 0, 500)
	b := timeline(root, 500, 1000)

	budget := NewBudget(2)
	forest, err := Assemble([]*entities.Timeline{root, a, b}, nil, budget)
	require.NoError(t, err)

	assert.Equal(t, 2, forest.Len())
	assert.Equal(t, 1, forest.Rejected())
	assert.False(t, forest.HasTimeline(b.ID))
	assert.True(t, budget.Exhausted())
}

func TestAssemble_CorruptedRows(t *testing.T) {
	root := timeline(nil, 0, 1000)

	self := timeline(nil, 0, 10)
	self.ParentID = &self.ID
	self.Depth = 1

	gap := timeline(root, 0, 10)
	gap.Depth = 3

	tests := []struct {
		name string
		rows []*entities.Timeline
	}{
		{name: "duplicate id", rows: []*entities.Timeline{root, root}},
		{name: "self parent", rows: []*entities.Timeline{self}},
		{name: "depth gap", rows: []*entities.Timeline{root, gap}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.rows, nil, NewBudget(0))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCorruptedStorage(err))
		})
	}
}

func TestForest_AttachRelations(t *testing.T) {
	root := timeline(nil, 0, 1000)
	forest, err := Assemble([]*entities.Timeline{root}, nil, NewBudget(0))
	require.NoError(t, err)

	exhibit := &entities.Exhibit{ID: uuid.New(), TimelineID: root.ID, CollectionID: root.CollectionID, Year: decimal.NewFromInt(10)}
	stray := &entities.Exhibit{ID: uuid.New(), TimelineID: uuid.New(), CollectionID: root.CollectionID}

	assert.True(t, forest.AttachExhibit(exhibit))
	assert.False(t, forest.AttachExhibit(exhibit))
	assert.False(t, forest.AttachExhibit(stray))
	assert.Equal(t, []uuid.UUID{exhibit.ID}, forest.ExhibitIDs())

	item := &entities.ContentItem{ID: uuid.New(), ExhibitID: exhibit.ID}
	assert.True(t, forest.AttachContentItem(item))
	assert.False(t, forest.AttachContentItem(&entities.ContentItem{ID: uuid.New(), ExhibitID: stray.ID}))

	data, err := json.Marshal(forest.Tree())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exhibits":[`)
	assert.Contains(t, string(data), `"contentItems":[`)
	assert.Contains(t, string(data), `"forkNode":"`)
}
