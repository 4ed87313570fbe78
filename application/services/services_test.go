package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/aggregates"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/memory"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

type seeded struct {
	store      *memory.Store
	collection *entities.Collection
	owner      uuid.UUID
	root       *entities.Timeline
	child      *entities.Timeline
	exhibit    *entities.Exhibit
	item       *entities.ContentItem
}

func seed(t *testing.T) *seeded {
	t.Helper()
	ctx := context.Background()
	s := &seeded{store: memory.NewStore(), owner: uuid.New()}
	s.collection = &entities.Collection{ID: uuid.New(), OwnerID: s.owner, Title: "Cosmos"}
	require.NoError(t, s.store.Collections().Save(ctx, s.collection))

	var err error
	s.root, err = entities.NewTimeline(uuid.New(), nil, s.collection.ID, "Cosmos", decimal.NewFromInt(-13700000000), decimal.NewFromInt(2024))
	require.NoError(t, err)
	s.child, err = entities.NewTimeline(uuid.New(), s.root, s.collection.ID, "Humanity", decimal.NewFromInt(-200000), decimal.NewFromInt(2024))
	require.NoError(t, err)
	require.NoError(t, s.store.Timelines().Save(ctx, s.root))
	require.NoError(t, s.store.Timelines().Save(ctx, s.child))

	s.exhibit, err = entities.NewExhibit(uuid.New(), s.child, "Moon landing", decimal.NewFromInt(1969))
	require.NoError(t, err)
	require.NoError(t, s.store.Exhibits().Save(ctx, s.exhibit))

	s.item, err = entities.NewContentItem(uuid.New(), s.exhibit, "Footage", 1)
	require.NoError(t, err)
	require.NoError(t, s.store.ContentItems().Save(ctx, s.item))
	return s
}

func TestPathResolver_ContentPath(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	resolver := NewPathResolver(s.store, zap.NewNop())

	base := "/t" + s.root.ID.String() + "/t" + s.child.ID.String()
	tests := []struct {
		name  string
		id    *uuid.UUID
		title string
		want  string
	}{
		{name: "content item by id", id: &s.item.ID, want: base + "/e" + s.exhibit.ID.String() + "/" + s.item.ID.String()},
		{name: "content item by title", title: "Footage", want: base + "/e" + s.exhibit.ID.String() + "/" + s.item.ID.String()},
		{name: "exhibit by id", id: &s.exhibit.ID, want: base + "/e" + s.exhibit.ID.String()},
		{name: "timeline by title", title: "Humanity", want: base},
		{name: "root", id: &s.root.ID, want: "/t" + s.root.ID.String()},
		{name: "unknown title", title: "Dinosaurs", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.ContentPath(ctx, s.collection.ID, tt.id, tt.title)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathResolver_OtherCollectionIsMiss(t *testing.T) {
	s := seed(t)
	got, err := NewPathResolver(s.store, zap.NewNop()).ContentPath(context.Background(), uuid.New(), &s.item.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPathResolver_Errors(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	resolver := NewPathResolver(s.store, zap.NewNop())

	_, err := resolver.ContentPath(ctx, s.collection.ID, nil, "")
	assert.True(t, pkgerrors.IsValidation(err))

	// dangling parent pointer
	require.NoError(t, s.store.Timelines().Delete(ctx, s.root.ID))
	_, err = resolver.ContentPath(ctx, s.collection.ID, &s.exhibit.ID, "")
	assert.True(t, pkgerrors.IsCorruptedStorage(err))

	boom := errors.New("boom")
	s.store.SetFault(func(op string) error { return boom })
	_, err = resolver.ContentPath(ctx, s.collection.ID, &s.exhibit.ID, "")
	assert.ErrorIs(t, err, boom)
}

func TestOwnershipResolver_Owner(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	tour := &entities.Tour{ID: uuid.New(), CollectionID: s.collection.ID, Title: "Highlights"}
	require.NoError(t, s.store.Collections().SaveTour(ctx, tour))

	user := uuid.New()
	resolver := NewOwnershipResolver(s.store, zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  uuid.UUID
	}{
		{name: "timeline", input: "timeline:" + s.child.ID.String(), want: s.owner},
		{name: "exhibit", input: "exhibit:" + s.exhibit.ID.String(), want: s.owner},
		{name: "content item", input: "contentitem:" + s.item.ID.String(), want: s.owner},
		{name: "tour", input: "tour:" + tour.ID.String(), want: s.owner},
		{name: "user", input: "user:" + user.String(), want: user},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := resolver.Owner(ctx, tt.input)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwnershipResolver_BlankNodes(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	triples := s.store.Triples()

	// _:b0 is described by the exhibit; _:b1 and _:b2 only by each other
	require.NoError(t, triples.Save(ctx, entities.Triple{Subject: "exhibit:" + s.exhibit.ID.String(), Predicate: "cz:source", Object: "_:b0"}))
	require.NoError(t, triples.Save(ctx, entities.Triple{Subject: "_:b1", Predicate: "cz:next", Object: "_:b2"}))
	require.NoError(t, triples.Save(ctx, entities.Triple{Subject: "_:b2", Predicate: "cz:next", Object: "_:b1"}))

	resolver := NewOwnershipResolver(s.store, zap.NewNop())

	owner, found, err := resolver.Owner(ctx, "_:b0")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s.owner, owner)

	_, found, err = resolver.Owner(ctx, "_:b1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOwnershipResolver_OwnerVisitedNilSet(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	triples := s.store.Triples()

	require.NoError(t, triples.Save(ctx, entities.Triple{Subject: "_:a", Predicate: "cz:next", Object: "_:b"}))
	require.NoError(t, triples.Save(ctx, entities.Triple{Subject: "timeline:" + s.child.ID.String(), Predicate: "cz:has", Object: "_:a"}))

	resolver := NewOwnershipResolver(s.store, zap.NewNop())

	var owner uuid.UUID
	var found bool
	var err error
	require.NotPanics(t, func() {
		owner, found, err = resolver.OwnerVisited(ctx, "_:b", nil)
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s.owner, owner)
}

func TestOwnershipResolver_Misses(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	resolver := NewOwnershipResolver(s.store, zap.NewNop())

	_, found, err := resolver.Owner(ctx, "timeline:"+uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = resolver.Owner(ctx, "nonsense")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeMalformedID))

	_, _, err = resolver.Owner(ctx, "timeline:xyz")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeMalformedID))
}

func TestRelationFiller_Fill(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	second, err := entities.NewExhibit(uuid.New(), s.root, "Big Bang", decimal.NewFromInt(-13700000000))
	require.NoError(t, err)
	require.NoError(t, s.store.Exhibits().Save(ctx, second))
	later, err := entities.NewContentItem(uuid.New(), s.exhibit, "Transcript", 0)
	require.NoError(t, err)
	require.NoError(t, s.store.ContentItems().Save(ctx, later))

	budget := aggregates.NewBudget(0)
	forest, err := aggregates.Assemble([]*entities.Timeline{s.root, s.child}, nil, budget)
	require.NoError(t, err)

	filler := NewRelationFiller(s.store.Exhibits(), s.store.ContentItems(), zap.NewNop())
	require.NoError(t, filler.Fill(ctx, forest, budget))

	assert.Equal(t, 2, forest.ExhibitCount())
	assert.Equal(t, 4, budget.Consumed())

	view, ok := forest.Exhibit(s.exhibit.ID)
	require.True(t, ok)
	require.Len(t, view.ContentItems, 2)
	assert.Equal(t, later.ID, view.ContentItems[0].ID)
	assert.Equal(t, s.item.ID, view.ContentItems[1].ID)
}

func TestRelationFiller_RespectsBudget(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	second, err := entities.NewExhibit(uuid.New(), s.root, "Big Bang", decimal.NewFromInt(-13700000000))
	require.NoError(t, err)
	require.NoError(t, s.store.Exhibits().Save(ctx, second))

	budget := aggregates.NewBudget(3)
	forest, err := aggregates.Assemble([]*entities.Timeline{s.root, s.child}, nil, budget)
	require.NoError(t, err)

	filler := NewRelationFiller(s.store.Exhibits(), s.store.ContentItems(), zap.NewNop())
	require.NoError(t, filler.Fill(ctx, forest, budget))

	// exhibits come back by year, so the Big Bang wins the last unit
	assert.Equal(t, 1, forest.ExhibitCount())
	_, ok := forest.Exhibit(second.ID)
	assert.True(t, ok)
	assert.True(t, budget.Exhausted())

	// an exhausted budget skips the store entirely
	calls := s.store.Calls("exhibits.ListByTimelines")
	require.NoError(t, filler.Fill(ctx, forest, budget))
	assert.Equal(t, calls, s.store.Calls("exhibits.ListByTimelines"))
}
