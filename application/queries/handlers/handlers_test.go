package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/services"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/strategies"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/aggregates"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/memory"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) ObserveQuery(strategy string, rows int, truncated bool, duration time.Duration) {
	m.Called(strategy, rows, truncated, duration)
}

func (m *mockMetrics) ObserveCascade(entity string, deleted int, failed bool) {
	m.Called(entity, deleted, failed)
}

// scanOnly hides the store's subtree procedure
type scanOnly struct {
	ports.Store
}

type collection struct {
	store *memory.Store
	id    uuid.UUID
	owner uuid.UUID
	root  *entities.Timeline
	ages  *entities.Timeline
	eras  []*entities.Timeline
	items int
}

// newCollection builds root [0, 1000] -> ages [0, 600] -> five eras of
// width 100, plus one exhibit with one content item per era
func newCollection(t *testing.T) *collection {
	t.Helper()
	ctx := context.Background()
	c := &collection{store: memory.NewStore(), id: uuid.New(), owner: uuid.New()}
	require.NoError(t, c.store.Bitmasks().SaveAll(ctx, entities.BuildBitmaskIndex()))
	require.NoError(t, c.store.Collections().Save(ctx, &entities.Collection{ID: c.id, OwnerID: c.owner}))

	save := func(parent *entities.Timeline, title string, from, to int64) *entities.Timeline {
		tl, err := entities.NewTimeline(uuid.New(), parent, c.id, title, decimal.NewFromInt(from), decimal.NewFromInt(to))
		require.NoError(t, err)
		require.NoError(t, c.store.Timelines().Save(ctx, tl))
		return tl
	}

	c.root = save(nil, "root", 0, 1000)
	c.ages = save(c.root, "ages", 0, 600)
	for i := int64(0); i < 5; i++ {
		era := save(c.ages, "era", i*100, i*100+100)
		c.eras = append(c.eras, era)

		exhibit, err := entities.NewExhibit(uuid.New(), era, "event", decimal.NewFromInt(i*100+50))
		require.NoError(t, err)
		require.NoError(t, c.store.Exhibits().Save(ctx, exhibit))
		item, err := entities.NewContentItem(uuid.New(), exhibit, "image", 0)
		require.NoError(t, err)
		require.NoError(t, c.store.ContentItems().Save(ctx, item))
		c.items++
	}
	return c
}

func (c *collection) timelinesHandler(useRITree bool, metrics ports.QueryMetrics) *TimelinesQueryHandler {
	logger := zap.NewNop()
	selector := strategies.NewSelector(
		strategies.NewNaiveStrategy(c.store.Timelines(), logger),
		strategies.NewBitmaskStrategy(c.store.Timelines(), c.store.Bitmasks(), logger),
		strategies.StaticFlag(useRITree),
	)
	filler := services.NewRelationFiller(c.store.Exhibits(), c.store.ContentItems(), logger)
	return NewTimelinesQueryHandler(selector, filler, metrics, config.DefaultDomainConfig(), logger)
}

func count(nodes []*aggregates.TimelineNode) (timelines, exhibits int) {
	for _, n := range nodes {
		timelines++
		exhibits += len(n.Exhibits)
		t, e := count(n.Timelines)
		timelines += t
		exhibits += e
	}
	return timelines, exhibits
}

func TestTimelinesQueryHandler_Handle(t *testing.T) {
	ctx := context.Background()
	c := newCollection(t)

	for _, useRITree := range []bool{false, true} {
		metrics := new(mockMetrics)
		handler := c.timelinesHandler(useRITree, metrics)
		metrics.On("ObserveQuery", mock.AnythingOfType("string"), 6, false, mock.AnythingOfType("time.Duration")).Return()

		result, err := handler.Handle(ctx, queries.TimelinesQuery{
			CollectionID: c.id.String(),
			Start:        decimal.NewFromInt(150),
			End:          decimal.NewFromInt(250),
			MaxElements:  -1,
			Depth:        -1,
		})
		require.NoError(t, err)

		// root, ages and the two eras overlapping [150, 250]
		timelines, exhibits := count(result.Timelines)
		require.Len(t, result.Timelines, 1)
		assert.Equal(t, c.root.ID, result.Timelines[0].ID)
		assert.Equal(t, 4, timelines)
		assert.Equal(t, 2, exhibits)
		assert.Equal(t, 6, result.Consumed)
		assert.False(t, result.Truncated)
		metrics.AssertExpectations(t)
	}
}

func TestTimelinesQueryHandler_BudgetSharedWithExhibits(t *testing.T) {
	c := newCollection(t)
	handler := c.timelinesHandler(false, nil)

	result, err := handler.Handle(context.Background(), queries.TimelinesQuery{
		CollectionID: c.id.String(),
		Start:        decimal.NewFromInt(0),
		End:          decimal.NewFromInt(1000),
		MaxElements:  8,
		Depth:        -1,
	})
	require.NoError(t, err)

	timelines, exhibits := count(result.Timelines)
	assert.Equal(t, 7, timelines)
	assert.Equal(t, 1, exhibits)
	assert.Equal(t, 8, result.Consumed)
	assert.Equal(t, strategies.NameNaive, result.Strategy)
}

func TestTimelinesQueryHandler_CommonAncestorRoot(t *testing.T) {
	c := newCollection(t)
	handler := c.timelinesHandler(true, nil)

	result, err := handler.Handle(context.Background(), queries.TimelinesQuery{
		CollectionID:   c.id.String(),
		Start:          decimal.NewFromInt(0),
		End:            decimal.NewFromInt(1000),
		MinSpan:        decimal.NewFromInt(200),
		CommonAncestor: c.ages.ID.String(),
		MaxElements:    -1,
		Depth:          -1,
	})
	require.NoError(t, err)

	require.Len(t, result.Timelines, 1)
	assert.Equal(t, c.ages.ID, result.Timelines[0].ID)
	assert.Empty(t, result.Timelines[0].Timelines)
	assert.Equal(t, strategies.NameBitmask, result.Strategy)
}

func TestTimelinesQueryHandler_Invalid(t *testing.T) {
	handler := newCollection(t).timelinesHandler(false, nil)

	_, err := handler.Handle(context.Background(), queries.TimelinesQuery{
		CollectionID: uuid.NewString(),
		Start:        decimal.NewFromInt(10),
		End:          decimal.NewFromInt(0),
	})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = handler.Handle(context.Background(), queries.TimelinesQuery{CollectionID: "nope"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestTimelinesQueryHandler_RetrieveAll(t *testing.T) {
	c := newCollection(t)
	handler := c.timelinesHandler(true, nil)

	result, err := handler.HandleRetrieveAll(context.Background(), queries.RetrieveAllTimelinesQuery{CollectionID: c.id.String()})
	require.NoError(t, err)

	timelines, exhibits := count(result.Timelines)
	assert.Equal(t, 7, timelines)
	assert.Equal(t, 5, exhibits)
	assert.False(t, result.Truncated)
}

func TestTimelineSubtreeHandler_ProcedureMatchesScan(t *testing.T) {
	ctx := context.Background()
	c := newCollection(t)
	filler := services.NewRelationFiller(c.store.Exhibits(), c.store.ContentItems(), zap.NewNop())

	query := queries.TimelineSubtreeQuery{
		CollectionID:        c.id.String(),
		LeastCommonAncestor: c.ages.ID.String(),
		Start:               decimal.NewFromInt(120),
		End:                 decimal.NewFromInt(330),
		MaxElements:         -1,
	}

	viaProcedure, err := NewTimelineSubtreeHandler(c.store, filler, nil, zap.NewNop()).Handle(ctx, query)
	require.NoError(t, err)
	viaScan, err := NewTimelineSubtreeHandler(scanOnly{c.store}, filler, nil, zap.NewNop()).Handle(ctx, query)
	require.NoError(t, err)

	assert.Equal(t, subtreeSourceProcedure, viaProcedure.Strategy)
	assert.Equal(t, subtreeSourceScan, viaScan.Strategy)
	assert.Equal(t, viaProcedure.Consumed, viaScan.Consumed)

	require.Len(t, viaScan.Timelines, 1)
	assert.Equal(t, c.ages.ID, viaScan.Timelines[0].ID)
	// eras 1, 2 and 3 overlap [120, 330]
	assert.Len(t, viaScan.Timelines[0].Timelines, 3)
	assert.Len(t, viaProcedure.Timelines[0].Timelines, 3)
}

func TestTimelineSubtreeHandler_Limit(t *testing.T) {
	c := newCollection(t)
	filler := services.NewRelationFiller(c.store.Exhibits(), c.store.ContentItems(), zap.NewNop())

	result, err := NewTimelineSubtreeHandler(scanOnly{c.store}, filler, nil, zap.NewNop()).Handle(context.Background(), queries.TimelineSubtreeQuery{
		CollectionID: c.id.String(),
		Start:        decimal.NewFromInt(0),
		End:          decimal.NewFromInt(1000),
		MaxElements:  3,
	})
	require.NoError(t, err)

	timelines, exhibits := count(result.Timelines)
	assert.Equal(t, 3, timelines)
	assert.Equal(t, 0, exhibits)
	assert.Equal(t, c.root.ID, result.Timelines[0].ID)
}

func TestContentPathHandler_Handle(t *testing.T) {
	c := newCollection(t)
	handler := NewContentPathHandler(services.NewPathResolver(c.store, zap.NewNop()), zap.NewNop())

	result, err := handler.Handle(context.Background(), queries.ContentPathQuery{CollectionID: c.id.String(), ID: c.eras[0].ID.String()})
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "/t"+c.root.ID.String()+"/t"+c.ages.ID.String()+"/t"+c.eras[0].ID.String(), result.Path)

	result, err = handler.Handle(context.Background(), queries.ContentPathQuery{CollectionID: c.id.String(), Title: "missing"})
	require.NoError(t, err)
	assert.False(t, result.Found)

	_, err = handler.Handle(context.Background(), queries.ContentPathQuery{CollectionID: c.id.String()})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSubjectOwnerHandler_Handle(t *testing.T) {
	c := newCollection(t)
	handler := NewSubjectOwnerHandler(services.NewOwnershipResolver(c.store, zap.NewNop()), zap.NewNop())

	result, err := handler.Handle(context.Background(), queries.SubjectOwnerQuery{Subject: "timeline:" + c.ages.ID.String()})
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, c.owner, *result.OwnerID)

	result, err = handler.Handle(context.Background(), queries.SubjectOwnerQuery{Subject: "_:orphan"})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.OwnerID)
}
