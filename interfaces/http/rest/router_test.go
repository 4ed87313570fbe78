package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/di"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/memory"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/resilience"
)

type fixture struct {
	handler    http.Handler
	mem        *memory.Store
	store      ports.Store
	collection uuid.UUID
	root       *entities.Timeline
	child      *entities.Timeline
	exhibit    *entities.Exhibit
	item       *entities.ContentItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		Environment:    "test",
		StoreBackend:   config.StoreMemory,
		StoreTimeout:   time.Second,
		RetryAttempts:  1,
		RetryInterval:  time.Millisecond,
		BreakerTrips:   100,
		BreakerTimeout: time.Second,
		UseRITree:      true,
		EnableMetrics:  true,
	}
	logger := zap.NewNop()

	mem := memory.NewStore()
	store := resilience.Wrap(mem, resilience.NewExecutor("store", resilience.RetryPolicy{
		Attempts:       cfg.RetryAttempts,
		Interval:       cfg.RetryInterval,
		Timeout:        cfg.StoreTimeout,
		BreakerTrips:   cfg.BreakerTrips,
		BreakerTimeout: cfg.BreakerTimeout,
	}, logger))
	metrics := di.ProvideMetrics()
	publisher := di.ProvideEventPublisher(cfg, aws.Config{}, logger)
	commandBus, err := di.ProvideCommandBus(di.ProvideCascadeDeleteHandler(store, publisher, metrics, logger), logger)
	require.NoError(t, err)
	selector := di.ProvideSelector(store, di.ProvideRuntimeFlags(cfg), logger)
	queryBus, err := di.ProvideQueryBus(store, selector, di.ProvideRelationFiller(store, logger), metrics, di.ProvideDomainConfig(cfg), logger)
	require.NoError(t, err)

	f := &fixture{
		handler:    di.ProvideRouter(cfg, commandBus, queryBus, di.ProvideErrorHandler(cfg, logger), metrics, logger),
		mem:        mem,
		store:      store,
		collection: uuid.New(),
	}

	require.NoError(t, store.Bitmasks().SaveAll(ctx, entities.BuildBitmaskIndex()))
	require.NoError(t, store.Collections().Save(ctx, &entities.Collection{ID: f.collection, OwnerID: uuid.New(), Title: "Cosmos"}))

	f.root, err = entities.NewTimeline(uuid.New(), nil, f.collection, "Cosmos", decimal.NewFromInt(-1000), decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.NoError(t, store.Timelines().Save(ctx, f.root))
	f.child, err = entities.NewTimeline(uuid.New(), f.root, f.collection, "Humanity", decimal.NewFromInt(1900), decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.NoError(t, store.Timelines().Save(ctx, f.child))
	f.exhibit, err = entities.NewExhibit(uuid.New(), f.child, "Moon landing", decimal.NewFromInt(1969))
	require.NoError(t, err)
	require.NoError(t, store.Exhibits().Save(ctx, f.exhibit))
	f.item, err = entities.NewContentItem(uuid.New(), f.exhibit, "Footage", 0)
	require.NoError(t, err)
	require.NoError(t, store.ContentItems().Save(ctx, f.item))

	return f
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

type timelinesResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		ID        uuid.UUID `json:"id"`
		Title     string    `json:"title"`
		ForkNode  string    `json:"forkNode"`
		Timelines []struct {
			ID       uuid.UUID `json:"id"`
			Exhibits []struct {
				ID           uuid.UUID `json:"id"`
				ContentItems []struct {
					ID uuid.UUID `json:"id"`
				} `json:"contentItems"`
			} `json:"exhibits"`
		} `json:"timelines"`
	} `json:"data"`
	Meta struct {
		Consumed  int    `json:"consumed"`
		Truncated bool   `json:"truncated"`
		Strategy  string `json:"strategy"`
	} `json:"meta"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/health")
	rec := f.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chronozoom_http_requests_total")
}

func TestRouter_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route not found")
}

func TestRouter_GetTimelines(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/collections/"+f.collection.String()+"/timelines?start=1950&end=1990")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[timelinesResponse](t, rec)
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, f.root.ID, body.Data[0].ID)
	require.Len(t, body.Data[0].Timelines, 1)
	child := body.Data[0].Timelines[0]
	assert.Equal(t, f.child.ID, child.ID)
	require.Len(t, child.Exhibits, 1)
	require.Len(t, child.Exhibits[0].ContentItems, 1)
	assert.Equal(t, f.item.ID, child.Exhibits[0].ContentItems[0].ID)

	assert.Equal(t, 3, body.Meta.Consumed)
	assert.False(t, body.Meta.Truncated)
	assert.Equal(t, "bitmask", body.Meta.Strategy)
}

func TestRouter_GetTimelines_Budget(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/collections/"+f.collection.String()+"/timelines?maxElements=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[timelinesResponse](t, rec)
	require.Len(t, body.Data, 1)
	assert.Empty(t, body.Data[0].Timelines)
	assert.Equal(t, 1, body.Meta.Consumed)
	assert.True(t, body.Meta.Truncated)
}

func TestRouter_GetTimelines_BadParams(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/collections/" + f.collection.String() + "/timelines"

	tests := []struct {
		name   string
		target string
	}{
		{name: "start", target: base + "?start=soon"},
		{name: "max elements", target: base + "?maxElements=many"},
		{name: "depth", target: base + "?depth=-5"},
		{name: "ancestor", target: base + "?lca=not-a-uuid"},
		{name: "collection", target: "/api/v1/collections/abc/timelines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[map[string]interface{}](t, rec)
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestRouter_GetAllAndSubtree(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/collections/" + f.collection.String()

	rec := f.do(t, http.MethodGet, base+"/timelines/all")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	all := decode[timelinesResponse](t, rec)
	require.Len(t, all.Data, 1)
	assert.Len(t, all.Data[0].Timelines, 1)

	rec = f.do(t, http.MethodGet, base+"/timelines/subtree?lca="+f.child.ID.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	subtree := decode[timelinesResponse](t, rec)
	require.Len(t, subtree.Data, 1)
	assert.Equal(t, f.child.ID, subtree.Data[0].ID)
}

func TestRouter_ContentPath(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/collections/"+f.collection.String()+"/path?title=Footage")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Data struct {
			Path  string `json:"path"`
			Found bool   `json:"found"`
		} `json:"data"`
	}](t, rec)
	assert.True(t, body.Data.Found)
	assert.Equal(t, "/t"+f.root.ID.String()+"/t"+f.child.ID.String()+"/e"+f.exhibit.ID.String()+"/"+f.item.ID.String(), body.Data.Path)
}

func TestRouter_SubjectOwner(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/owner?subject=exhibit:"+f.exhibit.ID.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Data struct {
			Found bool `json:"found"`
		} `json:"data"`
	}](t, rec)
	assert.True(t, body.Data.Found)

	rec = f.do(t, http.MethodGet, "/api/v1/owner?subject=nonsense")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestRouter_DeleteTimeline(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/timelines/"+f.child.ID.String())
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.String())

	_, err := f.store.Timelines().GetByID(context.Background(), f.child.ID)
	assert.Error(t, err)
	_, err = f.store.ContentItems().GetByID(context.Background(), f.item.ID)
	assert.Error(t, err)

	rec = f.do(t, http.MethodDelete, "/api/v1/timelines/"+f.child.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestRouter_DeleteTimeline_PartialFailure(t *testing.T) {
	f := newFixture(t)

	// The child goes first; the root's own delete then fails
	deletes := 0
	f.mem.SetFault(func(op string) error {
		if op == "timelines.Delete" {
			deletes++
			if deletes == 2 {
				return errors.New("connection reset")
			}
		}
		return nil
	})

	rec := f.do(t, http.MethodDelete, "/api/v1/timelines/"+f.root.ID.String())
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	body := decode[struct {
		Error   bool   `json:"error"`
		Type    string `json:"type"`
		Details struct {
			Partial             bool        `json:"partial"`
			DeletedTimelines    []uuid.UUID `json:"deleted_timelines"`
			DeletedExhibits     []uuid.UUID `json:"deleted_exhibits"`
			DeletedContentItems []uuid.UUID `json:"deleted_content_items"`
		} `json:"details"`
	}](t, rec)
	assert.True(t, body.Error)
	assert.Equal(t, "CASCADE_INCOMPLETE", body.Type)
	assert.True(t, body.Details.Partial)
	assert.Equal(t, []uuid.UUID{f.child.ID}, body.Details.DeletedTimelines)
	assert.Equal(t, []uuid.UUID{f.exhibit.ID}, body.Details.DeletedExhibits)
	assert.Equal(t, []uuid.UUID{f.item.ID}, body.Details.DeletedContentItems)

	f.mem.SetFault(nil)
	_, err := f.store.Timelines().GetByID(context.Background(), f.root.ID)
	assert.NoError(t, err)
}

func TestRouter_DeleteExhibit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/exhibits/"+f.exhibit.ID.String())
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/v1/exhibits/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
