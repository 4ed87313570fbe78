package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/services"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/strategies"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/aggregates"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
)

// TimelinesQueryHandler runs a range strategy, assembles the rows and
// fills in exhibits under one shared budget
type TimelinesQueryHandler struct {
	selector  *strategies.Selector
	filler    *services.RelationFiller
	metrics   ports.QueryMetrics
	domainCfg *config.DomainConfig
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewTimelinesQueryHandler creates a new timelines query handler
func NewTimelinesQueryHandler(
	selector *strategies.Selector,
	filler *services.RelationFiller,
	metrics ports.QueryMetrics,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *TimelinesQueryHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &TimelinesQueryHandler{
		selector:  selector,
		filler:    filler,
		metrics:   metrics,
		domainCfg: domainCfg,
		tracer:    otel.Tracer("chronozoom/queries"),
		logger:    logger,
	}
}

// Handle executes the windowed timelines query
func (h *TimelinesQueryHandler) Handle(ctx context.Context, query queries.TimelinesQuery) (*queries.TimelinesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	collectionID, err := valueobjects.ParseID(query.CollectionID)
	if err != nil {
		return nil, err
	}
	commonAncestor, err := valueobjects.ParseOptionalID(query.CommonAncestor)
	if err != nil {
		return nil, err
	}

	return h.run(ctx, strategies.Request{
		CollectionID:   collectionID,
		Window:         valueobjects.Interval{From: query.Start, To: query.End},
		MinSpan:        query.MinSpan,
		CommonAncestor: commonAncestor,
		Limit:          h.domainCfg.ClampMaxElements(query.MaxElements),
		Depth:          query.Depth,
	})
}

// HandleRetrieveAll returns the whole collection: unbounded window, depth and cap
func (h *TimelinesQueryHandler) HandleRetrieveAll(ctx context.Context, query queries.RetrieveAllTimelinesQuery) (*queries.TimelinesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	collectionID, err := valueobjects.ParseID(query.CollectionID)
	if err != nil {
		return nil, err
	}

	return h.run(ctx, strategies.Request{
		CollectionID: collectionID,
		Window:       valueobjects.UnboundedInterval(),
		MinSpan:      decimal.Zero,
		Limit:        0,
		Depth:        -1,
	})
}

func (h *TimelinesQueryHandler) run(ctx context.Context, req strategies.Request) (*queries.TimelinesResult, error) {
	strategy := h.selector.Select()

	ctx, span := h.tracer.Start(ctx, "timelines.query", trace.WithAttributes(
		attribute.String("collection.id", req.CollectionID.String()),
		attribute.String("strategy", strategy.Name()),
		attribute.Int("limit", req.Limit),
		attribute.Int("depth", req.Depth),
	))
	defer span.End()

	start := time.Now()
	result, err := h.execute(ctx, strategy, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("Timeline query failed",
			zap.String("collectionID", req.CollectionID.String()),
			zap.String("strategy", strategy.Name()),
			zap.Error(err))
		return nil, err
	}

	h.metrics.ObserveQuery(strategy.Name(), result.Consumed, result.Truncated, time.Since(start))
	span.SetAttributes(attribute.Int("consumed", result.Consumed), attribute.Bool("truncated", result.Truncated))
	return result, nil
}

func (h *TimelinesQueryHandler) execute(ctx context.Context, strategy strategies.Strategy, req strategies.Request) (*queries.TimelinesResult, error) {
	rows, err := strategy.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s strategy failed: %w", strategy.Name(), err)
	}

	budget := aggregates.NewBudget(req.Limit)
	forest, err := aggregates.Assemble(rows.Rows, req.CommonAncestor, budget)
	if err != nil {
		return nil, err
	}
	if err := h.filler.Fill(ctx, forest, budget); err != nil {
		return nil, err
	}

	h.logger.Info("Timeline query served",
		zap.String("collectionID", req.CollectionID.String()),
		zap.String("strategy", strategy.Name()),
		zap.Int("timelines", forest.Len()),
		zap.Int("exhibits", forest.ExhibitCount()),
		zap.Int("consumed", budget.Consumed()))

	return &queries.TimelinesResult{
		Timelines: forest.Tree(),
		Consumed:  budget.Consumed(),
		Truncated: rows.Truncated || forest.Rejected() > 0,
		Strategy:  strategy.Name(),
	}, nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveQuery(string, int, bool, time.Duration) {}
func (nopMetrics) ObserveCascade(string, int, bool)             {}
