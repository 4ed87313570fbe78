package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/services"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/aggregates"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
)

const (
	subtreeSourceProcedure = "procedure"
	subtreeSourceScan      = "scan"
)

// TimelineSubtreeHandler serves the subtree query from the store's procedure
// when it has one, otherwise from a full scan of the collection
type TimelineSubtreeHandler struct {
	store     ports.Store
	filler    *services.RelationFiller
	domainCfg *config.DomainConfig
	logger    *zap.Logger
}

// NewTimelineSubtreeHandler creates a new subtree query handler
func NewTimelineSubtreeHandler(store ports.Store, filler *services.RelationFiller, domainCfg *config.DomainConfig, logger *zap.Logger) *TimelineSubtreeHandler {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &TimelineSubtreeHandler{store: store, filler: filler, domainCfg: domainCfg, logger: logger}
}

// Handle executes the subtree query
func (h *TimelineSubtreeHandler) Handle(ctx context.Context, query queries.TimelineSubtreeQuery) (*queries.TimelinesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	collectionID, err := valueobjects.ParseID(query.CollectionID)
	if err != nil {
		return nil, err
	}
	lca, err := valueobjects.ParseOptionalID(query.LeastCommonAncestor)
	if err != nil {
		return nil, err
	}
	limit := h.domainCfg.ClampMaxElements(query.MaxElements)

	req := ports.SubtreeRequest{
		CollectionID:        collectionID,
		LeastCommonAncestor: lca,
		Window:              valueobjects.Interval{From: query.Start, To: query.End},
		MinSpan:             query.MinSpan,
		Limit:               limit,
	}

	var rows []*entities.Timeline
	source := subtreeSourceScan
	if proc, ok := h.store.(ports.SubtreeProcedure); ok {
		source = subtreeSourceProcedure
		rows, err = proc.TimelineSubtree(ctx, req)
	} else {
		rows, err = h.scan(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subtree rows: %w", err)
	}

	budget := aggregates.NewBudget(limit)
	forest, err := aggregates.Assemble(rows, lca, budget)
	if err != nil {
		return nil, err
	}
	if err := h.filler.Fill(ctx, forest, budget); err != nil {
		return nil, err
	}

	h.logger.Info("Timeline subtree served",
		zap.String("collectionID", collectionID.String()),
		zap.String("source", source),
		zap.Int("timelines", forest.Len()),
		zap.Int("consumed", budget.Consumed()))

	return &queries.TimelinesResult{
		Timelines: forest.Tree(),
		Consumed:  budget.Consumed(),
		Truncated: forest.Rejected() > 0,
		Strategy:  source,
	}, nil
}

// scan evaluates the subtree request over every row of the collection. The
// anchor is the requested ancestor, or the root when it is missing or
// belongs elsewhere; descendants must overlap the window and be at least
// MinSpan wide.
//
// Unlike a bare unfiltered collection scan, the window, MinSpan and limit
// are applied here too, so stores without a SubtreeProcedure return the
// same rows as stores with one.
func (h *TimelineSubtreeHandler) scan(ctx context.Context, req ports.SubtreeRequest) ([]*entities.Timeline, error) {
	all, err := h.store.Timelines().ListByCollection(ctx, req.CollectionID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entities.Timeline, len(all))
	children := make(map[uuid.UUID][]*entities.Timeline)
	var root *entities.Timeline
	for _, t := range all {
		byID[t.ID] = t
		if t.ParentID == nil {
			if root == nil {
				root = t
			}
			continue
		}
		children[*t.ParentID] = append(children[*t.ParentID], t)
	}

	anchor := root
	if req.LeastCommonAncestor != nil {
		if t, ok := byID[*req.LeastCommonAncestor]; ok {
			anchor = t
		}
	}
	if anchor == nil {
		return nil, nil
	}

	var rows []*entities.Timeline
	visited := map[uuid.UUID]bool{anchor.ID: true}
	queue := children[anchor.ID]
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if visited[t.ID] {
			continue
		}
		visited[t.ID] = true
		if t.Interval().Overlaps(req.Window) && t.Span().GreaterThanOrEqual(req.MinSpan) {
			rows = append(rows, t)
		}
		queue = append(queue, children[t.ID]...)
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Span().Cmp(rows[j].Span()); c != 0 {
			return c > 0
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	rows = append([]*entities.Timeline{anchor}, rows...)
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	return rows, nil
}
