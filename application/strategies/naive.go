package strategies

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
)

// NaiveStrategy scans the depth band below the anchor for rows overlapping
// the window.
type NaiveStrategy struct {
	timelines ports.TimelineRepository
	logger    *zap.Logger
}

// NewNaiveStrategy creates the window scan strategy
func NewNaiveStrategy(timelines ports.TimelineRepository, logger *zap.Logger) *NaiveStrategy {
	return &NaiveStrategy{timelines: timelines, logger: logger}
}

func (s *NaiveStrategy) Name() string { return NameNaive }

// Query returns the anchor first, then its direct children, then the rest
// by descending span.
func (s *NaiveStrategy) Query(ctx context.Context, req Request) (*Result, error) {
	anchor, err := resolveAnchor(ctx, s.timelines, req, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anchor: %w", err)
	}
	if anchor == nil {
		return &Result{}, nil
	}

	candidates, err := s.timelines.FindInWindow(ctx, ports.TimelineFilter{
		CollectionID: req.CollectionID,
		MinDepth:     anchor.Depth,
		MaxDepth:     maxDepth(req, anchor),
		Window:       req.Window,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan window: %w", err)
	}

	rows := make([]*entities.Timeline, 0, len(candidates)+1)
	forced := false
	for _, row := range candidates {
		if isForced(row, req) {
			forced = true
			rows = append(rows, row)
			continue
		}
		if qualifies(row, req, anchor) {
			rows = append(rows, row)
		}
	}
	if !forced && isForced(anchor, req) {
		rows = append(rows, anchor)
	}

	rankSort(rows, func(t *entities.Timeline) int {
		switch {
		case t.ID == anchor.ID:
			return 0
		case t.HasParent(anchor.ID):
			return 1
		default:
			return 2
		}
	})

	result := &Result{Anchor: anchor}
	result.Rows, result.Truncated = truncate(rows, req.Limit)

	s.logger.Debug("Naive timeline query",
		zap.String("collectionID", req.CollectionID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("rows", len(result.Rows)),
		zap.Bool("truncated", result.Truncated))
	return result, nil
}
