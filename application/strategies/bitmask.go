package strategies

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
)

// BitmaskStrategy answers the overlap query from the fork node index.
//
// For biased window bounds [L, U] a timeline overlapping the window is
// registered either at a fork node whose block contains L, at one whose
// block contains U, or at a fork node inside [L, U]. The first two sets are
// the per-level masks of L and U; the third is a range lookup. Every
// candidate is then checked against the exact decimal predicate.
type BitmaskStrategy struct {
	timelines ports.TimelineRepository
	bitmasks  ports.BitmaskRepository
	logger    *zap.Logger

	mu    sync.Mutex
	index entities.BitmaskIndex
}

// NewBitmaskStrategy creates the interval tree strategy
func NewBitmaskStrategy(timelines ports.TimelineRepository, bitmasks ports.BitmaskRepository, logger *zap.Logger) *BitmaskStrategy {
	return &BitmaskStrategy{timelines: timelines, bitmasks: bitmasks, logger: logger}
}

func (s *BitmaskStrategy) Name() string { return NameBitmask }

// Query returns the common ancestor first, then rows by descending span.
func (s *BitmaskStrategy) Query(ctx context.Context, req Request) (*Result, error) {
	index, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	anchor, err := resolveAnchor(ctx, s.timelines, req, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anchor: %w", err)
	}
	if anchor == nil {
		return &Result{}, nil
	}

	lower, upper := req.Window.BiasedBounds()
	boundary := mergeNodes(index.LeftNodes(lower), index.RightNodes(upper))

	edgeRows, err := s.timelines.FindByForkNodes(ctx, req.CollectionID, boundary)
	if err != nil {
		return nil, fmt.Errorf("failed to query boundary fork nodes: %w", err)
	}
	innerRows, err := s.timelines.FindByForkRange(ctx, req.CollectionID, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to query inner fork range: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(edgeRows)+len(innerRows))
	rows := make([]*entities.Timeline, 0, len(edgeRows)+len(innerRows)+1)
	for _, set := range [][]*entities.Timeline{edgeRows, innerRows} {
		for _, row := range set {
			if _, dup := seen[row.ID]; dup {
				continue
			}
			seen[row.ID] = struct{}{}
			if isForced(row, req) || qualifies(row, req, anchor) {
				rows = append(rows, row)
			}
		}
	}
	if _, ok := seen[anchor.ID]; !ok && isForced(anchor, req) {
		rows = append(rows, anchor)
	}

	rankSort(rows, func(t *entities.Timeline) int {
		if isForced(t, req) {
			return 0
		}
		return 1
	})

	result := &Result{Anchor: anchor}
	result.Rows, result.Truncated = truncate(rows, req.Limit)

	s.logger.Debug("Bitmask timeline query",
		zap.String("collectionID", req.CollectionID.String()),
		zap.Uint64("lower", lower),
		zap.Uint64("upper", upper),
		zap.Int("boundaryNodes", len(boundary)),
		zap.Int("candidates", len(edgeRows)+len(innerRows)),
		zap.Int("rows", len(result.Rows)),
		zap.Bool("truncated", result.Truncated))
	return result, nil
}

// loadIndex reads and validates the index once; failures are not cached.
func (s *BitmaskStrategy) loadIndex(ctx context.Context) (entities.BitmaskIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, nil
	}
	entries, err := s.bitmasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bitmask index: %w", err)
	}
	index, err := entities.NewBitmaskIndex(entries)
	if err != nil {
		return nil, err
	}
	s.index = index
	return index, nil
}

func mergeNodes(a, b []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(a)+len(b))
	out := make([]uint64, 0, len(a)+len(b))
	for _, list := range [][]uint64{a, b} {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
