// Package strategies implements the two interchangeable timeline range
// queries: a window scan over a depth band and the bitmask-indexed
// interval tree query.
package strategies

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

const (
	NameNaive   = "naive"
	NameBitmask = "bitmask"
)

// Request holds the inputs shared by both strategies.
// Limit <= 0 and Depth < 0 mean unbounded.
type Request struct {
	CollectionID   uuid.UUID
	Window         valueobjects.Interval
	MinSpan        decimal.Decimal
	CommonAncestor *uuid.UUID
	Limit          int
	Depth          int
}

// Result is the ordered, possibly truncated row set of one query.
type Result struct {
	Rows      []*entities.Timeline
	Anchor    *entities.Timeline
	Truncated bool
}

// Consumed is the number of rows the strategy returned.
func (r *Result) Consumed() int {
	return len(r.Rows)
}

// Strategy is a timeline range query.
type Strategy interface {
	Name() string
	Query(ctx context.Context, req Request) (*Result, error)
}

// resolveAnchor returns the common ancestor when it exists in the
// collection, otherwise the collection root. A nil anchor with a nil error
// means the collection has no timelines.
func resolveAnchor(ctx context.Context, repo ports.TimelineRepository, req Request, logger *zap.Logger) (*entities.Timeline, error) {
	if req.CommonAncestor != nil {
		anchor, err := repo.GetByID(ctx, *req.CommonAncestor)
		switch {
		case err == nil && anchor.CollectionID == req.CollectionID:
			return anchor, nil
		case err == nil:
			logger.Warn("Common ancestor belongs to another collection, falling back to root",
				zap.String("commonAncestor", req.CommonAncestor.String()),
				zap.String("collectionID", req.CollectionID.String()))
		case pkgerrors.IsNotFound(err):
			logger.Warn("Common ancestor not found, falling back to root",
				zap.String("commonAncestor", req.CommonAncestor.String()))
		default:
			return nil, err
		}
	}

	root, err := repo.GetRoot(ctx, req.CollectionID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return root, nil
}

// isForced reports whether row is the requested common ancestor.
func isForced(row *entities.Timeline, req Request) bool {
	return req.CommonAncestor != nil && row.ID == *req.CommonAncestor
}

// qualifies is the row predicate both strategies agree on.
func qualifies(row *entities.Timeline, req Request, anchor *entities.Timeline) bool {
	if row.CollectionID != req.CollectionID {
		return false
	}
	if row.Depth < anchor.Depth {
		return false
	}
	if req.Depth >= 0 && row.Depth > anchor.Depth+req.Depth {
		return false
	}
	if !row.Interval().Overlaps(req.Window) {
		return false
	}
	return row.Span().GreaterThanOrEqual(req.MinSpan)
}

// maxDepth converts the relative depth budget into an absolute bound.
func maxDepth(req Request, anchor *entities.Timeline) int {
	if req.Depth < 0 {
		return -1
	}
	return anchor.Depth + req.Depth
}

// bySpan orders wider timelines first, ids breaking ties.
func bySpan(a, b *entities.Timeline) bool {
	if c := a.Span().Cmp(b.Span()); c != 0 {
		return c > 0
	}
	return a.ID.String() < b.ID.String()
}

// truncate applies the result cap.
func truncate(rows []*entities.Timeline, limit int) ([]*entities.Timeline, bool) {
	if limit > 0 && len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// rankSort sorts rows by rank first and span second.
func rankSort(rows []*entities.Timeline, rank func(*entities.Timeline) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank(rows[i]), rank(rows[j])
		if ri != rj {
			return ri < rj
		}
		return bySpan(rows[i], rows[j])
	})
}
