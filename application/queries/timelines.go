package queries

import (
	"github.com/shopspring/decimal"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/aggregates"
	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/utils"
)

// TimelinesQuery is the windowed timeline query issued on every pan and zoom.
// MaxElements 0 selects the configured default, negative is unbounded.
// Depth < 0 means every level below the anchor.
type TimelinesQuery struct {
	CollectionID   string          `json:"collection_id" validate:"required,uuid"`
	Start          decimal.Decimal `json:"start"`
	End            decimal.Decimal `json:"end"`
	MinSpan        decimal.Decimal `json:"min_span"`
	CommonAncestor string          `json:"common_ancestor,omitempty" validate:"omitempty,uuid"`
	MaxElements    int             `json:"max_elements"`
	Depth          int             `json:"depth" validate:"gte=-1"`
}

// Validate validates the TimelinesQuery
func (q TimelinesQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	if q.Start.GreaterThan(q.End) {
		return errors.NewValidationError("start must not be after end")
	}
	if q.MinSpan.IsNegative() {
		return errors.NewValidationError("min_span must not be negative")
	}
	return nil
}

// RetrieveAllTimelinesQuery returns a whole collection without window, depth or cap
type RetrieveAllTimelinesQuery struct {
	CollectionID string `json:"collection_id" validate:"required,uuid"`
}

// Validate validates the RetrieveAllTimelinesQuery
func (q RetrieveAllTimelinesQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// TimelineSubtreeQuery asks for the subtree below a least common ancestor
type TimelineSubtreeQuery struct {
	CollectionID        string          `json:"collection_id" validate:"required,uuid"`
	LeastCommonAncestor string          `json:"least_common_ancestor,omitempty" validate:"omitempty,uuid"`
	Start               decimal.Decimal `json:"start"`
	End                 decimal.Decimal `json:"end"`
	MinSpan             decimal.Decimal `json:"min_span"`
	MaxElements         int             `json:"max_elements"`
}

// Validate validates the TimelineSubtreeQuery
func (q TimelineSubtreeQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	if q.Start.GreaterThan(q.End) {
		return errors.NewValidationError("start must not be after end")
	}
	return nil
}

// TimelinesResult is the assembled forest of a timeline query
type TimelinesResult struct {
	Timelines []*aggregates.TimelineNode `json:"timelines"`
	Consumed  int                        `json:"consumed"`
	Truncated bool                       `json:"truncated"`
	Strategy  string                     `json:"strategy"`
}
