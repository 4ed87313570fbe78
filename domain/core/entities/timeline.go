package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// Timeline is a node of the nested interval forest of a collection.
// The fork node is derived from the interval and never stored separately
// on the entity, so it cannot drift from FromYear/ToYear.
type Timeline struct {
	ID           uuid.UUID       `json:"id"`
	ParentID     *uuid.UUID      `json:"parentId,omitempty"`
	CollectionID uuid.UUID       `json:"collectionId"`
	Title        string          `json:"title"`
	FromYear     decimal.Decimal `json:"fromYear"`
	ToYear       decimal.Decimal `json:"toYear"`
	Depth        int             `json:"depth"`
}

// NewTimeline creates a validated timeline. A nil parent makes it a root at depth 0.
func NewTimeline(id uuid.UUID, parent *Timeline, collectionID uuid.UUID, title string, from, to decimal.Decimal) (*Timeline, error) {
	t := &Timeline{
		ID:           id,
		CollectionID: collectionID,
		Title:        title,
		FromYear:     from,
		ToYear:       to,
	}
	if parent != nil {
		if parent.CollectionID != collectionID {
			return nil, pkgerrors.NewValidationError("parent timeline belongs to another collection")
		}
		pid := parent.ID
		t.ParentID = &pid
		t.Depth = parent.Depth + 1
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the entity invariants that do not need the parent row.
func (t *Timeline) Validate() error {
	if t.ID == uuid.Nil {
		return pkgerrors.NewValidationError("timeline id cannot be empty")
	}
	if t.CollectionID == uuid.Nil {
		return pkgerrors.NewValidationError("timeline collection id cannot be empty")
	}
	if t.ParentID != nil && *t.ParentID == t.ID {
		return pkgerrors.NewValidationError("timeline cannot be its own parent")
	}
	if t.Depth < 0 {
		return pkgerrors.NewValidationError("timeline depth cannot be negative")
	}
	if (t.ParentID == nil) != (t.Depth == 0) {
		return pkgerrors.NewValidationError("only root timelines have depth 0")
	}

	interval, err := valueobjects.NewInterval(t.FromYear, t.ToYear)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	if !interval.InRange() {
		return pkgerrors.NewValidationError(fmt.Sprintf("timeline interval %s is outside the supported year range", interval))
	}
	return nil
}

// Interval returns the timeline's year range.
func (t *Timeline) Interval() valueobjects.Interval {
	return valueobjects.Interval{From: t.FromYear, To: t.ToYear}
}

// Span is ToYear - FromYear.
func (t *Timeline) Span() decimal.Decimal {
	return t.ToYear.Sub(t.FromYear)
}

// ForkNode is the interval tree node the timeline is registered at.
func (t *Timeline) ForkNode() uint64 {
	return valueobjects.IntervalForkNode(t.FromYear, t.ToYear)
}

// IsRoot reports whether the timeline has no parent.
func (t *Timeline) IsRoot() bool {
	return t.ParentID == nil
}

// HasParent reports whether id is the timeline's parent.
func (t *Timeline) HasParent(id uuid.UUID) bool {
	return t.ParentID != nil && *t.ParentID == id
}
