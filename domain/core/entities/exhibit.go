package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// Exhibit is a point-in-time entry owned by a timeline.
type Exhibit struct {
	ID           uuid.UUID       `json:"id"`
	TimelineID   uuid.UUID       `json:"timelineId"`
	CollectionID uuid.UUID       `json:"collectionId"`
	Title        string          `json:"title"`
	Year         decimal.Decimal `json:"year"`
}

// NewExhibit creates an exhibit attached to timeline.
func NewExhibit(id uuid.UUID, timeline *Timeline, title string, year decimal.Decimal) (*Exhibit, error) {
	if timeline == nil {
		return nil, pkgerrors.NewValidationError("exhibit requires an owning timeline")
	}
	e := &Exhibit{
		ID:           id,
		TimelineID:   timeline.ID,
		CollectionID: timeline.CollectionID,
		Title:        title,
		Year:         year,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the exhibit's identifiers.
func (e *Exhibit) Validate() error {
	if e.ID == uuid.Nil {
		return pkgerrors.NewValidationError("exhibit id cannot be empty")
	}
	if e.TimelineID == uuid.Nil {
		return pkgerrors.NewValidationError("exhibit timeline id cannot be empty")
	}
	if e.CollectionID == uuid.Nil {
		return pkgerrors.NewValidationError("exhibit collection id cannot be empty")
	}
	return nil
}
