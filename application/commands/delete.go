package commands

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/utils"
)

// DeleteTimelineCommand removes a timeline with every descendant timeline,
// exhibit and content item
type DeleteTimelineCommand struct {
	TimelineID string `json:"timeline_id" validate:"required,uuid"`
}

// Validate validates the command
func (c DeleteTimelineCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteExhibitCommand removes an exhibit and its content items
type DeleteExhibitCommand struct {
	ExhibitID string `json:"exhibit_id" validate:"required,uuid"`
}

// Validate validates the command
func (c DeleteExhibitCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// CascadeResult lists what a cascading delete removed, in deletion order.
// It is returned even when the cascade stops early.
type CascadeResult struct {
	Timelines    []uuid.UUID `json:"timelines"`
	Exhibits     []uuid.UUID `json:"exhibits"`
	ContentItems []uuid.UUID `json:"content_items"`
}

// Total is the number of rows deleted
func (r *CascadeResult) Total() int {
	return len(r.Timelines) + len(r.Exhibits) + len(r.ContentItems)
}

// CascadeError reports a cascade that failed after deleting some rows.
// Unwrap exposes the store error.
type CascadeError struct {
	Result *CascadeResult
	Err    error
}

func (e *CascadeError) Error() string {
	deleted := 0
	if e.Result != nil {
		deleted = e.Result.Total()
	}
	return fmt.Sprintf("cascade delete stopped after %d deletions: %v", deleted, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// PartialDetails lists the rows removed before the cascade stopped
func (e *CascadeError) PartialDetails() map[string]interface{} {
	result := e.Result
	if result == nil {
		result = &CascadeResult{}
	}
	return map[string]interface{}{
		"deleted_timelines":     result.Timelines,
		"deleted_exhibits":      result.Exhibits,
		"deleted_content_items": result.ContentItems,
	}
}
