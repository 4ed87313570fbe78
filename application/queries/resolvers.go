package queries

import (
	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/utils"
)

// ContentPathQuery resolves an entity of a collection by id or title
type ContentPathQuery struct {
	CollectionID string `json:"collection_id" validate:"required,uuid"`
	ID           string `json:"id,omitempty" validate:"omitempty,uuid"`
	Title        string `json:"title,omitempty" validate:"max=200"`
}

// Validate validates the ContentPathQuery
func (q ContentPathQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	if q.ID == "" && q.Title == "" {
		return errors.NewValidationError("either id or title is required")
	}
	return nil
}

// ContentPathResult carries the canonical path; Found is false on a miss
type ContentPathResult struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
}

// SubjectOwnerQuery asks which user owns a subject such as "timeline:<id>"
type SubjectOwnerQuery struct {
	Subject string `json:"subject" validate:"required"`
}

// Validate validates the SubjectOwnerQuery
func (q SubjectOwnerQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// SubjectOwnerResult carries the owner; Found is false when none resolves
type SubjectOwnerResult struct {
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
	Found   bool       `json:"found"`
}
