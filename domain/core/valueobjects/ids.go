package valueobjects

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// ParseID parses a textual identifier, reporting a malformed-id error on failure.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.NewMalformedIDError(s, err)
	}
	return id, nil
}

// ParseOptionalID parses s when it is non-empty.
func ParseOptionalID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := ParseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ValidateIDs rejects nil identifiers in a set handed to the store.
func ValidateIDs(ids []uuid.UUID) error {
	for i, id := range ids {
		if id == uuid.Nil {
			return errors.NewMalformedIDError(fmt.Sprintf("ids[%d]", i), fmt.Errorf("nil uuid"))
		}
	}
	return nil
}

// UniqueIDs returns ids without duplicates, keeping first-seen order.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
