package entities

import (
	"sort"

	"github.com/google/uuid"

	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// ContentItem is an ordered media entry of an exhibit.
// Seq records arrival order and breaks ties between equal Order keys.
type ContentItem struct {
	ID           uuid.UUID `json:"id"`
	ExhibitID    uuid.UUID `json:"exhibitId"`
	CollectionID uuid.UUID `json:"collectionId"`
	Title        string    `json:"title"`
	Order        int       `json:"order"`
	Seq          int64     `json:"-"`
	URI          string    `json:"uri,omitempty"`
	MediaType    string    `json:"mediaType,omitempty"`
}

// NewContentItem creates a content item attached to exhibit.
func NewContentItem(id uuid.UUID, exhibit *Exhibit, title string, order int) (*ContentItem, error) {
	if exhibit == nil {
		return nil, pkgerrors.NewValidationError("content item requires an owning exhibit")
	}
	c := &ContentItem{
		ID:           id,
		ExhibitID:    exhibit.ID,
		CollectionID: exhibit.CollectionID,
		Title:        title,
		Order:        order,
	}
	if c.ID == uuid.Nil {
		return nil, pkgerrors.NewValidationError("content item id cannot be empty")
	}
	return c, nil
}

// SortContentItems orders items by Order ascending, then arrival.
func SortContentItems(items []*ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Seq < items[j].Seq
	})
}
