package entities

import "github.com/google/uuid"

// Collection groups a timeline forest under a single owning user.
type Collection struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"ownerId"`
	Title   string    `json:"title"`
}

// Tour is a guided walk through a collection.
type Tour struct {
	ID           uuid.UUID `json:"id"`
	CollectionID uuid.UUID `json:"collectionId"`
	Title        string    `json:"title"`
}

// Triple is a subject/predicate/object statement. Blank node subjects are
// resolved by following triples whose object names them.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}
