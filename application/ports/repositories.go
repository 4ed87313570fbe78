package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/events"
)

// Store is the single collaborator the timeline engine reads from and deletes through.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type Store interface {
	Timelines() TimelineRepository
	Exhibits() ExhibitRepository
	ContentItems() ContentItemRepository
	Bitmasks() BitmaskRepository
	Triples() TripleRepository
	Collections() CollectionRepository
}

// TimelineFilter selects timelines of one collection by depth and window.
// MaxDepth < 0 means no upper depth bound.
type TimelineFilter struct {
	CollectionID uuid.UUID
	MinDepth     int
	MaxDepth     int
	Window       valueobjects.Interval
}

// TimelineRepository defines the interface for timeline persistence.
// Lookups that miss return a NOT_FOUND AppError.
type TimelineRepository interface {
	// GetByID retrieves a timeline by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Timeline, error)

	// GetByTitle retrieves the first timeline of a collection with the given title
	GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Timeline, error)

	// GetRoot retrieves the root timeline of a collection
	GetRoot(ctx context.Context, collectionID uuid.UUID) (*entities.Timeline, error)

	// ListChildren retrieves the direct children of a timeline
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entities.Timeline, error)

	// FindInWindow retrieves timelines in a depth band overlapping a window
	FindInWindow(ctx context.Context, filter TimelineFilter) ([]*entities.Timeline, error)

	// FindByForkNodes retrieves timelines registered at any of the given fork nodes
	FindByForkNodes(ctx context.Context, collectionID uuid.UUID, nodes []uint64) ([]*entities.Timeline, error)

	// FindByForkRange retrieves timelines whose fork node lies in [from, to]
	FindByForkRange(ctx context.Context, collectionID uuid.UUID, from, to uint64) ([]*entities.Timeline, error)

	// ListByCollection retrieves every timeline of a collection
	ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*entities.Timeline, error)

	// Save persists a timeline, indexing it under its fork node
	Save(ctx context.Context, timeline *entities.Timeline) error

	// Delete removes a single timeline row
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExhibitRepository defines the interface for exhibit persistence
type ExhibitRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Exhibit, error)
	GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Exhibit, error)

	// ListByTimeline retrieves exhibits owned directly by a timeline
	ListByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*entities.Exhibit, error)

	// ListByTimelines retrieves at most limit exhibits owned by any of the
	// timelines, ordered by year then id. limit <= 0 means no limit.
	ListByTimelines(ctx context.Context, timelineIDs []uuid.UUID, limit int) ([]*entities.Exhibit, error)

	Save(ctx context.Context, exhibit *entities.Exhibit) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContentItemRepository defines the interface for content item persistence
type ContentItemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.ContentItem, error)
	GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.ContentItem, error)

	// ListByExhibit retrieves the items of one exhibit ordered by order key then arrival
	ListByExhibit(ctx context.Context, exhibitID uuid.UUID) ([]*entities.ContentItem, error)

	// ListByExhibits retrieves the items of every exhibit, same ordering per exhibit
	ListByExhibits(ctx context.Context, exhibitIDs []uuid.UUID) ([]*entities.ContentItem, error)

	Save(ctx context.Context, item *entities.ContentItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BitmaskRepository holds the per-level interval tree masks
type BitmaskRepository interface {
	List(ctx context.Context) ([]entities.BitmaskEntry, error)
	SaveAll(ctx context.Context, entries []entities.BitmaskEntry) error
}

// TripleRepository holds subject/predicate/object statements
type TripleRepository interface {
	// FindByObject retrieves every triple whose object equals the given name
	FindByObject(ctx context.Context, object string) ([]entities.Triple, error)
	Save(ctx context.Context, triple entities.Triple) error
}

// CollectionRepository holds collections and tours
type CollectionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Collection, error)
	GetTour(ctx context.Context, id uuid.UUID) (*entities.Tour, error)
	Save(ctx context.Context, collection *entities.Collection) error
	SaveTour(ctx context.Context, tour *entities.Tour) error
}

// SubtreeRequest parameterises a store-side subtree procedure.
type SubtreeRequest struct {
	CollectionID        uuid.UUID
	LeastCommonAncestor *uuid.UUID
	Window              valueobjects.Interval
	MinSpan             decimal.Decimal
	Limit               int
}

// SubtreeProcedure is implemented by stores that can evaluate the subtree
// query server side. Rows come back least common ancestor first, then by
// descending span, already limited.
type SubtreeProcedure interface {
	TimelineSubtree(ctx context.Context, req SubtreeRequest) ([]*entities.Timeline, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// QueryMetrics records timeline query outcomes
type QueryMetrics interface {
	ObserveQuery(strategy string, rows int, truncated bool, duration time.Duration)
	ObserveCascade(entity string, deleted int, failed bool)
}
