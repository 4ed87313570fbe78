package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	EventTypeTimelineDeleted = "timeline.deleted"
	EventTypeExhibitDeleted  = "exhibit.deleted"
)

// Deletion Events

// TimelineDeleted is raised once a timeline and its whole subtree are gone
type TimelineDeleted struct {
	BaseEvent
	TimelineID          uuid.UUID   `json:"timeline_id"`
	CollectionID        uuid.UUID   `json:"collection_id"`
	DeletedTimelines    []uuid.UUID `json:"deleted_timelines"`
	DeletedExhibits     int         `json:"deleted_exhibits"`
	DeletedContentItems int         `json:"deleted_content_items"`
}

// NewTimelineDeleted creates a TimelineDeleted event
func NewTimelineDeleted(timelineID, collectionID uuid.UUID, timelines []uuid.UUID, exhibits, contentItems int, timestamp time.Time) TimelineDeleted {
	return TimelineDeleted{
		BaseEvent: BaseEvent{
			AggregateID: timelineID.String(),
			EventType:   EventTypeTimelineDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		TimelineID:          timelineID,
		CollectionID:        collectionID,
		DeletedTimelines:    timelines,
		DeletedExhibits:     exhibits,
		DeletedContentItems: contentItems,
	}
}

// ExhibitDeleted is raised when an exhibit and its content items are gone
type ExhibitDeleted struct {
	BaseEvent
	ExhibitID           uuid.UUID `json:"exhibit_id"`
	TimelineID          uuid.UUID `json:"timeline_id"`
	CollectionID        uuid.UUID `json:"collection_id"`
	DeletedContentItems int       `json:"deleted_content_items"`
}

// NewExhibitDeleted creates an ExhibitDeleted event
func NewExhibitDeleted(exhibitID, timelineID, collectionID uuid.UUID, contentItems int, timestamp time.Time) ExhibitDeleted {
	return ExhibitDeleted{
		BaseEvent: BaseEvent{
			AggregateID: exhibitID.String(),
			EventType:   EventTypeExhibitDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		ExhibitID:           exhibitID,
		TimelineID:          timelineID,
		CollectionID:        collectionID,
		DeletedContentItems: contentItems,
	}
}
