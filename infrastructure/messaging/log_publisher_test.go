package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/events"
)

func TestLogPublisher_PublishBatch(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewLogPublisher(zap.New(core))

	timelineID := uuid.New()
	exhibitID := uuid.New()
	now := time.Now()

	err := publisher.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewTimelineDeleted(timelineID, uuid.New(), []uuid.UUID{timelineID}, 0, 0, now),
		events.NewExhibitDeleted(exhibitID, timelineID, uuid.New(), 2, now),
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, events.EventTypeTimelineDeleted, entries[0].ContextMap()["event_type"])
	assert.Equal(t, exhibitID.String(), entries[1].ContextMap()["aggregate_id"])
}
