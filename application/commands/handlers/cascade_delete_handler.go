package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/events"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// CascadeDeleteHandler deletes timelines and exhibits depth first.
// Every row delete is its own store call; a failure part way leaves
// the rows deleted so far gone and reports them in a CascadeError.
type CascadeDeleteHandler struct {
	store     ports.Store
	publisher ports.EventPublisher
	metrics   ports.QueryMetrics
	logger    *zap.Logger
}

// NewCascadeDeleteHandler creates a new cascade delete handler
func NewCascadeDeleteHandler(
	store ports.Store,
	publisher ports.EventPublisher,
	metrics ports.QueryMetrics,
	logger *zap.Logger,
) *CascadeDeleteHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &CascadeDeleteHandler{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleDeleteTimeline executes the delete timeline command
func (h *CascadeDeleteHandler) HandleDeleteTimeline(ctx context.Context, cmd commands.DeleteTimelineCommand) (*commands.CascadeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	id, err := valueobjects.ParseID(cmd.TimelineID)
	if err != nil {
		return nil, err
	}

	timeline, err := h.store.Timelines().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}

	result := &commands.CascadeResult{}
	if err := h.deleteTimeline(ctx, id, make(map[uuid.UUID]bool), result); err != nil {
		return result, h.fail("timeline", id, result, err)
	}
	h.metrics.ObserveCascade("timeline", result.Total(), false)

	event := events.NewTimelineDeleted(id, timeline.CollectionID, result.Timelines,
		len(result.Exhibits), len(result.ContentItems), time.Now())
	h.publish(ctx, event)

	h.logger.Info("Timeline deleted",
		zap.String("timelineID", id.String()),
		zap.Int("timelines", len(result.Timelines)),
		zap.Int("exhibits", len(result.Exhibits)),
		zap.Int("contentItems", len(result.ContentItems)),
	)
	return result, nil
}

// HandleDeleteExhibit executes the delete exhibit command
func (h *CascadeDeleteHandler) HandleDeleteExhibit(ctx context.Context, cmd commands.DeleteExhibitCommand) (*commands.CascadeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	id, err := valueobjects.ParseID(cmd.ExhibitID)
	if err != nil {
		return nil, err
	}

	exhibit, err := h.store.Exhibits().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exhibit: %w", err)
	}

	result := &commands.CascadeResult{}
	if err := h.deleteExhibit(ctx, id, result); err != nil {
		return result, h.fail("exhibit", id, result, err)
	}
	h.metrics.ObserveCascade("exhibit", result.Total(), false)

	event := events.NewExhibitDeleted(id, exhibit.TimelineID, exhibit.CollectionID, len(result.ContentItems), time.Now())
	h.publish(ctx, event)

	h.logger.Info("Exhibit deleted",
		zap.String("exhibitID", id.String()),
		zap.Int("contentItems", len(result.ContentItems)),
	)
	return result, nil
}

func (h *CascadeDeleteHandler) deleteTimeline(ctx context.Context, id uuid.UUID, visited map[uuid.UUID]bool, result *commands.CascadeResult) error {
	if visited[id] {
		return pkgerrors.NewCorruptedStorageError(fmt.Sprintf("timeline %s is its own descendant", id))
	}
	visited[id] = true

	children, err := h.store.Timelines().ListChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", id, err)
	}
	for _, child := range children {
		if err := h.deleteTimeline(ctx, child.ID, visited, result); err != nil {
			return err
		}
	}

	exhibits, err := h.store.Exhibits().ListByTimeline(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list exhibits of %s: %w", id, err)
	}
	for _, exhibit := range exhibits {
		if err := h.deleteExhibit(ctx, exhibit.ID, result); err != nil {
			return err
		}
	}

	if err := h.store.Timelines().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete timeline %s: %w", id, err)
	}
	result.Timelines = append(result.Timelines, id)
	return nil
}

func (h *CascadeDeleteHandler) deleteExhibit(ctx context.Context, id uuid.UUID, result *commands.CascadeResult) error {
	items, err := h.store.ContentItems().ListByExhibit(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list content items of %s: %w", id, err)
	}
	for _, item := range items {
		if err := h.store.ContentItems().Delete(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to delete content item %s: %w", item.ID, err)
		}
		result.ContentItems = append(result.ContentItems, item.ID)
	}

	if err := h.store.Exhibits().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete exhibit %s: %w", id, err)
	}
	result.Exhibits = append(result.Exhibits, id)
	return nil
}

func (h *CascadeDeleteHandler) fail(entity string, id uuid.UUID, result *commands.CascadeResult, err error) error {
	h.metrics.ObserveCascade(entity, result.Total(), true)
	h.logger.Error("Cascade delete stopped part way",
		zap.String("entity", entity),
		zap.String("id", id.String()),
		zap.Int("deleted", result.Total()),
		zap.Error(err),
	)
	return &commands.CascadeError{Result: result, Err: err}
}

func (h *CascadeDeleteHandler) publish(ctx context.Context, event events.DomainEvent) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish deletion event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err))
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveQuery(string, int, bool, time.Duration) {}
func (nopMetrics) ObserveCascade(string, int, bool)             {}
