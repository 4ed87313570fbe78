package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/aggregates"
)

// RelationFiller attaches exhibits and their content items to an assembled forest
type RelationFiller struct {
	exhibits     ports.ExhibitRepository
	contentItems ports.ContentItemRepository
	logger       *zap.Logger
}

// NewRelationFiller creates a new relation filler
func NewRelationFiller(exhibits ports.ExhibitRepository, contentItems ports.ContentItemRepository, logger *zap.Logger) *RelationFiller {
	return &RelationFiller{
		exhibits:     exhibits,
		contentItems: contentItems,
		logger:       logger,
	}
}

// Fill fetches at most the remaining budget of exhibits for the forest's
// timelines, consuming one unit per attached exhibit, then attaches every
// content item of those exhibits. Content items do not consume budget.
func (f *RelationFiller) Fill(ctx context.Context, forest *aggregates.Forest, budget *aggregates.Budget) error {
	timelineIDs := forest.TimelineIDs()
	if len(timelineIDs) == 0 || budget.Exhausted() {
		return nil
	}

	exhibits, err := f.exhibits.ListByTimelines(ctx, timelineIDs, budget.Limit())
	if err != nil {
		return fmt.Errorf("failed to list exhibits: %w", err)
	}

	skipped := 0
	for _, exhibit := range exhibits {
		if !forest.HasTimeline(exhibit.TimelineID) {
			skipped++
			continue
		}
		if !budget.Consume() {
			break
		}
		forest.AttachExhibit(exhibit)
	}

	exhibitIDs := forest.ExhibitIDs()
	if len(exhibitIDs) == 0 {
		return nil
	}

	items, err := f.contentItems.ListByExhibits(ctx, exhibitIDs)
	if err != nil {
		return fmt.Errorf("failed to list content items: %w", err)
	}
	attached := 0
	for _, item := range items {
		if forest.AttachContentItem(item) {
			attached++
		}
	}

	f.logger.Debug("Filled forest relations",
		zap.Int("timelines", len(timelineIDs)),
		zap.Int("exhibits", forest.ExhibitCount()),
		zap.Int("skippedExhibits", skipped),
		zap.Int("contentItems", attached),
		zap.Int("budgetConsumed", budget.Consumed()),
	)
	return nil
}
