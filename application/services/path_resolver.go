package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// PathResolver builds canonical ancestor paths such as /t<T1>/t<T2>/e<E1>/<C1>
type PathResolver struct {
	store  ports.Store
	logger *zap.Logger
}

// NewPathResolver creates a new path resolver
func NewPathResolver(store ports.Store, logger *zap.Logger) *PathResolver {
	return &PathResolver{store: store, logger: logger}
}

// ContentPath resolves id, or title when id is nil, as a content item, then
// an exhibit, then a timeline of the collection and returns its path from
// the root timeline down. A miss returns "" without error.
func (r *PathResolver) ContentPath(ctx context.Context, collectionID uuid.UUID, id *uuid.UUID, title string) (string, error) {
	if id == nil && title == "" {
		return "", pkgerrors.NewValidationError("either id or title is required")
	}

	item, err := r.findContentItem(ctx, collectionID, id, title)
	if err != nil {
		return "", err
	}
	if item != nil {
		exhibit, err := r.store.Exhibits().GetByID(ctx, item.ExhibitID)
		if err != nil {
			return "", dangling(err, fmt.Sprintf("content item %s references missing exhibit %s", item.ID, item.ExhibitID))
		}
		return r.timelinePath(ctx, exhibit.TimelineID, "/e"+exhibit.ID.String(), "/"+item.ID.String())
	}

	exhibit, err := r.findExhibit(ctx, collectionID, id, title)
	if err != nil {
		return "", err
	}
	if exhibit != nil {
		return r.timelinePath(ctx, exhibit.TimelineID, "/e"+exhibit.ID.String())
	}

	timeline, err := r.findTimeline(ctx, collectionID, id, title)
	if err != nil {
		return "", err
	}
	if timeline != nil {
		return r.timelinePath(ctx, timeline.ID)
	}

	r.logger.Debug("Content path not found",
		zap.String("collectionID", collectionID.String()),
		zap.String("title", title))
	return "", nil
}

// timelinePath walks parent pointers from timelineID to the root. leaf
// segments are appended after the timeline segments in the given order.
func (r *PathResolver) timelinePath(ctx context.Context, timelineID uuid.UUID, leaf ...string) (string, error) {
	var segments []string
	visited := make(map[uuid.UUID]bool)

	next := timelineID
	for {
		if visited[next] {
			return "", pkgerrors.NewCorruptedStorageError(fmt.Sprintf("timeline %s is part of a parent cycle", next))
		}
		visited[next] = true

		timeline, err := r.store.Timelines().GetByID(ctx, next)
		if err != nil {
			return "", dangling(err, fmt.Sprintf("path references missing timeline %s", next))
		}
		segments = append(segments, "/t"+timeline.ID.String())
		if timeline.ParentID == nil {
			break
		}
		next = *timeline.ParentID
	}

	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
	}
	for _, s := range leaf {
		b.WriteString(s)
	}
	return b.String(), nil
}

func (r *PathResolver) findContentItem(ctx context.Context, collectionID uuid.UUID, id *uuid.UUID, title string) (*entities.ContentItem, error) {
	var item *entities.ContentItem
	var err error
	if id != nil {
		item, err = r.store.ContentItems().GetByID(ctx, *id)
	} else {
		item, err = r.store.ContentItems().GetByTitle(ctx, collectionID, title)
	}
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if item.CollectionID != collectionID {
		return nil, nil
	}
	return item, nil
}

func (r *PathResolver) findExhibit(ctx context.Context, collectionID uuid.UUID, id *uuid.UUID, title string) (*entities.Exhibit, error) {
	var exhibit *entities.Exhibit
	var err error
	if id != nil {
		exhibit, err = r.store.Exhibits().GetByID(ctx, *id)
	} else {
		exhibit, err = r.store.Exhibits().GetByTitle(ctx, collectionID, title)
	}
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if exhibit.CollectionID != collectionID {
		return nil, nil
	}
	return exhibit, nil
}

func (r *PathResolver) findTimeline(ctx context.Context, collectionID uuid.UUID, id *uuid.UUID, title string) (*entities.Timeline, error) {
	var timeline *entities.Timeline
	var err error
	if id != nil {
		timeline, err = r.store.Timelines().GetByID(ctx, *id)
	} else {
		timeline, err = r.store.Timelines().GetByTitle(ctx, collectionID, title)
	}
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if timeline.CollectionID != collectionID {
		return nil, nil
	}
	return timeline, nil
}

// ignoreNotFound turns a lookup miss into an absent result.
func ignoreNotFound(err error) error {
	if pkgerrors.IsNotFound(err) {
		return nil
	}
	return err
}

// dangling reports a missing referenced row as corrupted storage and passes
// other failures through unchanged.
func dangling(err error, message string) error {
	if !pkgerrors.IsNotFound(err) {
		return err
	}
	return pkgerrors.NewCorruptedStorageError(message).WithCause(err)
}
