package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// OwnershipResolver maps a subject name to the user owning it
type OwnershipResolver struct {
	store  ports.Store
	logger *zap.Logger
}

// NewOwnershipResolver creates a new ownership resolver
func NewOwnershipResolver(store ports.Store, logger *zap.Logger) *OwnershipResolver {
	return &OwnershipResolver{store: store, logger: logger}
}

// Owner resolves name to the owning user id. The bool is false when no
// owner can be found, including when blank nodes reference each other in a
// cycle. Malformed names are reported as errors.
func (r *OwnershipResolver) Owner(ctx context.Context, name string) (uuid.UUID, bool, error) {
	return r.OwnerVisited(ctx, name, make(map[string]struct{}))
}

// OwnerVisited is Owner with a caller supplied set of blank nodes already
// on the resolution path. A nil set starts empty.
func (r *OwnershipResolver) OwnerVisited(ctx context.Context, name string, visited map[string]struct{}) (uuid.UUID, bool, error) {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	subject, err := valueobjects.ParseSubject(name)
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return uuid.Nil, false, err
		}
		return uuid.Nil, false, pkgerrors.NewMalformedIDError(name, err)
	}

	if subject.Kind == valueobjects.SubjectUser {
		return subject.ID, true, nil
	}
	if subject.IsBlank() {
		return r.blankOwner(ctx, subject, visited)
	}

	collectionID, found, err := r.collectionOf(ctx, subject)
	if err != nil || !found {
		return uuid.Nil, false, err
	}

	collection, err := r.store.Collections().GetByID(ctx, collectionID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			r.logger.Warn("Subject references missing collection",
				zap.String("subject", name),
				zap.String("collectionID", collectionID.String()))
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to get collection: %w", err)
	}
	return collection.OwnerID, true, nil
}

// blankOwner follows triples backwards: any subject stating something
// about the blank node shares its owner.
func (r *OwnershipResolver) blankOwner(ctx context.Context, subject valueobjects.Subject, visited map[string]struct{}) (uuid.UUID, bool, error) {
	name := subject.Name()
	if _, seen := visited[name]; seen {
		r.logger.Debug("Blank node cycle detected", zap.String("subject", name))
		return uuid.Nil, false, nil
	}
	visited[name] = struct{}{}

	triples, err := r.store.Triples().FindByObject(ctx, name)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to find triples: %w", err)
	}
	for _, triple := range triples {
		owner, found, err := r.OwnerVisited(ctx, triple.Subject, visited)
		if err != nil {
			return uuid.Nil, false, err
		}
		if found {
			return owner, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (r *OwnershipResolver) collectionOf(ctx context.Context, subject valueobjects.Subject) (uuid.UUID, bool, error) {
	var collectionID uuid.UUID
	var err error

	switch subject.Kind {
	case valueobjects.SubjectTimeline:
		t, e := r.store.Timelines().GetByID(ctx, subject.ID)
		if e == nil {
			collectionID = t.CollectionID
		}
		err = e
	case valueobjects.SubjectExhibit:
		x, e := r.store.Exhibits().GetByID(ctx, subject.ID)
		if e == nil {
			collectionID = x.CollectionID
		}
		err = e
	case valueobjects.SubjectContentItem:
		c, e := r.store.ContentItems().GetByID(ctx, subject.ID)
		if e == nil {
			collectionID = c.CollectionID
		}
		err = e
	case valueobjects.SubjectTour:
		t, e := r.store.Collections().GetTour(ctx, subject.ID)
		if e == nil {
			collectionID = t.CollectionID
		}
		err = e
	default:
		return uuid.Nil, false, pkgerrors.NewValidationError(fmt.Sprintf("unsupported subject kind %q", subject.Kind))
	}

	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to resolve %s: %w", subject.Kind, err)
	}
	return collectionID, true, nil
}
