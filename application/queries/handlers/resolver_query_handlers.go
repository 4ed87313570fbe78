package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/services"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
)

// ContentPathHandler handles ContentPathQuery
type ContentPathHandler struct {
	resolver *services.PathResolver
	logger   *zap.Logger
}

// NewContentPathHandler creates a new content path handler
func NewContentPathHandler(resolver *services.PathResolver, logger *zap.Logger) *ContentPathHandler {
	return &ContentPathHandler{resolver: resolver, logger: logger}
}

// Handle resolves the canonical path of an entity
func (h *ContentPathHandler) Handle(ctx context.Context, query queries.ContentPathQuery) (*queries.ContentPathResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	collectionID, err := valueobjects.ParseID(query.CollectionID)
	if err != nil {
		return nil, err
	}
	id, err := valueobjects.ParseOptionalID(query.ID)
	if err != nil {
		return nil, err
	}

	path, err := h.resolver.ContentPath(ctx, collectionID, id, query.Title)
	if err != nil {
		return nil, err
	}
	return &queries.ContentPathResult{Path: path, Found: path != ""}, nil
}

// SubjectOwnerHandler handles SubjectOwnerQuery
type SubjectOwnerHandler struct {
	resolver *services.OwnershipResolver
	logger   *zap.Logger
}

// NewSubjectOwnerHandler creates a new subject owner handler
func NewSubjectOwnerHandler(resolver *services.OwnershipResolver, logger *zap.Logger) *SubjectOwnerHandler {
	return &SubjectOwnerHandler{resolver: resolver, logger: logger}
}

// Handle resolves the owning user of a subject
func (h *SubjectOwnerHandler) Handle(ctx context.Context, query queries.SubjectOwnerQuery) (*queries.SubjectOwnerResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	owner, found, err := h.resolver.Owner(ctx, query.Subject)
	if err != nil {
		return nil, err
	}
	if !found {
		h.logger.Debug("No owner found", zap.String("subject", query.Subject))
		return &queries.SubjectOwnerResult{}, nil
	}
	return &queries.SubjectOwnerResult{OwnerID: &owner, Found: true}, nil
}
