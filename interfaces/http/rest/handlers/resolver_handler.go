package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	querybus "github.com/Rik-van-de-Laar/ChronoZoom/application/queries/bus"
	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/common"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// ResolverHandler serves the path and ownership lookups
type ResolverHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewResolverHandler creates a new resolver handler
func NewResolverHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ResolverHandler {
	return &ResolverHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// GetContentPath handles GET /collections/{collectionID}/path?id=&title=
func (h *ResolverHandler) GetContentPath(w http.ResponseWriter, r *http.Request) {
	query := queries.ContentPathQuery{
		CollectionID: chi.URLParam(r, "collectionID"),
		ID:           r.URL.Query().Get("id"),
		Title:        r.URL.Query().Get("title"),
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetSubjectOwner handles GET /owner?subject=
func (h *ResolverHandler) GetSubjectOwner(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.SubjectOwnerQuery{Subject: r.URL.Query().Get("subject")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
