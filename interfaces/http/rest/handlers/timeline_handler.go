package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands/bus"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	querybus "github.com/Rik-van-de-Laar/ChronoZoom/application/queries/bus"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/common"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// TimelineHandler handles timeline-related HTTP requests
type TimelineHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *TimelineHandler {
	return &TimelineHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// GetTimelines handles GET /collections/{collectionID}/timelines
func (h *TimelineHandler) GetTimelines(w http.ResponseWriter, r *http.Request) {
	window := valueobjects.UnboundedInterval()

	query := queries.TimelinesQuery{
		CollectionID:   chi.URLParam(r, "collectionID"),
		CommonAncestor: r.URL.Query().Get("lca"),
	}
	var err error
	if query.Start, err = decimalParam(r, "start", window.From); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.End, err = decimalParam(r, "end", window.To); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.MinSpan, err = decimalParam(r, "minspan", query.MinSpan); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.MaxElements, err = intParam(r, "maxElements", 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.Depth, err = intParam(r, "depth", -1); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.ask(w, r, query)
}

// GetAllTimelines handles GET /collections/{collectionID}/timelines/all
func (h *TimelineHandler) GetAllTimelines(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.RetrieveAllTimelinesQuery{CollectionID: chi.URLParam(r, "collectionID")})
}

// GetSubtree handles GET /collections/{collectionID}/timelines/subtree
func (h *TimelineHandler) GetSubtree(w http.ResponseWriter, r *http.Request) {
	window := valueobjects.UnboundedInterval()

	query := queries.TimelineSubtreeQuery{
		CollectionID:        chi.URLParam(r, "collectionID"),
		LeastCommonAncestor: r.URL.Query().Get("lca"),
	}
	var err error
	if query.Start, err = decimalParam(r, "start", window.From); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.End, err = decimalParam(r, "end", window.To); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.MinSpan, err = decimalParam(r, "minspan", query.MinSpan); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if query.MaxElements, err = intParam(r, "maxElements", 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.ask(w, r, query)
}

// DeleteTimeline handles DELETE /timelines/{timelineID}
func (h *TimelineHandler) DeleteTimeline(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, commands.DeleteTimelineCommand{TimelineID: chi.URLParam(r, "timelineID")})
}

// DeleteExhibit handles DELETE /exhibits/{exhibitID}
func (h *TimelineHandler) DeleteExhibit(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, commands.DeleteExhibitCommand{ExhibitID: chi.URLParam(r, "exhibitID")})
}

func (h *TimelineHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	timelines, ok := result.(*queries.TimelinesResult)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected query result"))
		return
	}

	common.RespondWithMeta(w, http.StatusOK, timelines.Timelines, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Consumed:  timelines.Consumed,
		Truncated: timelines.Truncated,
		Strategy:  timelines.Strategy,
	})
}

func (h *TimelineHandler) send(w http.ResponseWriter, r *http.Request, cmd bus.Command) {
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		// A cascade that stopped part way is rendered with what it already removed
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
