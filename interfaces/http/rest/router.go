package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands/bus"
	querybus "github.com/Rik-van-de-Laar/ChronoZoom/application/queries/bus"
	"github.com/Rik-van-de-Laar/ChronoZoom/interfaces/http/rest/handlers"
	"github.com/Rik-van-de-Laar/ChronoZoom/interfaces/http/rest/middleware"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// MetricsExporter serves Prometheus metrics and observes requests
type MetricsExporter interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// Options toggles optional router features
type Options struct {
	EnableCORS    bool
	EnableMetrics bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	metrics      MetricsExporter
	options      Options
	logger       *zap.Logger
}

// NewRouter creates a new router instance. metrics may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	metrics MetricsExporter,
	options Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		metrics:      metrics,
		options:      options,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	var observer middleware.HTTPObserver
	if rt.metrics != nil && rt.options.EnableMetrics {
		observer = rt.metrics
	}

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger, observer))

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	if observer != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	timelineHandler := handlers.NewTimelineHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
	resolverHandler := handlers.NewResolverHandler(rt.queryBus, rt.errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/collections/{collectionID}", func(r chi.Router) {
			r.Get("/timelines", timelineHandler.GetTimelines)
			r.Get("/timelines/all", timelineHandler.GetAllTimelines)
			r.Get("/timelines/subtree", timelineHandler.GetSubtree)
			r.Get("/path", resolverHandler.GetContentPath)
		})

		r.Delete("/timelines/{timelineID}", timelineHandler.DeleteTimeline)
		r.Delete("/exhibits/{exhibitID}", timelineHandler.DeleteExhibit)
		r.Get("/owner", resolverHandler.GetSubjectOwner)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
