package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands/bus"
	commandhandlers "github.com/Rik-van-de-Laar/ChronoZoom/application/commands/handlers"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/queries"
	querybus "github.com/Rik-van-de-Laar/ChronoZoom/application/queries/bus"
	queryhandlers "github.com/Rik-van-de-Laar/ChronoZoom/application/queries/handlers"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/services"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/strategies"
	domainconfig "github.com/Rik-van-de-Laar/ChronoZoom/domain/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/messaging"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/messaging/eventbridge"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/observability"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/dynamodb"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/memory"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/resilience"
	"github.com/Rik-van-de-Laar/ChronoZoom/interfaces/http/rest"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

// ProvideDomainConfig selects query limits for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideRuntimeFlags seeds the mutable flags from static configuration
func ProvideRuntimeFlags(cfg *config.Config) *config.RuntimeFlags {
	return config.NewRuntimeFlags(cfg)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("chronozoom")
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideStore creates the configured store behind the retrying decorator
func ProvideStore(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.Store {
	var base ports.Store
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		base = memory.NewStore()
	default:
		base = dynamodb.NewStore(
			awsdynamodb.NewFromConfig(awsCfg),
			cfg.DynamoDBTable,
			dynamodb.Indexes{
				ForkNode: cfg.ForkNodeIndex,
				Depth:    cfg.DepthIndex,
				Parent:   cfg.ParentIndex,
				Title:    cfg.TitleIndex,
				Object:   cfg.ObjectIndex,
			},
			logger.Named("dynamodb"),
		)
	}

	policy := resilience.RetryPolicy{
		Attempts:       cfg.RetryAttempts,
		Interval:       cfg.RetryInterval,
		Timeout:        cfg.StoreTimeout,
		BreakerTrips:   cfg.BreakerTrips,
		BreakerTimeout: cfg.BreakerTimeout,
	}
	return resilience.Wrap(base, resilience.NewExecutor("store", policy, logger.Named("resilience")))
}

// ProvideEventPublisher publishes to EventBridge, or only logs for the memory store
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.StoreBackend == config.StoreMemory || cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger.Named("events"))
	}
	return eventbridge.NewPublisher(
		awseventbridge.NewFromConfig(awsCfg),
		cfg.EventBusName,
		cfg.EventSource,
		logger.Named("events"),
	)
}

// ProvideSelector builds both range strategies over the store
func ProvideSelector(store ports.Store, flags *config.RuntimeFlags, logger *zap.Logger) *strategies.Selector {
	return strategies.NewSelector(
		strategies.NewNaiveStrategy(store.Timelines(), logger.Named("naive")),
		strategies.NewBitmaskStrategy(store.Timelines(), store.Bitmasks(), logger.Named("bitmask")),
		flags,
	)
}

// ProvideRelationFiller creates the exhibit and content item filler
func ProvideRelationFiller(store ports.Store, logger *zap.Logger) *services.RelationFiller {
	return services.NewRelationFiller(store.Exhibits(), store.ContentItems(), logger.Named("filler"))
}

// ProvideCascadeDeleteHandler creates the cascade deleter
func ProvideCascadeDeleteHandler(
	store ports.Store,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *commandhandlers.CascadeDeleteHandler {
	return commandhandlers.NewCascadeDeleteHandler(store, publisher, metrics, logger.Named("cascade"))
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(deleter *commandhandlers.CascadeDeleteHandler, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(bus.LoggingMiddleware(logger))

	if err := commandBus.Register(commands.DeleteTimelineCommand{},
		pipeline.Execute(bus.Handler(deleter.HandleDeleteTimeline))); err != nil {
		return nil, err
	}
	if err := commandBus.Register(commands.DeleteExhibitCommand{},
		pipeline.Execute(bus.Handler(deleter.HandleDeleteExhibit))); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	store ports.Store,
	selector *strategies.Selector,
	filler *services.RelationFiller,
	metrics *observability.Collector,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	timelines := queryhandlers.NewTimelinesQueryHandler(selector, filler, metrics, domainCfg, logger.Named("timelines"))
	subtree := queryhandlers.NewTimelineSubtreeHandler(store, filler, domainCfg, logger.Named("subtree"))
	paths := queryhandlers.NewContentPathHandler(services.NewPathResolver(store, logger.Named("paths")), logger)
	owners := queryhandlers.NewSubjectOwnerHandler(services.NewOwnershipResolver(store, logger.Named("owners")), logger)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.TimelinesQuery{}, querybus.Handler(timelines.Handle)},
		{queries.RetrieveAllTimelinesQuery{}, querybus.Handler(timelines.HandleRetrieveAll)},
		{queries.TimelineSubtreeQuery{}, querybus.Handler(subtree.Handle)},
		{queries.ContentPathQuery{}, querybus.Handler(paths.Handle)},
		{queries.SubjectOwnerQuery{}, querybus.Handler(owners.Handle)},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, querybus.LoggingMiddleware(logger, reg.handler)); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger.Named("http"), cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(commandBus, queryBus, errorHandler, metrics, rest.Options{
		EnableCORS:    cfg.EnableCORS,
		EnableMetrics: cfg.EnableMetrics,
	}, logger).Setup()
}
