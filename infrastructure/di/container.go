package di

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands/bus"
	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	querybus "github.com/Rik-van-de-Laar/ChronoZoom/application/queries/bus"
	domainconfig "github.com/Rik-van-de-Laar/ChronoZoom/domain/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	Flags        *config.RuntimeFlags
	Metrics      *observability.Collector
	Store        ports.Store
	Publisher    ports.EventPublisher
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Router       http.Handler
}
