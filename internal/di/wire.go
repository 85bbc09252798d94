//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideQuoteCache,

		// Repositories
		ProvideSignalStore,
		ProvidePublisher,
		ProvideStreamHub,

		// Use cases
		ProvideSignalService,
		ProvideIngestHandler,
		ProvideKafkaConsumer,

		// Upstreams
		ProvideJupiterClient,
		ProvideSolanaClient,
		ProvideRateLimiter,

		// HTTP
		ProvideSignalsHandler,
		ProvideQuoteHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
