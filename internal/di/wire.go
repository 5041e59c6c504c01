//go:build wireinject
// +build wireinject

package di

import (
	"HemoPulse/pkg/config"
	"HemoPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Observability
        ProvideLogger,
        ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideSnapshotStore,
		ProvideSnapshotPublisher,

		// Domain services
		ProvideGenerator,
		ProvideForecaster,

        // Use cases
        ProvideEventHub,
        ProvideSnapshotUseCase,
        ProvideQueue,

        // Handlers and application server
        ProvideDemandHandler,
        ProvideLiveHandler,
        ProvideApp,
    )
    return &server.App{}, nil
}
