//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/mangonel/internal/adapters"
	"github.com/trebuchet-org/mangonel/internal/config"
	"github.com/trebuchet-org/mangonel/internal/logging"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// InitApp creates a fully wired App instance. The returned cleanup closes the
// node connection and the registry store.
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewSessionFactory,
		usecase.NewRunInstructions,
		usecase.NewGuardedCall,
		usecase.NewGenerateABI,
		usecase.NewListRegistry,
		usecase.NewManageDevNode,

		// App
		NewApp,
	)
	return nil, nil, nil
}
