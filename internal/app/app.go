package app

import (
	"github.com/trebuchet-org/mangonel/internal/domain/config"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	RunInstructions *usecase.RunInstructions
	GuardedCall     *usecase.GuardedCall
	GenerateABI     *usecase.GenerateABI
	ListRegistry    *usecase.ListRegistry
	ManageDevNode   *usecase.ManageDevNode
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	runInstructions *usecase.RunInstructions,
	guardedCall *usecase.GuardedCall,
	generateABI *usecase.GenerateABI,
	listRegistry *usecase.ListRegistry,
	manageDevNode *usecase.ManageDevNode,
) (*App, error) {
	return &App{
		Config:          cfg,
		RunInstructions: runInstructions,
		GuardedCall:     guardedCall,
		GenerateABI:     generateABI,
		ListRegistry:    listRegistry,
		ManageDevNode:   manageDevNode,
	}, nil
}
