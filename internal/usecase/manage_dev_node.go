package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/mangonel/internal/domain"
)

// ManageDevNode handles local development node operations
type ManageDevNode struct {
	manager  DevNodeManager
	progress ProgressSink
}

// NewManageDevNode creates a new dev node management use case
func NewManageDevNode(manager DevNodeManager, progress ProgressSink) *ManageDevNode {
	if progress == nil {
		progress = NopProgress{}
	}
	return &ManageDevNode{
		manager:  manager,
		progress: progress,
	}
}

// ManageDevNodeParams contains parameters for dev node operations
type ManageDevNodeParams struct {
	Operation string // start, stop, restart, status
	Name      string
	Host      string
	Port      string
	ChainID   string
}

// ManageDevNodeResult contains the result of dev node operations
type ManageDevNodeResult struct {
	Operation string
	Instance  *domain.DevNodeInstance
	Status    *domain.DevNodeStatus
	Message   string
}

// Execute performs the dev node operation
func (m *ManageDevNode) Execute(ctx context.Context, params ManageDevNodeParams) (*ManageDevNodeResult, error) {
	instance := &domain.DevNodeInstance{
		Name:    params.Name,
		Host:    params.Host,
		Port:    params.Port,
		ChainID: params.ChainID,
	}

	switch params.Operation {
	case "start":
		return m.start(ctx, instance)
	case "stop":
		return m.stop(ctx, instance)
	case "restart":
		if _, err := m.stop(ctx, instance); err != nil {
			return nil, err
		}
		result, err := m.start(ctx, instance)
		if err != nil {
			return nil, err
		}
		result.Operation = "restart"
		return result, nil
	case "status":
		status, err := m.manager.GetStatus(ctx, instance)
		if err != nil {
			return nil, fmt.Errorf("failed to get status: %w", err)
		}
		return &ManageDevNodeResult{Operation: "status", Instance: instance, Status: status}, nil
	default:
		return nil, fmt.Errorf("unknown operation: %s", params.Operation)
	}
}

func (m *ManageDevNode) start(ctx context.Context, instance *domain.DevNodeInstance) (*ManageDevNodeResult, error) {
	m.progress.Info(fmt.Sprintf("Starting dev node '%s' on port %s...", displayName(instance), displayPort(instance)))

	status, err := m.manager.GetStatus(ctx, instance)
	if err == nil && status.Running {
		return nil, fmt.Errorf("dev node '%s' is already running (PID %d)", instance.Name, status.PID)
	}

	if err := m.manager.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start dev node: %w", err)
	}

	status, err = m.manager.GetStatus(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to get status after start: %w", err)
	}

	return &ManageDevNodeResult{
		Operation: "start",
		Instance:  instance,
		Status:    status,
		Message:   fmt.Sprintf("Dev node '%s' started with PID %d", instance.Name, status.PID),
	}, nil
}

func (m *ManageDevNode) stop(ctx context.Context, instance *domain.DevNodeInstance) (*ManageDevNodeResult, error) {
	status, err := m.manager.GetStatus(ctx, instance)
	if err != nil || !status.Running {
		return &ManageDevNodeResult{
			Operation: "stop",
			Instance:  instance,
			Message:   fmt.Sprintf("Dev node '%s' is not running", instance.Name),
		}, nil
	}

	m.progress.Info(fmt.Sprintf("Stopping dev node '%s'...", instance.Name))
	if err := m.manager.Stop(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to stop dev node: %w", err)
	}

	return &ManageDevNodeResult{
		Operation: "stop",
		Instance:  instance,
		Message:   "Dev node stopped",
	}, nil
}

func displayName(instance *domain.DevNodeInstance) string {
	if instance.Name == "" {
		return "anvil"
	}
	return instance.Name
}

func displayPort(instance *domain.DevNodeInstance) string {
	if instance.Port == "" {
		return "8545"
	}
	return instance.Port
}
