package devnode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/mangonel/internal/domain"
)

const (
	DefaultName   = "anvil"
	DefaultPort   = "8545"
	DefaultBinary = "anvil"
	DevDir        = "dev"
)

// Manager starts and stops anvil processes, tracking them with pid files under the
// project data directory
type Manager struct {
	binary  string
	dataDir string
	log     *slog.Logger
}

// NewManager creates a dev node manager. Pid and log files live under dataDir/dev.
func NewManager(binary, dataDir string, log *slog.Logger) *Manager {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Manager{
		binary:  binary,
		dataDir: dataDir,
		log:     log.With("component", "DevNodeManager"),
	}
}

// Start launches the node in the background and waits until it answers RPC
func (m *Manager) Start(ctx context.Context, instance *domain.DevNodeInstance) error {
	m.setFilePaths(instance)

	if pid, running := isRunning(instance); running {
		return fmt.Errorf("dev node '%s' is already running (PID %d)", instance.Name, pid)
	}

	if err := os.MkdirAll(filepath.Dir(instance.PidFile), 0755); err != nil {
		return fmt.Errorf("failed to create dev node directory: %w", err)
	}

	logFile, err := os.Create(instance.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(m.binary, buildArgs(instance)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", m.binary, err)
	}

	if err := os.WriteFile(instance.PidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	// The process outlives this command.
	_ = cmd.Process.Release()

	m.log.Debug("dev node started", "name", instance.Name, "pid", cmd.Process.Pid, "rpc", instance.RPCURL())

	return m.waitHealthy(ctx, instance, 10*time.Second)
}

// Stop terminates the node if it is running
func (m *Manager) Stop(ctx context.Context, instance *domain.DevNodeInstance) error {
	m.setFilePaths(instance)

	pid, running := isRunning(instance)
	if !running {
		_ = os.Remove(instance.PidFile)
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	// Wait for the process to exit, force kill after a grace period
	deadline := time.Now().Add(5 * time.Second)
	for processAlive(pid) {
		if time.Now().After(deadline) {
			_ = process.Kill()
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	if err := os.Remove(instance.PidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	m.log.Debug("dev node stopped", "name", instance.Name, "pid", pid)
	return nil
}

// GetStatus reports whether the node runs and whether it answers RPC
func (m *Manager) GetStatus(ctx context.Context, instance *domain.DevNodeInstance) (*domain.DevNodeStatus, error) {
	m.setFilePaths(instance)

	status := &domain.DevNodeStatus{
		RPCURL:  instance.RPCURL(),
		LogFile: instance.LogFile,
	}
	status.PID, status.Running = isRunning(instance)
	if !status.Running {
		return status, nil
	}

	block, err := blockNumber(ctx, instance.RPCURL())
	if err != nil {
		status.HealthError = err.Error()
		return status, nil
	}
	status.Healthy = true
	status.BlockNumber = block
	return status, nil
}

// setFilePaths fills in defaults and pid/log paths that were not preset
func (m *Manager) setFilePaths(instance *domain.DevNodeInstance) {
	if strings.TrimSpace(instance.Name) == "" {
		instance.Name = DefaultName
	}
	if strings.TrimSpace(instance.Port) == "" {
		instance.Port = DefaultPort
	}
	dir := filepath.Join(m.dataDir, DevDir)
	if instance.PidFile == "" {
		instance.PidFile = filepath.Join(dir, instance.Name+".pid")
	}
	if instance.LogFile == "" {
		instance.LogFile = filepath.Join(dir, instance.Name+".log")
	}
}

func (m *Manager) waitHealthy(ctx context.Context, instance *domain.DevNodeInstance, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	var lastErr error
	for {
		_, err := blockNumber(ctx, instance.RPCURL())
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return fmt.Errorf("dev node did not become ready (see %s): %w", instance.LogFile, lastErr)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func buildArgs(instance *domain.DevNodeInstance) []string {
	host := instance.Host
	if host == "" {
		host = "127.0.0.1"
	}
	args := []string{"--port", instance.Port, "--host", host}
	if instance.ChainID != "" {
		args = append(args, "--chain-id", instance.ChainID)
	}
	return args
}

func blockNumber(ctx context.Context, url string) (uint64, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	var result hexutil.Uint64
	if err := client.CallContext(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func isRunning(instance *domain.DevNodeInstance) (int, bool) {
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return 0, false
	}
	return pid, processAlive(pid)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %s", string(data))
	}
	if pid <= 0 {
		return 0, errors.New("invalid PID")
	}
	return pid, nil
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
