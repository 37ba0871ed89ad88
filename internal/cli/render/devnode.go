package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// DevNodeRenderer renders dev node operation results
type DevNodeRenderer struct {
	out io.Writer
}

// NewDevNodeRenderer creates a new dev node renderer
func NewDevNodeRenderer(out io.Writer) *DevNodeRenderer {
	return &DevNodeRenderer{out: out}
}

// Render renders the dev node operation result
func (r *DevNodeRenderer) Render(result *usecase.ManageDevNodeResult) error {
	switch result.Operation {
	case "start", "restart":
		fmt.Fprintln(r.out, FormatSuccess(result.Message))
		if result.Status != nil {
			color.New(color.FgYellow).Fprintf(r.out, "📋 Logs: %s\n", result.Status.LogFile)
			color.New(color.FgBlue).Fprintf(r.out, "🌐 RPC URL: %s\n", result.Status.RPCURL)
		}
		return nil
	case "stop":
		fmt.Fprintln(r.out, FormatSuccess(result.Message))
		return nil
	case "status":
		return r.renderStatus(result)
	default:
		return fmt.Errorf("unknown operation: %s", result.Operation)
	}
}

func (r *DevNodeRenderer) renderStatus(result *usecase.ManageDevNodeResult) error {
	headerStyle.Fprintf(r.out, "📊 Dev node status ('%s'):\n", result.Instance.Name)

	status := result.Status
	if status == nil || !status.Running {
		color.New(color.FgRed).Fprintln(r.out, "Status: 🔴 Not running")
		mutedStyle.Fprintf(r.out, "PID file: %s\n", result.Instance.PidFile)
		mutedStyle.Fprintf(r.out, "Log file: %s\n", result.Instance.LogFile)
		return nil
	}

	color.New(color.FgGreen).Fprintf(r.out, "Status: 🟢 Running (PID %d)\n", status.PID)
	color.New(color.FgBlue).Fprintf(r.out, "RPC URL: %s\n", status.RPCURL)
	color.New(color.FgYellow).Fprintf(r.out, "Log file: %s\n", status.LogFile)
	if status.Healthy {
		color.New(color.FgGreen).Fprintf(r.out, "RPC Health: ✅ Responding (block %d)\n", status.BlockNumber)
	} else {
		color.New(color.FgRed).Fprintf(r.out, "RPC Health: ❌ Not responding (%s)\n", status.HealthError)
	}
	return nil
}
