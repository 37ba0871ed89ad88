package interactive

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
)

// Prompter runs a yes/no prompt. It exists so tests can stand in for the terminal.
type Prompter func(label string) (string, error)

// ConfirmerAdapter asks the operator before transactions are broadcast
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	prompt Prompter
}

// NewConfirmerAdapter creates a new confirmer backed by promptui
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg, prompt: promptConfirm}
}

// NewConfirmerWithPrompter creates a confirmer with a custom prompt function
func NewConfirmerWithPrompter(cfg *config.RuntimeConfig, prompt Prompter) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg, prompt: prompt}
}

// Confirm returns true when the operator accepts. Non-interactive runs always proceed.
func (c *ConfirmerAdapter) Confirm(message string) (bool, error) {
	if c.config.NonInteractive {
		return true, nil
	}

	_, err := c.prompt(message)
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return true, nil
}

func promptConfirm(label string) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	return p.Run()
}
