package senders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// Factory builds the submitter matching a signing context
type Factory struct {
	node       usecase.NodeClient
	privateKey string
	log        *slog.Logger
}

// NewFactory creates a new submitter factory. privateKey may be empty.
func NewFactory(node usecase.NodeClient, privateKey string, log *slog.Logger) *Factory {
	return &Factory{node: node, privateKey: privateKey, log: log}
}

// Resolve chooses the run's signing context from the configured key
func (f *Factory) Resolve(ctx context.Context) (domain.SigningContext, error) {
	return ResolveSigningContext(ctx, f.node, f.privateKey)
}

// ForContext returns the submitter for signing
func (f *Factory) ForContext(ctx context.Context, signing domain.SigningContext) (usecase.TransactionSubmitter, error) {
	switch s := signing.(type) {
	case domain.NodeCustodied:
		return NewNodeSubmitter(f.node, s, f.log), nil
	case domain.LocalKey:
		return NewLocalKeySubmitter(ctx, f.node, s, f.log)
	default:
		return nil, fmt.Errorf("unsupported signing context %T", signing)
	}
}

// ResolveSigningContext picks LocalKey when a private key is configured and
// falls back to the node's coinbase otherwise.
func ResolveSigningContext(ctx context.Context, node usecase.NodeClient, privateKey string) (domain.SigningContext, error) {
	if privateKey != "" {
		return domain.ParseLocalKey(privateKey)
	}
	coinbase, err := node.Coinbase(ctx)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "eth_coinbase", Err: err}
	}
	return domain.NodeCustodied{Coinbase: coinbase}, nil
}

var (
	_ usecase.SubmitterFactory       = (*Factory)(nil)
	_ usecase.SigningContextResolver = (*Factory)(nil)
)
