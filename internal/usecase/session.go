package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
)

// Session is the per-run state shared by every instruction: the chain, the
// signing context chosen once up front, and the registry loaded for the chain.
type Session struct {
	ChainID   uint64
	Signing   domain.SigningContext
	Submitter TransactionSubmitter
	Registry  *domain.Registry
}

// gas returns the gas parameters applied to every transaction
func (s *Session) gas(cfg *config.RuntimeConfig) GasParams {
	return GasParams{Limit: cfg.Gas.Limit, Price: cfg.Gas.Price}
}

// SessionFactory opens sessions against the configured node
type SessionFactory struct {
	config     *config.RuntimeConfig
	node       NodeClient
	signer     SigningContextResolver
	submitters SubmitterFactory
	store      RegistryStore
	log        *slog.Logger
}

// NewSessionFactory creates a new session factory
func NewSessionFactory(
	cfg *config.RuntimeConfig,
	node NodeClient,
	signer SigningContextResolver,
	submitters SubmitterFactory,
	store RegistryStore,
	log *slog.Logger,
) *SessionFactory {
	return &SessionFactory{
		config:     cfg,
		node:       node,
		signer:     signer,
		submitters: submitters,
		store:      store,
		log:        log.With("component", "SessionFactory"),
	}
}

// Open resolves the chain and signing context and loads the persisted registry
func (f *SessionFactory) Open(ctx context.Context) (*Session, error) {
	chainID, err := f.node.ChainID(ctx)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "eth_chainId", Err: err}
	}
	if n := f.config.Network; n != nil && n.ChainID != 0 && n.ChainID != chainID.Uint64() {
		return nil, fmt.Errorf("chain ID mismatch on %s: expected %d, got %d", n.Name, n.ChainID, chainID.Uint64())
	}

	signing, err := f.signer.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve signing context: %w", err)
	}

	submitter, err := f.submitters.ForContext(ctx, signing)
	if err != nil {
		return nil, fmt.Errorf("failed to create submitter: %w", err)
	}

	registry := domain.NewRegistry(domain.RegistryPolicy{AllowOverwrite: f.config.Registry.AllowOverwrite})
	records, err := f.store.Load(ctx, chainID.Uint64())
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	for _, record := range records {
		if err := registry.Register(record); err != nil {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
	}

	f.log.Debug("session opened",
		"chainID", chainID,
		"sender", signing.Sender().Hex(),
		"mode", signing.Mode(),
		"registered", registry.Len(),
	)

	return &Session{
		ChainID:   chainID.Uint64(),
		Signing:   signing,
		Submitter: submitter,
		Registry:  registry,
	}, nil
}
