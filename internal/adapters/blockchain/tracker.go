package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// TrackerOptions control receipt polling
type TrackerOptions struct {
	PollInterval time.Duration
	Backoff      float64       // interval multiplier per poll, 1 keeps it fixed
	MaxInterval  time.Duration // 0 leaves backoff uncapped
	Timeout      time.Duration // 0 waits until ctx is done
}

// pendingTransaction exists between submission and receipt
type pendingTransaction struct {
	hash   common.Hash
	sentAt time.Time
}

// Tracker polls the node until a transaction is mined
type Tracker struct {
	node     usecase.NodeClient
	opts     TrackerOptions
	progress usecase.ProgressSink
	log      *slog.Logger
}

// NewTracker creates a receipt tracker
func NewTracker(node usecase.NodeClient, opts TrackerOptions, progress usecase.ProgressSink, log *slog.Logger) *Tracker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Backoff < 1 {
		opts.Backoff = 1
	}
	if progress == nil {
		progress = usecase.NopProgress{}
	}
	return &Tracker{
		node:     node,
		opts:     opts,
		progress: progress,
		log:      log.With("component", "Tracker"),
	}
}

// AwaitReceipt blocks until hash has a receipt, the timeout elapses or ctx is done.
func (t *Tracker) AwaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	pending := pendingTransaction{hash: hash, sentAt: time.Now()}

	waitCtx := ctx
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	interval := t.opts.PollInterval
	for attempt := 1; ; attempt++ {
		receipt, err := t.node.TransactionReceipt(waitCtx, pending.hash)
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, t.stopped(ctx, pending, attempt)
			}
			return nil, &domain.SubmissionError{Op: "eth_getTransactionReceipt", Err: err}
		}
		if receipt != nil {
			t.log.Debug("receipt received", "hash", hash, "polls", attempt, "waited", time.Since(pending.sentAt))
			return receipt, nil
		}

		t.progress.OnProgress(ctx, usecase.ProgressEvent{
			Stage:   "receipt",
			Current: attempt,
			Message: fmt.Sprintf("Waiting for transaction receipt %s", hash.Hex()),
			Spinner: true,
		})

		timer := time.NewTimer(interval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return nil, t.stopped(ctx, pending, attempt)
		case <-timer.C:
		}

		interval = t.nextInterval(interval)
	}
}

func (t *Tracker) nextInterval(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * t.opts.Backoff)
	if t.opts.MaxInterval > 0 && next > t.opts.MaxInterval {
		next = t.opts.MaxInterval
	}
	return next
}

// stopped reports cancellation of the caller's context as-is and anything else as a timeout.
func (t *Tracker) stopped(ctx context.Context, pending pendingTransaction, attempt int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return &domain.ReceiptTimeoutError{
		TxHash:  pending.hash,
		Waited:  time.Since(pending.sentAt),
		Attempt: attempt,
	}
}

var _ usecase.ReceiptTracker = (*Tracker)(nil)
