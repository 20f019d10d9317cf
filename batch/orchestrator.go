package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Elactrac/dotnation-sub001/gateway"
	"github.com/Elactrac/dotnation-sub001/log"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/types"
)

// Config carries the orchestrator's batching parameters.
type Config struct {
	// Ceiling caps operations per transaction; must be at least 1.
	Ceiling int
	// PacingDelay is inserted between successive top-level sub-batches, not
	// between the retries of a split batch. Sequential pacing is a deliberate
	// backpressure mechanism against the ledger's ingress limits.
	PacingDelay time.Duration
	// FeeCeiling is passed through to the gateway when building transactions.
	FeeCeiling uint64
	// Policy selects the reconciliation fallback behavior.
	Policy ReconcilePolicy
}

// Orchestrator submits caller-supplied operation lists as one or more ledger
// transactions, adapting to per-transaction resource ceilings by splitting,
// and reconciles the outcomes into a single report.
//
// A single run proceeds strictly sequentially: every sub-batch depends on the
// signing session, and pacing doubles as ingress backpressure.
type Orchestrator struct {
	cfg      Config
	gw       gateway.Gateway
	signer   signer.Signer
	logger   log.Logger
	metrics  *Metrics
	progress *Progress

	running atomic.Bool
}

// NewOrchestrator wires an orchestrator. A nil metrics defaults to no-op.
func NewOrchestrator(cfg Config, gw gateway.Gateway, s signer.Signer, logger log.Logger, metrics *Metrics) (*Orchestrator, error) {
	if cfg.Ceiling < 1 {
		return nil, ErrInvalidCeiling
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Orchestrator{
		cfg:      cfg,
		gw:       gw,
		signer:   s,
		logger:   logger,
		metrics:  metrics,
		progress: NewProgress(),
	}, nil
}

// Progress exposes the run's progress reporter for polling or subscription.
func (o *Orchestrator) Progress() *Progress {
	return o.progress
}

// Run validates reqs and submits them in sub-batches of at most the configured
// ceiling. Partial failures never produce an error: the returned
// AggregateResult states exactly how many operations succeeded and which ids
// those were. Run only fails outright for a missing signing session,
// validation errors, a concurrent run, or context cancellation (checked at
// batch boundaries; the partial result is returned alongside ctx.Err()).
func (o *Orchestrator) Run(ctx context.Context, reqs []types.OperationRequest) (*types.AggregateResult, error) {
	if o.signer == nil {
		return nil, ErrSessionNotReady
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	validated, err := ValidateOperations(reqs, time.Now())
	if err != nil {
		return nil, err
	}

	batches, err := SplitRequests(validated, o.cfg.Ceiling)
	if err != nil {
		return nil, err
	}

	o.metrics.RunActive.Set(1)
	o.progress.begin(uint64(len(validated)))
	defer func() {
		o.progress.reset()
		o.metrics.RunActive.Set(0)
	}()

	o.logger.Info("starting batch run",
		"operations", len(validated), "batches", len(batches), "ceiling", o.cfg.Ceiling)

	rec := &reconciler{
		gw:         o.gw,
		signer:     o.signer,
		logger:     o.logger,
		feeCeiling: o.cfg.FeeCeiling,
		policy:     o.cfg.Policy,
	}

	result := &types.AggregateResult{}
	for i, b := range batches {
		if i > 0 && o.cfg.PacingDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(o.cfg.PacingDelay):
			}
		}
		if err := o.processBatch(ctx, rec, b, result); err != nil {
			return result, err
		}
	}

	o.logger.Info("batch run finished",
		"successful", result.Successful, "failed", result.Failed,
		"assumed_batches", result.AssumedBatches)
	return result, nil
}

// processBatch submits one sub-batch and folds its outcome into result. On a
// resource-exhaustion rejection the batch is split in half and re-processed
// recursively; the recursion floor is a batch of size 1, which is recorded as
// failed instead of splitting further. Only context errors propagate.
func (o *Orchestrator) processBatch(ctx context.Context, rec *reconciler, ops []types.OperationRequest, result *types.AggregateResult) error {
	o.metrics.BatchSize.Observe(float64(len(ops)))
	o.metrics.OperationsSubmitted.Add(float64(len(ops)))

	start := time.Now()
	outcome, err := rec.submitBatch(ctx, ops)
	o.metrics.SubmissionTime.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		result.Merge(outcome)
		o.metrics.OperationsSucceeded.Add(float64(outcome.Successful))
		o.metrics.OperationsFailed.Add(float64(outcome.Failed))
		if outcome.AssumedSuccess {
			o.metrics.AssumedBatches.Add(1)
		}
		o.progress.advance(uint64(len(ops)))
		return nil

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err

	case gateway.IsResourceExhausted(err):
		if len(ops) == 1 {
			// recursion floor: a single operation cannot be split further
			o.logger.Warn("operation exceeds transaction resource ceiling on its own, recording as failed",
				"error", err)
			result.Failed++
			o.metrics.OperationsFailed.Add(1)
			o.progress.advance(1)
			return nil
		}

		ceiling := len(ops) / 2
		if ceiling < 1 {
			ceiling = 1
		}
		o.logger.Info("transaction exhausts resources, splitting batch",
			"size", len(ops), "new_ceiling", ceiling)
		o.metrics.BatchSplits.Add(1)

		halves, splitErr := SplitRequests(ops, ceiling)
		if splitErr != nil {
			return splitErr
		}
		// no pacing between the retries of a split batch
		child := &types.AggregateResult{}
		for _, half := range halves {
			if err := o.processBatch(ctx, rec, half, child); err != nil {
				result.Absorb(child)
				return err
			}
		}
		result.Absorb(child)
		return nil

	default:
		// non-transient transport error: the whole batch failed, move on
		o.logger.Error("batch submission failed", "size", len(ops), "error", err)
		result.Failed += uint64(len(ops))
		o.metrics.OperationsFailed.Add(float64(len(ops)))
		o.progress.advance(uint64(len(ops)))
		return nil
	}
}
