package types

// SubmissionOutcome is the per-batch accounting produced once the batch's
// transaction reached a terminal state.
//
// Invariant: Successful + Failed == size of the submitted batch, and
// len(SucceededIDs) == Successful except when AssumedSuccess is set (see
// below).
type SubmissionOutcome struct {
	Successful   uint64   `json:"successful"`
	Failed       uint64   `json:"failed"`
	SucceededIDs []uint32 `json:"succeeded_ids"`

	// AssumedSuccess marks an outcome produced by the optimistic
	// reconciliation fallback: the transaction finalized with a terminal
	// success signal but none of the per-operation events decoded. Counts are
	// then assumed, and SucceededIDs holds only the ids the requests
	// themselves carried (withdrawals), so it may be shorter than Successful.
	AssumedSuccess bool `json:"assumed_success,omitempty"`
}

// AggregateResult accumulates outcomes across all sub-batches of one
// orchestrator run. Counts only ever increase while a run is active.
type AggregateResult struct {
	Successful   uint64   `json:"successful"`
	Failed       uint64   `json:"failed"`
	SucceededIDs []uint32 `json:"succeeded_ids"`

	// AssumedBatches counts sub-batches resolved via the optimistic
	// reconciliation fallback. Non-zero values deserve a manual check.
	AssumedBatches uint64 `json:"assumed_batches,omitempty"`
}

// Merge folds a batch outcome into the aggregate.
func (r *AggregateResult) Merge(o *SubmissionOutcome) {
	r.Successful += o.Successful
	r.Failed += o.Failed
	r.SucceededIDs = append(r.SucceededIDs, o.SucceededIDs...)
	if o.AssumedSuccess {
		r.AssumedBatches++
	}
}

// Absorb folds another aggregate (produced by a recursive re-submission of a
// split batch) into this one.
func (r *AggregateResult) Absorb(other *AggregateResult) {
	r.Successful += other.Successful
	r.Failed += other.Failed
	r.SucceededIDs = append(r.SucceededIDs, other.SucceededIDs...)
	r.AssumedBatches += other.AssumedBatches
}
