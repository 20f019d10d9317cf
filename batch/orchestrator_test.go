package batch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elactrac/dotnation-sub001/gateway"
	"github.com/Elactrac/dotnation-sub001/gateway/gatewaytest"
	logtest "github.com/Elactrac/dotnation-sub001/log/test"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/types"
)

func testSigner(t *testing.T) signer.Signer {
	t.Helper()
	s, err := signer.LoadOrGenFileSigner(filepath.Join(t.TempDir(), "key.json"))
	require.NoError(t, err)
	return s
}

func newTestOrchestrator(t *testing.T, gw gateway.Gateway, ceiling int) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(Config{Ceiling: ceiling}, gw, testSigner(t), logtest.NewLogger(t), nil)
	require.NoError(t, err)
	return o
}

// creates builds n requests that pass validation against the wall clock.
func creates(t *testing.T, n int) []types.OperationRequest {
	reqs := make([]types.OperationRequest, n)
	for i := range reqs {
		op := validCreate(t)
		op.Deadline = time.Now().Add(48 * time.Hour).Unix()
		reqs[i] = op
	}
	return reqs
}

func TestRunSevenCreatesCeilingFive(t *testing.T) {
	gw := gatewaytest.New()
	o := newTestOrchestrator(t, gw, 5)

	res, err := o.Run(context.Background(), creates(t, 7))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), res.Successful)
	assert.Equal(t, uint64(0), res.Failed)
	assert.Len(t, res.SucceededIDs, 7)
	assert.Equal(t, []int{5, 2}, gw.BuildSizes)
}

func TestRunEmptyInputMakesNoNetworkCalls(t *testing.T) {
	gw := gatewaytest.New()
	o := newTestOrchestrator(t, gw, 5)

	_, err := o.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, gw.BuildSizes)
	assert.Zero(t, gw.SubmitCount)
}

func TestRunValidationErrorMakesNoNetworkCalls(t *testing.T) {
	gw := gatewaytest.New()
	o := newTestOrchestrator(t, gw, 5)

	bad := validCreate(t)
	bad.Deadline = time.Now().Add(30 * time.Minute).Unix()

	_, err := o.Run(context.Background(), []types.OperationRequest{bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, gw.SubmitCount)
}

func TestRunSessionNotReady(t *testing.T) {
	gw := gatewaytest.New()
	o, err := NewOrchestrator(Config{Ceiling: 5}, gw, nil, logtest.NewLogger(t), nil)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), withdrawals(2))
	assert.ErrorIs(t, err, ErrSessionNotReady)
	assert.Zero(t, gw.SubmitCount)
}

func TestRunSplitsOnResourceExhaustion(t *testing.T) {
	gw := gatewaytest.New()
	// the full batch of 5 is rejected as too large, the four retries
	// (ceiling 2: sizes 2,2,1) all land
	gw.Script(gatewaytest.SubmitScript{SubmitErr: &gateway.ErrTxTooLarge{}})
	o := newTestOrchestrator(t, gw, 5)

	res, err := o.Run(context.Background(), withdrawals(5))
	require.NoError(t, err)

	assert.Equal(t, uint64(5), res.Successful)
	assert.Equal(t, uint64(0), res.Failed)
	assert.ElementsMatch(t, []uint32{1, 2, 3, 4, 5}, res.SucceededIDs)
	assert.Equal(t, []int{5, 2, 2, 1}, gw.BuildSizes)
}

func TestRunMixedOutcomeAfterSplit(t *testing.T) {
	gw := gatewaytest.New()
	gw.Script(
		gatewaytest.SubmitScript{SubmitErr: &gateway.ErrTxTooLarge{}},
		gatewaytest.SubmitScript{}, // first half succeeds
		gatewaytest.SubmitScript{DispatchErr: &gateway.DispatchError{Module: "contracts", Reason: "CampaignNotFound"}},
	)
	o := newTestOrchestrator(t, gw, 4)

	res, err := o.Run(context.Background(), withdrawals(4))
	require.NoError(t, err)

	assert.Equal(t, uint64(2), res.Successful)
	assert.Equal(t, uint64(2), res.Failed)
	assert.Equal(t, []uint32{1, 2}, res.SucceededIDs)
	assert.Equal(t, []int{4, 2, 2}, gw.BuildSizes)
}

func TestRunRecursionFloor(t *testing.T) {
	gw := gatewaytest.New()
	gw.Script(gatewaytest.SubmitScript{SubmitErr: &gateway.ErrTxTooLarge{}})
	o := newTestOrchestrator(t, gw, 1)

	res, err := o.Run(context.Background(), withdrawals(1))
	require.NoError(t, err)

	// a batch of one is never split further, it is recorded as failed
	assert.Equal(t, uint64(0), res.Successful)
	assert.Equal(t, uint64(1), res.Failed)
	assert.Equal(t, 1, gw.SubmitCount)
}

func TestRunNonTransientErrorFailsWholeBatch(t *testing.T) {
	gw := gatewaytest.New()
	gw.Script(gatewaytest.SubmitScript{DispatchErr: &gateway.DispatchError{Module: "contracts", Reason: "DeadlinePassed"}})
	o := newTestOrchestrator(t, gw, 2)

	res, err := o.Run(context.Background(), withdrawals(4))
	require.NoError(t, err)

	// first batch fails without retry, second succeeds
	assert.Equal(t, uint64(2), res.Successful)
	assert.Equal(t, uint64(2), res.Failed)
	assert.Equal(t, 2, gw.SubmitCount)
}

func TestRunAggregateInvariant(t *testing.T) {
	gw := gatewaytest.New()
	gw.Script(
		gatewaytest.SubmitScript{SubmitErr: &gateway.ErrTxTooLarge{}},
		gatewaytest.SubmitScript{DispatchErr: &gateway.DispatchError{Module: "contracts", Reason: "GoalNotReached"}},
	)
	o := newTestOrchestrator(t, gw, 3)

	reqs := withdrawals(8)
	res, err := o.Run(context.Background(), reqs)
	require.NoError(t, err)

	assert.Equal(t, uint64(len(reqs)), res.Successful+res.Failed)
	assert.Len(t, res.SucceededIDs, int(res.Successful))
	seen := make(map[uint32]bool)
	for _, id := range res.SucceededIDs {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestRunAssumedSuccessBatch(t *testing.T) {
	gw := gatewaytest.New()
	gw.Script(gatewaytest.SubmitScript{OmitOperationEvents: true})
	o := newTestOrchestrator(t, gw, 5)

	res, err := o.Run(context.Background(), withdrawals(3))
	require.NoError(t, err)

	assert.Equal(t, uint64(3), res.Successful)
	assert.Equal(t, uint64(1), res.AssumedBatches)
}

func TestRunProgress(t *testing.T) {
	gw := gatewaytest.New()
	o := newTestOrchestrator(t, gw, 5)
	ch := o.Progress().Subscribe()

	_, err := o.Run(context.Background(), withdrawals(7))
	require.NoError(t, err)

	want := []ProgressSnapshot{
		{Current: 0, Total: 7},
		{Current: 5, Total: 7},
		{Current: 7, Total: 7},
		{}, // reset after the run
	}
	for _, w := range want {
		assert.Equal(t, w, <-ch)
	}
	assert.Equal(t, ProgressSnapshot{}, o.Progress().Snapshot())
}

type blockingGateway struct {
	*gatewaytest.Gateway
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) SignAndSubmit(ctx context.Context, tx *gateway.UnsignedTx, s signer.Signer) (<-chan gateway.StatusUpdate, error) {
	close(g.entered)
	<-g.release
	return g.Gateway.SignAndSubmit(ctx, tx, s)
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	gw := &blockingGateway{
		Gateway: gatewaytest.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newTestOrchestrator(t, gw, 5)

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), withdrawals(2))
		done <- err
	}()

	<-gw.entered
	_, err := o.Run(context.Background(), withdrawals(1))
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(gw.release)
	require.NoError(t, <-done)
}

type cancelingGateway struct {
	*gatewaytest.Gateway
	cancel context.CancelFunc
	failOn int
	calls  int
}

func (g *cancelingGateway) SignAndSubmit(ctx context.Context, tx *gateway.UnsignedTx, s signer.Signer) (<-chan gateway.StatusUpdate, error) {
	g.calls++
	if g.calls == g.failOn {
		g.cancel()
		return nil, context.Canceled
	}
	return g.Gateway.SignAndSubmit(ctx, tx, s)
}

func TestRunCancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw := &cancelingGateway{Gateway: gatewaytest.New(), cancel: cancel, failOn: 2}
	o := newTestOrchestrator(t, gw, 2)

	res, err := o.Run(ctx, withdrawals(4))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, uint64(2), res.Successful)
}

func TestNewOrchestratorRejectsBadCeiling(t *testing.T) {
	_, err := NewOrchestrator(Config{Ceiling: 0}, gatewaytest.New(), testSigner(t), logtest.NewLogger(t), nil)
	assert.ErrorIs(t, err, ErrInvalidCeiling)
}
