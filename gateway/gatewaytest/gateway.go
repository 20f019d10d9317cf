// Package gatewaytest provides a scripted in-memory gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Elactrac/dotnation-sub001/gateway"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/types"
)

// SubmitScript describes the behavior of one SignAndSubmit call. The zero
// value means "succeed with auto-generated per-operation events".
type SubmitScript struct {
	// SubmitErr is returned directly from SignAndSubmit (ingress rejection),
	// e.g. &gateway.ErrTxTooLarge{}.
	SubmitErr error

	// DispatchErr finalizes the transaction with a dispatch-level failure.
	DispatchErr *gateway.DispatchError

	// Events replaces the auto-generated event list when non-nil.
	Events []gateway.RawEvent

	// OmitOperationEvents finalizes with only the terminal success signal and
	// no decodable per-operation events.
	OmitOperationEvents bool

	// OmitSuccessSignal additionally drops the terminal success signal.
	OmitSuccessSignal bool
}

// Gateway is a scripted gateway.Gateway implementation. Submissions consume
// scripts in FIFO order; when the queue is empty the default success script
// applies.
type Gateway struct {
	mu sync.Mutex

	scripts []SubmitScript

	// NotReady makes BuildTransaction fail with gateway.ErrNotReady.
	NotReady bool

	nextCampaignID uint32
	campaigns      map[uint32]types.Campaign
	donations      map[uint32][]types.Donation

	// BuildSizes records the size of every built batch, in order.
	BuildSizes []int
	// SubmitCount is the number of SignAndSubmit calls made.
	SubmitCount int
}

var _ gateway.Gateway = &Gateway{}

// New creates an empty scripted gateway.
func New() *Gateway {
	return &Gateway{
		campaigns: make(map[uint32]types.Campaign),
		donations: make(map[uint32][]types.Donation),
	}
}

// Script appends submission scripts to the queue.
func (g *Gateway) Script(scripts ...SubmitScript) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripts = append(g.scripts, scripts...)
}

// SeedCampaign registers a campaign for the read-side methods.
func (g *Gateway) SeedCampaign(c types.Campaign, donations ...types.Donation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.campaigns[c.ID] = c
	g.donations[c.ID] = donations
	if c.ID >= g.nextCampaignID {
		g.nextCampaignID = c.ID + 1
	}
}

// BuildTransaction implements gateway.Gateway.
func (g *Gateway) BuildTransaction(_ context.Context, kind types.OperationKind, ops []types.OperationRequest, feeCeiling uint64) (*gateway.UnsignedTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.NotReady {
		return nil, gateway.ErrNotReady
	}
	g.BuildSizes = append(g.BuildSizes, len(ops))
	return &gateway.UnsignedTx{
		Kind:       kind,
		Ops:        ops,
		FeeCeiling: feeCeiling,
		Payload:    []byte(fmt.Sprintf("%s:%d", kind, len(ops))),
	}, nil
}

// SignAndSubmit implements gateway.Gateway by consuming the next script.
func (g *Gateway) SignAndSubmit(_ context.Context, tx *gateway.UnsignedTx, _ signer.Signer) (<-chan gateway.StatusUpdate, error) {
	g.mu.Lock()
	g.SubmitCount++
	var script SubmitScript
	if len(g.scripts) > 0 {
		script = g.scripts[0]
		g.scripts = g.scripts[1:]
	}

	if script.SubmitErr != nil {
		g.mu.Unlock()
		return nil, script.SubmitErr
	}

	events := script.Events
	if events == nil && !script.OmitOperationEvents {
		events = g.autoEventsLocked(tx.Ops)
	}
	if !script.OmitSuccessSignal {
		events = append(events, ExtrinsicSuccessEvent())
	}
	g.mu.Unlock()

	out := make(chan gateway.StatusUpdate, 2)
	out <- gateway.StatusUpdate{Stage: gateway.StageInBlock, BlockHash: "0xaa"}
	update := gateway.StatusUpdate{Stage: gateway.StageFinalized, BlockHash: "0xbb"}
	if script.DispatchErr != nil {
		update.DispatchErr = script.DispatchErr
	} else {
		update.Events = events
	}
	out <- update
	close(out)
	return out, nil
}

// autoEventsLocked fabricates one success event per operation, assigning fresh
// campaign ids to creates.
func (g *Gateway) autoEventsLocked(ops []types.OperationRequest) []gateway.RawEvent {
	events := make([]gateway.RawEvent, 0, len(ops))
	for _, op := range ops {
		switch o := op.(type) {
		case types.CreateCampaign:
			id := g.nextCampaignID
			g.nextCampaignID++
			events = append(events, CampaignCreatedEvent(id))
		case types.WithdrawFunds:
			events = append(events, FundsWithdrawnEvent(o.CampaignID, "0"))
		}
	}
	return events
}

// DecodeOperationEvent implements gateway.Gateway.
func (g *Gateway) DecodeOperationEvent(raw gateway.RawEvent) (types.DecodedEvent, error) {
	return gateway.DecodeEvent(raw)
}

// SubmitDonation implements gateway.Gateway by recording the donation against
// the seeded campaign.
func (g *Gateway) SubmitDonation(_ context.Context, campaignID uint32, amount types.Amount, s signer.Signer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.campaigns[campaignID]
	if !ok {
		return &gateway.DispatchError{Module: "contracts", Reason: "CampaignNotFound"}
	}
	donor := "unknown"
	if s != nil {
		if addr, err := s.Address(); err == nil {
			donor = addr
		}
	}
	c.Raised = c.Raised.Add(amount)
	g.campaigns[campaignID] = c
	g.donations[campaignID] = append(g.donations[campaignID], types.Donation{Donor: donor, Amount: amount})
	return nil
}

// Campaigns implements gateway.Gateway.
func (g *Gateway) Campaigns(context.Context) ([]types.Campaign, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]types.Campaign, 0, len(g.campaigns))
	for id := uint32(0); id < g.nextCampaignID; id++ {
		if c, ok := g.campaigns[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Campaign implements gateway.Gateway.
func (g *Gateway) Campaign(_ context.Context, id uint32) (*types.Campaign, []types.Donation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.campaigns[id]
	if !ok {
		return nil, nil, fmt.Errorf("campaign %d not found", id)
	}
	return &c, g.donations[id], nil
}

// CampaignCreatedEvent renders a decodable CampaignCreated raw event.
func CampaignCreatedEvent(id uint32) gateway.RawEvent {
	return gateway.RawEvent{
		Pallet: "contracts",
		Name:   "CampaignCreated",
		Data:   []byte(fmt.Sprintf(`{"campaign_id":%d}`, id)),
	}
}

// FundsWithdrawnEvent renders a decodable FundsWithdrawn raw event.
func FundsWithdrawnEvent(id uint32, plancks string) gateway.RawEvent {
	return gateway.RawEvent{
		Pallet: "contracts",
		Name:   "FundsWithdrawn",
		Data:   []byte(fmt.Sprintf(`{"campaign_id":%d,"amount":"%s"}`, id, plancks)),
	}
}

// ExtrinsicSuccessEvent renders the terminal transaction-level success signal.
func ExtrinsicSuccessEvent() gateway.RawEvent {
	return gateway.RawEvent{Pallet: "system", Name: "ExtrinsicSuccess"}
}

// UnknownEvent renders an event the decoder does not recognize.
func UnknownEvent() gateway.RawEvent {
	return gateway.RawEvent{Pallet: "balances", Name: "Transfer", Data: []byte(`{}`)}
}
