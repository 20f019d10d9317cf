package gateway

import (
	"context"
	"encoding/json"

	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/types"
)

// Gateway is the ledger-facing collaborator of the batch engine. It owns the
// wire format entirely; the batch engine only sees typed results.
type Gateway interface {
	// BuildTransaction encodes the given operations, all of the same kind,
	// into one unsigned transaction. Returns ErrNotReady when the contract
	// session is not established.
	BuildTransaction(ctx context.Context, kind types.OperationKind, ops []types.OperationRequest, feeCeiling uint64) (*UnsignedTx, error)

	// SignAndSubmit signs tx and submits it, returning a channel of status
	// updates for the transaction's lifecycle. The channel is closed after a
	// terminal update. A submission rejected at the node ingress is reported
	// as an error return (see IsResourceExhausted).
	SignAndSubmit(ctx context.Context, tx *UnsignedTx, s signer.Signer) (<-chan StatusUpdate, error)

	// DecodeOperationEvent turns one raw event of a finalized transaction into
	// a typed DecodedEvent.
	DecodeOperationEvent(raw RawEvent) (types.DecodedEvent, error)

	// SubmitDonation submits a single payable donate call outside of the
	// batching path.
	SubmitDonation(ctx context.Context, campaignID uint32, amount types.Amount, s signer.Signer) error

	// Campaigns returns all campaigns known to the contract.
	Campaigns(ctx context.Context) ([]types.Campaign, error)

	// Campaign returns one campaign and its recorded donations.
	Campaign(ctx context.Context, id uint32) (*types.Campaign, []types.Donation, error)
}

// UnsignedTx is an encoded but unsigned transaction. Payload is opaque to
// everything but the gateway implementation that produced it.
type UnsignedTx struct {
	Kind       types.OperationKind
	Ops        []types.OperationRequest
	FeeCeiling uint64
	Payload    []byte
}

// Stage is a point in the transaction status lifecycle.
type Stage int

const (
	// StageInBlock means the transaction was included in a (non-final) block.
	StageInBlock Stage = iota
	// StageFinalized means the transaction's effects are irreversible.
	StageFinalized
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageInBlock:
		return "in_block"
	case StageFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// StatusUpdate is one notification of the transaction lifecycle.
// StageFinalized is terminal: it carries either the raw events of the
// transaction or a dispatch error.
type StatusUpdate struct {
	Stage     Stage
	BlockHash string

	// Events are the raw events attached to the transaction; only populated
	// at StageFinalized.
	Events []RawEvent

	// DispatchErr is non-nil when the transaction finalized with a
	// dispatch-level failure. No per-operation accounting is possible then.
	DispatchErr error
}

// RawEvent is an undecoded ledger event scoped to one transaction.
type RawEvent struct {
	Pallet string          `json:"pallet"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
}
