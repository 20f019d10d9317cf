package types

// DecodedEvent is a typed per-operation notification decoded from the raw
// event stream of a finalized transaction. The set of variants is closed so
// the reconciler only ever matches over known shapes.
type DecodedEvent interface {
	decodedEvent()
}

// EventCampaignCreated reports that a create-campaign operation succeeded,
// carrying the id assigned on-chain.
type EventCampaignCreated struct {
	CampaignID uint32
}

// EventFundsWithdrawn reports that a withdrawal operation succeeded.
type EventFundsWithdrawn struct {
	CampaignID uint32
	Amount     Amount
}

// EventDonationReceived reports a donation recorded for a campaign.
type EventDonationReceived struct {
	CampaignID uint32
	Donor      string
	Amount     Amount
}

// EventExtrinsicSuccess is the transaction-level terminal success signal,
// emitted once per finalized transaction independently of the per-operation
// events.
type EventExtrinsicSuccess struct{}

// EventUnrecognized is produced for event shapes the decoder does not know.
type EventUnrecognized struct {
	Pallet string
	Name   string
}

func (EventCampaignCreated) decodedEvent()  {}
func (EventFundsWithdrawn) decodedEvent()   {}
func (EventDonationReceived) decodedEvent() {}
func (EventExtrinsicSuccess) decodedEvent() {}
func (EventUnrecognized) decodedEvent()     {}
