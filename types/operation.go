package types

import "fmt"

// OperationKind discriminates the state-changing contract calls that can be
// batched into a single transaction. Operations of different kinds are never
// mixed within one batch.
type OperationKind uint8

const (
	// KindCreateCampaign creates a new crowdfunding campaign.
	KindCreateCampaign OperationKind = iota
	// KindWithdrawFunds withdraws raised funds from a finished campaign.
	KindWithdrawFunds
)

// String implements fmt.Stringer.
func (k OperationKind) String() string {
	switch k {
	case KindCreateCampaign:
		return "create_campaign"
	case KindWithdrawFunds:
		return "withdraw_funds"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// OperationRequest is one contract call supplied by the caller. Requests are
// immutable once validated; the batch engine never mutates them.
type OperationRequest interface {
	Kind() OperationKind
}

// CreateCampaign asks the contract to open a new campaign.
//
// Goal carries the display-unit decimal string as entered by the caller; it is
// converted to plancks at validation time and again when the transaction is
// built. Deadline is a unix timestamp in seconds.
type CreateCampaign struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Goal        string `json:"goal"`
	Deadline    int64  `json:"deadline"`
	Beneficiary string `json:"beneficiary"`
}

// Kind implements OperationRequest.
func (CreateCampaign) Kind() OperationKind { return KindCreateCampaign }

// WithdrawFunds asks the contract to pay out a campaign's raised funds to its
// beneficiary.
type WithdrawFunds struct {
	CampaignID uint32 `json:"campaign_id"`
}

// Kind implements OperationRequest.
func (WithdrawFunds) Kind() OperationKind { return KindWithdrawFunds }
