package types

import "fmt"

// CampaignState mirrors the on-chain campaign lifecycle.
type CampaignState uint8

const (
	// CampaignActive accepts donations until its deadline.
	CampaignActive CampaignState = iota
	// CampaignSuccessful reached its goal before the deadline.
	CampaignSuccessful
	// CampaignFailed passed its deadline without reaching the goal.
	CampaignFailed
	// CampaignWithdrawn has had its raised funds paid out.
	CampaignWithdrawn
)

// String implements fmt.Stringer.
func (s CampaignState) String() string {
	switch s {
	case CampaignActive:
		return "active"
	case CampaignSuccessful:
		return "successful"
	case CampaignFailed:
		return "failed"
	case CampaignWithdrawn:
		return "withdrawn"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// MarshalJSON encodes the state as its string name.
func (s CampaignState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a state string name.
func (s *CampaignState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"active"`:
		*s = CampaignActive
	case `"successful"`:
		*s = CampaignSuccessful
	case `"failed"`:
		*s = CampaignFailed
	case `"withdrawn"`:
		*s = CampaignWithdrawn
	default:
		return fmt.Errorf("unknown campaign state %s", data)
	}
	return nil
}

// Campaign is the client-side view of one on-chain campaign record.
type Campaign struct {
	ID          uint32        `json:"id"`
	Owner       string        `json:"owner"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Goal        Amount        `json:"goal"`
	Raised      Amount        `json:"raised"`
	Deadline    int64         `json:"deadline"`
	State       CampaignState `json:"state"`
	Beneficiary string        `json:"beneficiary"`
}

// Donation is one recorded contribution to a campaign.
type Donation struct {
	Donor     string `json:"donor"`
	Amount    Amount `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}
