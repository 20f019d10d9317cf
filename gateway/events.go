package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/Elactrac/dotnation-sub001/types"
)

// Event names emitted by the donation platform contract and the system pallet.
const (
	palletContracts = "contracts"
	palletSystem    = "system"

	eventCampaignCreated  = "CampaignCreated"
	eventDonationReceived = "DonationReceived"
	eventFundsWithdrawn   = "FundsWithdrawn"
	eventExtrinsicSuccess = "ExtrinsicSuccess"
)

type campaignCreatedData struct {
	CampaignID uint32 `json:"campaign_id"`
}

type fundsWithdrawnData struct {
	CampaignID uint32 `json:"campaign_id"`
	Amount     string `json:"amount"`
}

type donationReceivedData struct {
	CampaignID uint32 `json:"campaign_id"`
	Donor      string `json:"donor"`
	Amount     string `json:"amount"`
}

// DecodeEvent maps a raw event onto the closed DecodedEvent variant set by
// pallet and event name. Unknown shapes come back as EventUnrecognized with a
// nil error; a malformed payload of a known shape is an error.
func DecodeEvent(raw RawEvent) (types.DecodedEvent, error) {
	switch {
	case raw.Pallet == palletSystem && raw.Name == eventExtrinsicSuccess:
		return types.EventExtrinsicSuccess{}, nil

	case raw.Pallet == palletContracts && raw.Name == eventCampaignCreated:
		var d campaignCreatedData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", raw.Name, err)
		}
		return types.EventCampaignCreated{CampaignID: d.CampaignID}, nil

	case raw.Pallet == palletContracts && raw.Name == eventFundsWithdrawn:
		var d fundsWithdrawnData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", raw.Name, err)
		}
		amount, err := parsePlancks(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("decode %s amount: %w", raw.Name, err)
		}
		return types.EventFundsWithdrawn{CampaignID: d.CampaignID, Amount: amount}, nil

	case raw.Pallet == palletContracts && raw.Name == eventDonationReceived:
		var d donationReceivedData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", raw.Name, err)
		}
		amount, err := parsePlancks(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("decode %s amount: %w", raw.Name, err)
		}
		return types.EventDonationReceived{CampaignID: d.CampaignID, Donor: d.Donor, Amount: amount}, nil

	default:
		return types.EventUnrecognized{Pallet: raw.Pallet, Name: raw.Name}, nil
	}
}

func parsePlancks(s string) (types.Amount, error) {
	var a types.Amount
	if err := a.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		return types.Amount{}, err
	}
	return a, nil
}
