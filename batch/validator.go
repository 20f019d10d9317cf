package batch

import (
	"time"

	"github.com/Elactrac/dotnation-sub001/types"
)

const (
	// MaxTitleLen caps campaign titles.
	MaxTitleLen = 128
	// MaxDescriptionLen caps campaign descriptions.
	MaxDescriptionLen = 4096

	// MinDeadlineLead is the minimum distance of a campaign deadline from now.
	MinDeadlineLead = time.Hour
	// MaxDeadlineLead is the maximum distance of a campaign deadline from now.
	MaxDeadlineLead = 365 * 24 * time.Hour
)

// ValidateOperations checks every request and returns them unchanged on
// success. All requests must share the kind of the first one; violations are
// collected across the whole list and returned as one *ValidationError, and
// an empty list fails with ErrEmptyInput. The function is pure: its result
// depends only on reqs and now.
func ValidateOperations(reqs []types.OperationRequest, now time.Time) ([]types.OperationRequest, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyInput
	}

	var violations []FieldError
	addViolation := func(i int, field, msg string) {
		violations = append(violations, FieldError{Index: i, Field: field, Message: msg})
	}

	// a batch holds operations of exactly one kind
	batchKind := reqs[0].Kind()
	for i, req := range reqs {
		if req.Kind() != batchKind {
			addViolation(i, "kind", "does not match the batch's operation kind")
			continue
		}
		switch op := req.(type) {
		case types.CreateCampaign:
			validateCreate(i, op, now, addViolation)
		case types.WithdrawFunds:
			if op.CampaignID == 0 {
				addViolation(i, "campaign_id", "must be a positive integer")
			}
		default:
			addViolation(i, "kind", "unknown operation kind")
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return reqs, nil
}

func validateCreate(i int, op types.CreateCampaign, now time.Time, add func(int, string, string)) {
	if op.Title == "" {
		add(i, "title", "must not be empty")
	} else if len(op.Title) > MaxTitleLen {
		add(i, "title", "too long")
	}

	if len(op.Description) > MaxDescriptionLen {
		add(i, "description", "too long")
	}

	goal, err := types.ParseAmount(op.Goal)
	if err != nil {
		add(i, "goal", "must be a decimal amount")
	} else if !goal.IsPositive() {
		add(i, "goal", "must be positive")
	}

	deadline := time.Unix(op.Deadline, 0)
	if deadline.Before(now.Add(MinDeadlineLead)) {
		add(i, "deadline", "must be at least 1 hour in the future")
	} else if deadline.After(now.Add(MaxDeadlineLead)) {
		add(i, "deadline", "must be at most 1 year in the future")
	}

	if !types.ValidAddress(op.Beneficiary) {
		add(i, "beneficiary", "not a valid address")
	}
}
