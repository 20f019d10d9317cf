package batch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elactrac/dotnation-sub001/types"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func validBeneficiary(t *testing.T) string {
	t.Helper()
	id := make([]byte, 32)
	id[0] = 1
	addr, err := types.EncodeAddress(id)
	require.NoError(t, err)
	return addr
}

func validCreate(t *testing.T) types.CreateCampaign {
	return types.CreateCampaign{
		Title:       "Community well",
		Description: "Dig a well for the village",
		Goal:        "100",
		Deadline:    testNow.Add(48 * time.Hour).Unix(),
		Beneficiary: validBeneficiary(t),
	}
}

func TestValidateOperationsEmptyInput(t *testing.T) {
	_, err := ValidateOperations(nil, testNow)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ValidateOperations([]types.OperationRequest{}, testNow)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestValidateOperationsAcceptsValidRequests(t *testing.T) {
	creates := []types.OperationRequest{
		validCreate(t),
		validCreate(t),
	}
	out, err := ValidateOperations(creates, testNow)
	require.NoError(t, err)
	assert.Equal(t, creates, out)

	withdrawals := []types.OperationRequest{
		types.WithdrawFunds{CampaignID: 3},
		types.WithdrawFunds{CampaignID: 4},
	}
	out, err = ValidateOperations(withdrawals, testNow)
	require.NoError(t, err)
	assert.Equal(t, withdrawals, out)
}

func TestValidateOperationsRejectsMixedKinds(t *testing.T) {
	reqs := []types.OperationRequest{
		validCreate(t),
		types.WithdrawFunds{CampaignID: 3},
	}
	_, err := ValidateOperations(reqs, testNow)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, 1, verr.Violations[0].Index)
	assert.Equal(t, "kind", verr.Violations[0].Field)
}

func TestValidateOperationsCreateViolations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*types.CreateCampaign)
		field  string
	}{
		{name: "empty title", mutate: func(c *types.CreateCampaign) { c.Title = "" }, field: "title"},
		{name: "title too long", mutate: func(c *types.CreateCampaign) { c.Title = strings.Repeat("x", MaxTitleLen+1) }, field: "title"},
		{name: "description too long", mutate: func(c *types.CreateCampaign) { c.Description = strings.Repeat("x", MaxDescriptionLen+1) }, field: "description"},
		{name: "garbage goal", mutate: func(c *types.CreateCampaign) { c.Goal = "ten" }, field: "goal"},
		{name: "zero goal", mutate: func(c *types.CreateCampaign) { c.Goal = "0" }, field: "goal"},
		{name: "deadline too soon", mutate: func(c *types.CreateCampaign) { c.Deadline = testNow.Add(30 * time.Minute).Unix() }, field: "deadline"},
		{name: "deadline in the past", mutate: func(c *types.CreateCampaign) { c.Deadline = testNow.Add(-time.Hour).Unix() }, field: "deadline"},
		{name: "deadline too far", mutate: func(c *types.CreateCampaign) { c.Deadline = testNow.Add(2 * 365 * 24 * time.Hour).Unix() }, field: "deadline"},
		{name: "bad beneficiary", mutate: func(c *types.CreateCampaign) { c.Beneficiary = "nonsense" }, field: "beneficiary"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op := validCreate(t)
			tc.mutate(&op)

			_, err := ValidateOperations([]types.OperationRequest{op}, testNow)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Violations, 1)
			assert.Equal(t, 0, verr.Violations[0].Index)
			assert.Equal(t, tc.field, verr.Violations[0].Field)
		})
	}
}

func TestValidateOperationsCollectsAllViolations(t *testing.T) {
	bad := validCreate(t)
	bad.Title = ""
	bad.Goal = "-5"
	badBeneficiary := validCreate(t)
	badBeneficiary.Beneficiary = "nonsense"

	reqs := []types.OperationRequest{
		bad,
		validCreate(t),
		badBeneficiary,
	}
	_, err := ValidateOperations(reqs, testNow)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 3)
	assert.Equal(t, 0, verr.Violations[0].Index)
	assert.Equal(t, 0, verr.Violations[1].Index)
	assert.Equal(t, 2, verr.Violations[2].Index)
	assert.Equal(t, "beneficiary", verr.Violations[2].Field)
}

func TestValidateOperationsWithdrawViolations(t *testing.T) {
	reqs := []types.OperationRequest{
		types.WithdrawFunds{CampaignID: 0},
		types.WithdrawFunds{CampaignID: 7},
	}
	_, err := ValidateOperations(reqs, testNow)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, 0, verr.Violations[0].Index)
	assert.Equal(t, "campaign_id", verr.Violations[0].Field)
}
