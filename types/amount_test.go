package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		plancks string
		str     string
		wantErr bool
	}{
		{name: "integer", in: "12", plancks: "120000000000", str: "12"},
		{name: "fraction", in: "0.5", plancks: "5000000000", str: "0.5"},
		{name: "full precision", in: "0.0000000001", plancks: "1", str: "0.0000000001"},
		{name: "zero", in: "0", plancks: "0", str: "0"},
		{name: "leading dot", in: ".25", plancks: "2500000000", str: "0.25"},
		{name: "whitespace", in: " 3 ", plancks: "30000000000", str: "3"},
		{name: "too many digits", in: "0.00000000001", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAmount(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.plancks, a.Plancks())
			assert.Equal(t, tc.str, a.String())
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmountFromPlancks(100)
	b := NewAmountFromPlancks(40)

	assert.Equal(t, "140", a.Add(b).Plancks())

	d, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "60", d.Plancks())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	assert.True(t, a.IsPositive())
	assert.True(t, Amount{}.IsZero())
	assert.Equal(t, 1, a.Cmp(b))
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := NewAmountFromPlancks(123456789)
	blob, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"123456789"`, string(blob))

	var back Amount
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, 0, a.Cmp(back))
}
