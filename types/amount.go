package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// PlancksDecimals is the number of decimal places between a planck (the
// smallest indivisible unit of the native currency) and one display unit. All
// arithmetic is done in plancks to avoid floating-point error.
const PlancksDecimals = 10

var plancksPerUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(PlancksDecimals), nil)

var (
	// ErrInvalidAmount is returned when an amount string cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount is returned when arithmetic would produce a negative amount.
	ErrNegativeAmount = errors.New("negative amount")
)

// Amount is a non-negative quantity of the native currency, held in plancks.
//
// The zero value is a valid zero amount.
type Amount struct {
	plancks big.Int
}

// NewAmountFromPlancks builds an Amount from a raw planck count.
func NewAmountFromPlancks(plancks uint64) Amount {
	var a Amount
	a.plancks.SetUint64(plancks)
	return a
}

// ParseAmount parses a decimal display-unit string ("12", "0.5", "3.1415") into
// an Amount. At most PlancksDecimals fractional digits are accepted.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > PlancksDecimals {
		return Amount{}, fmt.Errorf("%w: more than %d fractional digits in %q", ErrInvalidAmount, PlancksDecimals, s)
	}
	// right-pad the fraction to a full planck count
	frac += strings.Repeat("0", PlancksDecimals-len(frac))

	w, ok := new(big.Int).SetString(whole, 10)
	if !ok || w.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	var f *big.Int
	if frac == strings.Repeat("0", PlancksDecimals) {
		f = new(big.Int)
	} else {
		f, ok = new(big.Int).SetString(frac, 10)
		if !ok || f.Sign() < 0 {
			return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}

	var a Amount
	a.plancks.Mul(w, plancksPerUnit)
	a.plancks.Add(&a.plancks, f)
	return a, nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.plancks.Sign() > 0
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.plancks.Sign() == 0
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	var r Amount
	r.plancks.Add(&a.plancks, &b.plancks)
	return r
}

// Sub returns a - b, or ErrNegativeAmount if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.plancks.Cmp(&b.plancks) < 0 {
		return Amount{}, ErrNegativeAmount
	}
	var r Amount
	r.plancks.Sub(&a.plancks, &b.plancks)
	return r, nil
}

// Cmp compares a and b, returning -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.plancks.Cmp(&b.plancks)
}

// Plancks returns the raw planck count as a decimal string.
func (a Amount) Plancks() string {
	return a.plancks.String()
}

// String renders the amount in display units with trailing zeros trimmed.
func (a Amount) String() string {
	q, r := new(big.Int).QuoRem(&a.plancks, plancksPerUnit, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%0*s", PlancksDecimals, r.String()), "0")
	return q.String() + "." + frac
}

// MarshalJSON encodes the amount as its planck count string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.plancks.String() + `"`), nil
}

// UnmarshalJSON decodes a planck count string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	a.plancks.Set(v)
	return nil
}
