// Package types provides common types used across points.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 256-bit quantity of points or transferred value.
// All arithmetic is integer-only and never wraps: Add reports overflow,
// Sub reports underflow, and callers reject the operation instead.
//
// The zero value is zero and ready to use.
type Amount struct {
	v uint256.Int
}

// NewAmount creates an Amount from a uint64.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// AmountFromUint256 copies a uint256.Int into an Amount.
func AmountFromUint256(x *uint256.Int) Amount {
	var a Amount
	if x != nil {
		a.v.Set(x)
	}
	return a
}

// ParseAmount parses a base-10 string, or a 0x-prefixed hex string,
// into an Amount. Negative numbers and values above 2^256-1 are rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("amount: parse %q: empty string", s)
	}

	var (
		x   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		x, err = uint256.FromHex(s)
	} else {
		x, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return Amount{}, fmt.Errorf("amount: parse %q: %w", s, err)
	}

	return AmountFromUint256(x), nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Arithmetic operations

// Add returns a+b. The second result is true if the sum overflowed,
// in which case the first result must be discarded.
func (a Amount) Add(b Amount) (Amount, bool) {
	var sum Amount
	_, overflow := sum.v.AddOverflow(&a.v, &b.v)
	return sum, overflow
}

// Sub returns a-b. The second result is true if b > a, in which case
// the first result must be discarded.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var diff Amount
	_, underflow := diff.v.SubOverflow(&a.v, &b.v)
	return diff, underflow
}

// Comparison methods

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to,
// or greater than b.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.v.Eq(&b.v) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return !a.v.IsZero() }

// Conversion methods

// Uint64 returns the amount as a uint64. The second result is false
// if the amount does not fit.
func (a Amount) Uint64() (uint64, bool) {
	if !a.v.IsUint64() {
		return 0, false
	}
	return a.v.Uint64(), true
}

// Float64 returns a lossy float64 approximation, for metrics only.
func (a Amount) Float64() float64 {
	if a.v.IsUint64() {
		return float64(a.v.Uint64())
	}
	f, _ := new(big.Float).SetInt(a.v.ToBig()).Float64()
	return f
}

// Uint256 returns a copy of the underlying integer.
func (a Amount) Uint256() *uint256.Int { return new(uint256.Int).Set(&a.v) }

// String returns the base-10 representation.
func (a Amount) String() string { return a.v.Dec() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a base-10 JSON string so values
// above 2^53 survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.Dec())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	} else {
		s = string(data)
	}
	return a.UnmarshalText([]byte(s))
}

// Sum adds all values, reporting overflow if any partial sum overflowed.
func Sum(values ...Amount) (Amount, bool) {
	var total Amount
	for _, v := range values {
		var overflow bool
		total, overflow = total.Add(v)
		if overflow {
			return Amount{}, true
		}
	}
	return total, false
}
