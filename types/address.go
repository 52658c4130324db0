package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account. Identity equality is address equality.
type Address = common.Address

// ZeroAddress is the all-zero address. It never identifies a caller.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed, 20-byte hex address.
// Checksum casing is accepted but not enforced.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("address: parse %q: not a 20-byte hex address", s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Use for hardcoded addresses.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
