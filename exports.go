package points

import "github.com/xraph/points/types"

// Re-export common types for convenience so users don't have to import types package.

// Address is re-exported from types package.
type Address = types.Address

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export constructors
var (
	NewAmount    = types.NewAmount
	ParseAmount  = types.ParseAmount
	ParseAddress = types.ParseAddress
	NewEntity    = types.NewEntity
)
