// Package reward defines the fixed reward tier table.
package reward

import (
	"github.com/xraph/points/types"
)

// Tier is one redeemable reward.
type Tier struct {
	Index int          `json:"index"`
	Cost  types.Amount `json:"cost"`
}

// Table maps reward indices to point costs. Indices are dense from 0.
// A Table is immutable once built; accessors return copies.
type Table struct {
	costs []types.Amount
}

// NewTable builds a table where costs[i] is the cost of reward i.
func NewTable(costs ...uint64) Table {
	t := Table{costs: make([]types.Amount, len(costs))}
	for i, c := range costs {
		t.costs[i] = types.NewAmount(c)
	}
	return t
}

// Default returns the standard table {0:1000, 1:500, 2:250, 3:100}.
func Default() Table {
	return NewTable(1000, 500, 250, 100)
}

// Cost returns the cost of reward index. The second result is false when
// index is outside the table.
func (t Table) Cost(index int) (types.Amount, bool) {
	if index < 0 || index >= len(t.costs) {
		return types.Amount{}, false
	}
	return t.costs[index], true
}

// Len returns the number of rewards.
func (t Table) Len() int { return len(t.costs) }

// Tiers returns every reward in index order.
func (t Table) Tiers() []Tier {
	out := make([]Tier, len(t.costs))
	for i, c := range t.costs {
		out[i] = Tier{Index: i, Cost: c}
	}
	return out
}
