// Package audittx defines the per-transaction scoring record consumed by
// the block assembler: ancestor/descendant links, ancestor fee and weight
// aggregates, and the ancestor-feerate score that drives package selection.
package audittx

import (
	"math"

	"github.com/ValuedMammal/blockproj/priority"
)

// Node is a mempool transaction augmented with the bookkeeping the block
// assembler needs to rank and commit it as part of a CPFP package.
type Node struct {
	UID     int
	Order   uint32
	Fee     uint64
	Weight  uint64
	Feerate float64

	Parents   map[int]struct{}
	Ancestors map[int]struct{}
	Children  map[int]struct{}

	AncestorFee    uint64
	AncestorWeight uint64
	Score          float64

	// DependencyRate is the running minimum effective feerate contributed
	// by any already-committed ancestor. It starts at +Inf and only ever
	// decreases.
	DependencyRate float64

	Used     bool
	Modified bool
	LinksSet bool
}

// New creates a Node for the given mempool entry. Callers must call PreFill
// before the node is used by the assembler.
func New(uid int, order uint32, fee, weight uint64, parents map[int]struct{}) *Node {
	if parents == nil {
		parents = make(map[int]struct{})
	}
	return &Node{
		UID:     uid,
		Order:   order,
		Fee:     fee,
		Weight:  weight,
		Parents: parents,
	}
}

// PreFill sets a freshly created Node's individual-feerate fields and
// parent-less ancestor defaults.
func (n *Node) PreFill() {
	n.Feerate = feerate(n.Fee, n.Weight)
	n.AncestorFee = n.Fee
	n.AncestorWeight = n.Weight
	n.Score = n.Feerate
	n.DependencyRate = math.Inf(1)
	n.Ancestors = make(map[int]struct{})
	n.Children = make(map[int]struct{})
	n.LinksSet = len(n.Parents) == 0
}

// Priority returns the tuple used to rank n against its peers in the pool
// stack and the modified heap.
func (n *Node) Priority() priority.Tuple {
	return priority.Tuple{Score: n.Score, Order: n.Order, UID: n.UID}
}

// feerate computes fee per virtual byte given a weight in weight units.
func feerate(fee, weight uint64) float64 {
	return float64(fee) / (float64(weight) / 4)
}
