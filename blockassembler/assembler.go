package blockassembler

import (
	"math"
	"sort"

	"github.com/ValuedMammal/blockproj/audittx"
	"github.com/ValuedMammal/blockproj/priority"
)

// Constants of the ancestor-feerate / CPFP selection policy, bit-exact with
// the numbers this engine has always produced.
const (
	MaxBlockWU        uint64 = 4_000_000
	MaxFailures               = 500
	BlockGoal                 = 2
	coinbaseReserveWU uint64 = 4_000
	fullnessMargin    uint64 = MaxBlockWU / 1000
)

// Assembler builds projected blocks from a linked Pool.
type Assembler struct {
	pool       Pool
	nextHeight uint64
	fees       uint64
	weight     uint64
	inv        inventory
	blocks     []BlockSummary
	modified   *priority.Queue
	overflow   []int
}

type inventory struct {
	txn      []int
	scores   []float64
	failures int
	loScore  float64
	hiScore  float64
}

func newInventory() inventory {
	return inventory{loScore: math.Inf(1), hiScore: 0}
}

// New creates an Assembler from a linked Pool, numbering the first emitted
// full block startHeight.
func New(pool Pool, startHeight uint64) *Assembler {
	return &Assembler{
		pool:       pool,
		nextHeight: startHeight,
		weight:     coinbaseReserveWU,
		inv:        newInventory(),
		modified:   priority.NewQueue(),
	}
}

// Generate runs the full selection pipeline and returns the projected
// blocks, highest-feerate block first.
func (a *Assembler) Generate() []BlockSummary {
	for uid := 0; uid < len(a.pool); uid++ {
		a.setLinks(uid)
	}

	poolStack := a.initialOrdering()

	for len(poolStack) > 0 || a.modified.Len() > 0 {
		aTuple, aOK := a.peekPoolStack(&poolStack)
		mTuple, mOK := a.peekModified()

		var candidate *audittx.Node
		switch {
		case !aOK && !mOK:
			return a.finish()
		case !aOK:
			a.modified.Pop()
			candidate = a.pool[mTuple.UID]
		case !mOK:
			poolStack = poolStack[:len(poolStack)-1]
			candidate = a.pool[aTuple.UID]
		default:
			switch priority.Compare(aTuple, mTuple) {
			case 0:
				a.modified.Pop()
				poolStack = poolStack[:len(poolStack)-1]
				candidate = a.pool[mTuple.UID]
			case -1:
				a.modified.Pop()
				candidate = a.pool[mTuple.UID]
			default:
				poolStack = poolStack[:len(poolStack)-1]
				candidate = a.pool[aTuple.UID]
			}
		}

		if a.testPackageFits(candidate) || len(a.blocks) >= BlockGoal {
			a.commitPackage(candidate)
			a.inv.failures = 0
		} else {
			a.overflow = append(a.overflow, candidate.UID)
			a.inv.failures++
		}

		exceededAttempts := a.inv.failures >= MaxFailures && a.isFull()
		queueEmpty := len(poolStack) == 0 && a.modified.Len() == 0
		if (exceededAttempts || queueEmpty) && len(a.blocks) < BlockGoal {
			a.blocks = append(a.blocks, a.makeBlock(true))
			a.clear()
			poolStack = a.recycleOverflow(poolStack)
		}
	}

	return a.finish()
}

func (a *Assembler) finish() []BlockSummary {
	if len(a.inv.txn) > 0 {
		a.blocks = append(a.blocks, a.makeBlock(false))
	}
	return a.blocks
}

// initialOrdering returns every uid in the pool sorted ascending by
// priority tuple, so the last element is the top-scoring candidate.
func (a *Assembler) initialOrdering() []int {
	nodes := make([]*audittx.Node, 0, len(a.pool))
	for _, n := range a.pool {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return priority.Compare(nodes[i].Priority(), nodes[j].Priority()) < 0
	})
	uids := make([]int, len(nodes))
	for i, n := range nodes {
		uids[i] = n.UID
	}
	return uids
}

// peekPoolStack returns the priority of the first unused uid from the back
// of the stack, permanently discarding any used uids it passes over.
func (a *Assembler) peekPoolStack(stack *[]int) (priority.Tuple, bool) {
	s := *stack
	for len(s) > 0 {
		uid := s[len(s)-1]
		if !a.pool[uid].Used {
			*stack = s
			return a.pool[uid].Priority(), true
		}
		s = s[:len(s)-1]
	}
	*stack = s
	return priority.Tuple{}, false
}

func (a *Assembler) peekModified() (priority.Tuple, bool) {
	for {
		t, ok := a.modified.Peek()
		if !ok {
			return priority.Tuple{}, false
		}
		if !a.pool[t.UID].Used {
			return t, true
		}
		a.modified.Pop()
	}
}

func (a *Assembler) isFull() bool {
	return a.weight >= MaxBlockWU-fullnessMargin
}

func (a *Assembler) testPackageFits(n *audittx.Node) bool {
	return a.weight+n.AncestorWeight < MaxBlockWU
}

func (a *Assembler) clear() {
	a.fees = 0
	a.weight = coinbaseReserveWU
	a.inv = newInventory()
	a.nextHeight++
}

// recycleOverflow routes every not-yet-used overflow uid back into the
// pool stack or the modified heap, in LIFO order.
func (a *Assembler) recycleOverflow(poolStack []int) []int {
	for len(a.overflow) > 0 {
		n := len(a.overflow) - 1
		uid := a.overflow[n]
		a.overflow = a.overflow[:n]
		node := a.pool[uid]
		if node.Used {
			continue
		}
		if node.Modified {
			a.modified.Upsert(node.Priority())
		} else {
			poolStack = append(poolStack, uid)
		}
	}
	return poolStack
}
