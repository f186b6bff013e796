package blockassembler

import (
	"math"
	"sort"
)

// BlockSummary is one projected block: its committed package, aggregate
// weight and fees, and (for full blocks) the feerate distribution used to
// justify the projection.
type BlockSummary struct {
	// Height is the projected block height; nil for the unbounded tail
	// block that absorbs whatever is left once BlockGoal blocks have
	// already been filled.
	Height *uint64
	// Txn lists the committed uids in commit order: this is the block's
	// transaction order. Ancestors always precede their descendants.
	Txn      []int
	TxCount  int
	Weight   uint64
	Fees     float64 // BTC
	FeeRange [2]float64
	Failures int

	FeeCutoff              *float64
	MedianEffectiveFeerate *float64
	FeeHistogram           *Histogram
}

const satPerBTC = 1e8

func (a *Assembler) makeBlock(isFull bool) BlockSummary {
	txn := append([]int(nil), a.inv.txn...)

	summary := BlockSummary{
		Txn:      txn,
		TxCount:  len(txn),
		Weight:   a.weight,
		Fees:     float64(a.fees) / satPerBTC,
		FeeRange: [2]float64{truncate3(a.inv.loScore), truncate3(a.inv.hiScore)},
		Failures: a.inv.failures,
	}

	if isFull {
		height := a.nextHeight
		summary.Height = &height

		hist := a.histogram(txn)
		summary.FeeHistogram = &hist

		sorted := append([]float64(nil), a.inv.scores...)
		sort.Float64s(sorted)
		if len(sorted) > 0 {
			median := medianFromSorted(sorted)
			summary.MedianEffectiveFeerate = &median
			cutoff := percentile90(sorted)
			summary.FeeCutoff = &cutoff
		}
	}

	return summary
}

// truncate3 truncates x to three decimal places (floor after scaling).
func truncate3(x float64) float64 {
	return math.Floor(x*1000) / 1000
}

// medianFromSorted returns the median of a non-empty, ascending-sorted
// sequence, truncated to three decimals.
func medianFromSorted(seq []float64) float64 {
	n := len(seq)
	if n == 0 {
		panic("blockassembler: median of empty sequence")
	}
	if n%2 == 0 {
		lhs, rhs := n/2-1, n/2
		return truncate3((seq[lhs] + seq[rhs]) / 2)
	}
	return truncate3(seq[(n-1)/2])
}

// percentile90 returns the value at index floor(0.9*(n-1)) of a non-empty,
// ascending-sorted sequence, truncated to three decimals.
func percentile90(seq []float64) float64 {
	if len(seq) == 0 {
		panic("blockassembler: percentile of empty sequence")
	}
	idx := int(0.9 * float64(len(seq)-1))
	return truncate3(seq[idx])
}
