package blockassembler

// Histogram buckets committed block weight by ancestor score (sat/vB).
type Histogram [12]HistogramBucket

// HistogramBucket is a single weight-feerate bucket.
type HistogramBucket struct {
	Label  string
	Weight uint64
}

var histogramLabels = [12]string{
	"1-2", "2-3", "3-4", "4-5", "5-10", "10-15",
	"15-20", "20-25", "25-50", "50-100", "100-500", "500+",
}

func (a *Assembler) histogram(txn []int) Histogram {
	var h Histogram
	for i, label := range histogramLabels {
		h[i].Label = label
	}
	for _, uid := range txn {
		node := a.pool[uid]
		h[bucketFor(node.Score)].Weight += node.Weight
	}
	return h
}

func bucketFor(score float64) int {
	switch {
	case score < 2:
		return 0
	case score < 3:
		return 1
	case score < 4:
		return 2
	case score < 5:
		return 3
	case score < 10:
		return 4
	case score < 15:
		return 5
	case score < 20:
		return 6
	case score < 25:
		return 7
	case score < 50:
		return 8
	case score < 100:
		return 9
	case score < 500:
		return 10
	default:
		return 11
	}
}
