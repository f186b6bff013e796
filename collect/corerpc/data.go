package corerpc

// rawMempoolEntry is the subset of getrawmempool's verbose entry fields
// ingest needs: fee (in BTC), weight, and in-mempool parents by txid.
type rawMempoolEntry struct {
	Weight  uint64   `json:"weight"`
	VSize   uint64   `json:"vsize"`
	Fee     float64  `json:"fee"`
	Depends []string `json:"depends"`
}

const coin = 100_000_000
