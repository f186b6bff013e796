// Package blockassembler builds projected blocks from a mempool snapshot
// using the ancestor-feerate / child-pays-for-parent selection policy: it
// links transactions into ancestor packages, repeatedly commits the
// best-scoring eligible package to the current block, and rescores every
// descendant of a committed transaction before continuing.
package blockassembler

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ValuedMammal/blockproj/audittx"
)

// RawEntry is one mempool entry as supplied by the ingest collaborator,
// typically sourced from a bitcoind getrawmempool verbose response. Fee is
// already the entry's modified fee; Weight takes precedence over 4*VSize
// when both are set.
type RawEntry struct {
	Txid    string
	Fee     uint64
	Weight  uint64
	VSize   uint64
	Depends []string
}

// Index maps mempool txids to the dense uid namespace used internally, and
// back.
type Index struct {
	ToUID  map[string]int
	ToTxid map[int]string
}

// Pool is the full set of audited transactions for one Generate run, keyed
// by uid.
type Pool map[int]*audittx.Node

// NewPool assigns a dense uid to each entry in order, then builds the audit
// pool. Entries must be given in a stable order: Go map iteration order is
// randomized, so a caller reading mempool data from an unordered map must
// impose its own order (e.g. sort by txid) before calling NewPool, since
// uid assignment order feeds into the deterministic tie-break order the
// selection loop relies on.
func NewPool(entries []RawEntry) (*Index, Pool, error) {
	idx := &Index{
		ToUID:  make(map[string]int, len(entries)),
		ToTxid: make(map[int]string, len(entries)),
	}
	for i, e := range entries {
		idx.ToUID[e.Txid] = i
		idx.ToTxid[i] = e.Txid
	}

	pool := make(Pool, len(entries))
	for i, e := range entries {
		order, err := orderFromTxid(e.Txid)
		if err != nil {
			return nil, nil, fmt.Errorf("blockassembler: entry %q: %w", e.Txid, err)
		}
		parents := make(map[int]struct{}, len(e.Depends))
		for _, dep := range e.Depends {
			puid, ok := idx.ToUID[dep]
			if !ok {
				return nil, nil, fmt.Errorf("blockassembler: entry %q depends on unknown txid %q", e.Txid, dep)
			}
			parents[puid] = struct{}{}
		}
		weight := e.Weight
		if weight == 0 {
			weight = e.VSize * 4
		}
		node := audittx.New(i, order, e.Fee, weight, parents)
		node.PreFill()
		pool[i] = node
	}
	return idx, pool, nil
}

// orderFromTxid derives the 32-bit tiebreaker from bytes 28..32 of the
// internal (non-display) txid hash. A txid's display hex, which is what
// getrawmempool keys are and what RawEntry.Txid holds, is the byte-reverse
// of the internal hash, so the internal hash's last 4 bytes are the first
// 4 bytes of the decoded display hex, read back to front.
func orderFromTxid(txid string) (uint32, error) {
	b, err := hex.DecodeString(txid)
	if err != nil {
		return 0, fmt.Errorf("decode txid: %w", err)
	}
	if len(b) < 4 {
		return 0, fmt.Errorf("txid too short: %d bytes", len(b))
	}
	return binary.LittleEndian.Uint32(b[0:4]), nil
}
