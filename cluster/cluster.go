// Package cluster summarises mempool cluster shape — descendant depth,
// common-ancestor size, and cluster count — by relinking the same
// parent/child graph the block assembler builds, but without any fee or
// weight bookkeeping. It is a deliberately separate, simpler consumer of
// the same linking idea rather than a generalisation of it, since it
// tracks none of the aggregates the assembler needs.
package cluster

import (
	"fmt"
	"sort"
)

// RawEntry is one mempool transaction as seen by cluster analysis: its
// txid and its direct in-mempool parents.
type RawEntry struct {
	Txid    string
	Depends []string
}

// Result summarises mempool clustering.
type Result struct {
	// Depth is the longest descendant chain rooted at any cluster.
	Depth uint32
	// Size is the membership count of the most commonly shared ancestor.
	Size uint32
	// Ancestors lists the txids tied for Size, sorted for determinism.
	Ancestors []string
	// Count is the number of distinct clusters: parentless transactions
	// that have at least one child.
	Count int
}

type entry struct {
	uid          int
	parents      map[int]struct{}
	children     map[int]struct{}
	ancestors    map[int]struct{}
	relativesSet bool
}

type auditor struct {
	pool map[int]*entry
}

// Analyze builds the cluster graph from entries and summarises it.
func Analyze(entries []RawEntry) (Result, error) {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Txid] = i
	}

	pool := make(map[int]*entry, len(entries))
	for i, e := range entries {
		parents := make(map[int]struct{}, len(e.Depends))
		for _, dep := range e.Depends {
			puid, ok := index[dep]
			if !ok {
				return Result{}, fmt.Errorf("cluster: entry %q depends on unknown txid %q", e.Txid, dep)
			}
			parents[puid] = struct{}{}
		}
		pool[i] = &entry{
			uid:      i,
			parents:  parents,
			children: make(map[int]struct{}),
		}
	}

	a := &auditor{pool: pool}
	for uid := 0; uid < len(pool); uid++ {
		a.setRelatives(uid)
	}

	size, ancestorUIDs := a.mostCommonAncestors()
	ancestorTxids := make([]string, 0, len(ancestorUIDs))
	for _, uid := range ancestorUIDs {
		ancestorTxids = append(ancestorTxids, entries[uid].Txid)
	}
	sort.Strings(ancestorTxids)

	return Result{
		Depth:     a.maxDescendantDepth(),
		Size:      size,
		Ancestors: ancestorTxids,
		Count:     a.clusterCount(),
	}, nil
}

func (a *auditor) setRelatives(uid int) {
	node := a.pool[uid]
	if node.relativesSet {
		return
	}
	ancestors := make(map[int]struct{})
	for pid := range node.parents {
		a.setRelatives(pid)
		parent := a.pool[pid]
		parent.children[uid] = struct{}{}
		ancestors[pid] = struct{}{}
		for anc := range parent.ancestors {
			ancestors[anc] = struct{}{}
		}
	}
	node.ancestors = ancestors
	node.relativesSet = true
}

func (a *auditor) ancestorRoots() []*entry {
	var roots []*entry
	for uid := 0; uid < len(a.pool); uid++ {
		e := a.pool[uid]
		if len(e.ancestors) == 0 && len(e.children) > 0 {
			roots = append(roots, e)
		}
	}
	return roots
}

func (a *auditor) mostCommonAncestors() (uint32, []int) {
	counts := make(map[int]uint32)
	for _, e := range a.pool {
		for anc := range e.ancestors {
			counts[anc]++
		}
	}
	var hi uint32 = 1
	for _, c := range counts {
		if c > hi {
			hi = c
		}
	}
	var uids []int
	for uid, c := range counts {
		if c == hi {
			uids = append(uids, uid)
		}
	}
	return hi, uids
}

func (a *auditor) maxDescendantDepth() uint32 {
	var max uint32
	for _, root := range a.ancestorRoots() {
		if h := a.treeHeight(root); h > max {
			max = h
		}
	}
	return max
}

func (a *auditor) treeHeight(e *entry) uint32 {
	if len(e.children) == 0 {
		return 0
	}
	var max uint32
	for child := range e.children {
		if h := a.treeHeight(a.pool[child]); h > max {
			max = h
		}
	}
	return max + 1
}

func (a *auditor) clusterCount() int {
	return len(a.ancestorRoots())
}
