package blockassembler

import (
	"math"
	"sort"

	"github.com/ValuedMammal/blockproj/audittx"
)

// commitPackage commits candidate and its full ancestor package to the
// current block, then rescores every descendant of each committed tx.
func (a *Assembler) commitPackage(candidate *audittx.Node) {
	pkg := a.buildPackage(candidate)

	for _, uid := range pkg {
		node := a.pool[uid]
		if !node.Used {
			a.inv.txn = append(a.inv.txn, uid)
		}
		node.Used = true
		a.weight += node.Weight
		a.fees += node.Fee
		if node.Score < a.inv.loScore {
			a.inv.loScore = node.Score
		}
		if node.Score > a.inv.hiScore {
			a.inv.hiScore = node.Score
		}
		a.inv.scores = append(a.inv.scores, node.Score)
	}

	effectiveFeerate := math.Min(candidate.DependencyRate, candidate.Score)
	for _, uid := range pkg {
		node := a.pool[uid]
		if len(node.Children) > 0 {
			a.updateDescendants(uid, effectiveFeerate)
		}
	}
}

type ancestorTuple struct {
	ancestorCount int
	order         uint32
	uid           int
}

// buildPackage returns candidate's uid together with every ancestor's uid,
// sorted so shallower ancestors (those with fewer ancestors of their own)
// commit first. Any ancestor currently tracked in the modified heap is
// removed from it, since it is about to be committed.
func (a *Assembler) buildPackage(candidate *audittx.Node) []int {
	if len(candidate.Ancestors) == 0 {
		return []int{candidate.UID}
	}

	tuples := make([]ancestorTuple, 0, len(candidate.Ancestors)+1)
	tuples = append(tuples, ancestorTuple{len(candidate.Ancestors), candidate.Order, candidate.UID})
	for uid := range candidate.Ancestors {
		ancestor := a.pool[uid]
		tuples = append(tuples, ancestorTuple{len(ancestor.Ancestors), ancestor.Order, ancestor.UID})
		if ancestor.Modified {
			a.modified.Remove(ancestor.UID)
		}
	}
	sort.Slice(tuples, func(i, j int) bool {
		if tuples[i].ancestorCount != tuples[j].ancestorCount {
			return tuples[i].ancestorCount < tuples[j].ancestorCount
		}
		if tuples[i].order != tuples[j].order {
			return tuples[i].order < tuples[j].order
		}
		return tuples[i].uid < tuples[j].uid
	})

	pkg := make([]int, len(tuples))
	for i, t := range tuples {
		pkg[i] = t.uid
	}
	return pkg
}

// updateDescendants walks every transitive descendant of uid exactly once,
// dropping uid from each one's ancestor set, tightening its dependency
// rate, and rescoring it. Rescored nodes are upserted into the modified
// heap.
func (a *Assembler) updateDescendants(uid int, effectiveFeerate float64) {
	root := a.pool[uid]
	rootFee, rootWeight := root.Fee, root.Weight

	visited := make(map[int]struct{}, len(root.Children))
	stack := make([]int, 0, len(root.Children))
	for child := range root.Children {
		if _, ok := visited[child]; !ok {
			visited[child] = struct{}{}
			stack = append(stack, child)
		}
	}

	for len(stack) > 0 {
		n := len(stack) - 1
		d := stack[n]
		stack = stack[:n]
		node := a.pool[d]

		for child := range node.Children {
			if _, ok := visited[child]; !ok {
				visited[child] = struct{}{}
				stack = append(stack, child)
			}
		}

		if _, ok := node.Ancestors[uid]; !ok {
			continue
		}
		delete(node.Ancestors, uid)
		if effectiveFeerate < node.DependencyRate {
			node.DependencyRate = effectiveFeerate
		}
		node.AncestorFee -= rootFee
		node.AncestorWeight -= rootWeight
		oldScore := node.Score
		node.Score = float64(node.AncestorFee) / (float64(node.AncestorWeight) / 4)

		if node.Score != oldScore {
			node.Modified = true
			a.modified.Upsert(node.Priority())
		}
	}
}
