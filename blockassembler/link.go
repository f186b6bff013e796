package blockassembler

// setLinks recursively computes uid's transitive ancestor set and ancestor
// fee/weight aggregates, wiring child back-references into each ancestor
// along the way. Recursion depth is bounded by the longest ancestor chain.
func (a *Assembler) setLinks(uid int) {
	node := a.pool[uid]
	if node.LinksSet {
		return
	}

	ancestors := make(map[int]struct{})
	for pid := range node.Parents {
		a.setLinks(pid)
		parent := a.pool[pid]
		parent.Children[uid] = struct{}{}
		ancestors[pid] = struct{}{}
		for anc := range parent.Ancestors {
			ancestors[anc] = struct{}{}
		}
	}

	var ancestorFee, ancestorWeight uint64
	for anc := range ancestors {
		ancestorNode := a.pool[anc]
		ancestorFee += ancestorNode.Fee
		ancestorWeight += ancestorNode.Weight
	}

	node.Ancestors = ancestors
	node.AncestorFee += ancestorFee
	node.AncestorWeight += ancestorWeight
	node.Score = float64(node.AncestorFee) / (float64(node.AncestorWeight) / 4)
	node.LinksSet = true
}
