package blockassembler

import "testing"

func TestUpdateDescendantsDropsAncestorAndRescoresUp(t *testing.T) {
	a := txid(0)
	p := txid(1)
	c := txid(2)
	entries := []RawEntry{
		{Txid: a, Fee: 1000, Weight: 800},
		{Txid: p, Fee: 2000, Weight: 800, Depends: []string{a}},
		{Txid: c, Fee: 4000, Weight: 800, Depends: []string{p}},
	}
	idx, pool, err := NewPool(entries)
	if err != nil {
		t.Fatal(err)
	}
	asm := New(pool, 1)
	for uid := 0; uid < len(pool); uid++ {
		asm.setLinks(uid)
	}

	aUID, pUID, cUID := idx.ToUID[a], idx.ToUID[p], idx.ToUID[c]
	oldCScore := pool[cUID].Score

	effective := pool[aUID].Score
	asm.updateDescendants(aUID, effective)

	if _, ok := pool[pUID].Ancestors[aUID]; ok {
		t.Errorf("P still lists A as an ancestor")
	}
	if _, ok := pool[cUID].Ancestors[aUID]; ok {
		t.Errorf("C still lists A as an ancestor")
	}

	wantCScore := 7000.0 / (2400.0 / 4)
	if pool[cUID].Score != wantCScore {
		t.Errorf("C score = %v, want %v", pool[cUID].Score, wantCScore)
	}
	if pool[cUID].Score <= oldCScore {
		t.Errorf("C score did not increase: old %v, new %v", oldCScore, pool[cUID].Score)
	}

	if asm.modified.Len() != 2 {
		t.Fatalf("modified heap len = %d, want 2", asm.modified.Len())
	}
	top, _ := asm.modified.Peek()
	if top.UID != cUID {
		t.Errorf("modified heap top uid = %d, want %d (C)", top.UID, cUID)
	}
}

func TestBuildPackageOrdersShallowAncestorsFirst(t *testing.T) {
	a := txid(0)
	p := txid(1)
	c := txid(2)
	entries := []RawEntry{
		{Txid: a, Fee: 1000, Weight: 800},
		{Txid: p, Fee: 2000, Weight: 800, Depends: []string{a}},
		{Txid: c, Fee: 4000, Weight: 800, Depends: []string{p}},
	}
	idx, pool, err := NewPool(entries)
	if err != nil {
		t.Fatal(err)
	}
	asm := New(pool, 1)
	for uid := 0; uid < len(pool); uid++ {
		asm.setLinks(uid)
	}

	cUID := idx.ToUID[c]
	pkg := asm.buildPackage(pool[cUID])
	want := []int{idx.ToUID[a], idx.ToUID[p], cUID}
	if len(pkg) != len(want) {
		t.Fatalf("pkg = %v, want %v", pkg, want)
	}
	for i := range want {
		if pkg[i] != want[i] {
			t.Fatalf("pkg = %v, want %v", pkg, want)
		}
	}
}
