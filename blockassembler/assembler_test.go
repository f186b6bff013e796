package blockassembler

import "testing"

func txnOf(entries []RawEntry) ([]BlockSummary, *Index) {
	idx, pool, err := NewPool(entries)
	if err != nil {
		panic(err)
	}
	blocks := New(pool, 1).Generate()
	return blocks, idx
}

func txid(n byte) string {
	// order is read from the first 4 display bytes (the internal hash's
	// last 4 bytes, reversed), so encoding n in b[0] gives ascending order
	// ties that break by insertion sequence in these fixtures.
	b := make([]byte, 32)
	b[0] = n
	s := ""
	for _, c := range b {
		const hexd = "0123456789abcdef"
		s += string(hexd[c>>4]) + string(hexd[c&0xf])
	}
	return s
}

func TestOrderFromTxidReferenceVector(t *testing.T) {
	const want = 42
	const txid = "2a000000" + "000000000000000000000000000000000000000000000000" + "7ed8d18f"
	if len(txid) != 64 {
		t.Fatalf("test fixture txid length = %d, want 64", len(txid))
	}
	got, err := orderFromTxid(txid)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("orderFromTxid = %d, want %d", got, want)
	}
}

func TestGenerateEmptyPool(t *testing.T) {
	blocks, _ := txnOf(nil)
	if len(blocks) != 0 {
		t.Fatalf("len(blocks) = %d, want 0", len(blocks))
	}
}

func TestGenerateSingleton(t *testing.T) {
	entries := []RawEntry{
		{Txid: txid(0), Fee: 1000, Weight: 840},
	}
	blocks, _ := txnOf(entries)
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if blocks[0].Height != nil {
		t.Errorf("expected tail block with nil height")
	}
	if got := blocks[0].Txn; len(got) != 1 || got[0] != 0 {
		t.Errorf("Txn = %v, want [0]", got)
	}
}

func TestGenerateTwoIndependentPackages(t *testing.T) {
	entries := []RawEntry{
		{Txid: txid(0), Fee: 4000, Weight: 800},               // uid 0: parent
		{Txid: txid(1), Fee: 4000, Weight: 800},                // uid 1: parent
		{Txid: txid(2), Fee: 1000, Weight: 800, Depends: []string{txid(0)}}, // uid 2: child of 0
		{Txid: txid(3), Fee: 1000, Weight: 800, Depends: []string{txid(1)}}, // uid 3: child of 1
	}
	blocks, _ := txnOf(entries)
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	want := []int{1, 0, 3, 2}
	got := blocks[0].Txn
	if len(got) != len(want) {
		t.Fatalf("Txn = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Txn = %v, want %v", got, want)
		}
	}
}

func TestGenerateCapacityOverflow(t *testing.T) {
	const n = 30
	entries := make([]RawEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = RawEntry{Txid: txid(byte(i)), Fee: 100_000, Weight: 396_000}
	}
	blocks, _ := txnOf(entries)
	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3", len(blocks))
	}

	seen := make(map[int]bool)
	for _, b := range blocks {
		for _, uid := range b.Txn {
			if seen[uid] {
				t.Fatalf("uid %d committed more than once", uid)
			}
			seen[uid] = true
		}
	}
	if len(seen) != n {
		t.Fatalf("covered %d uids, want %d", len(seen), n)
	}
	for i, b := range blocks[:2] {
		if b.Weight > MaxBlockWU {
			t.Errorf("block %d weight %d exceeds MaxBlockWU", i, b.Weight)
		}
	}
}

func TestGenerateLinearChainScores(t *testing.T) {
	a := txid(0)
	p := txid(1)
	c := txid(2)
	g := txid(3)
	entries := []RawEntry{
		{Txid: a, Fee: 1000, Weight: 800},
		{Txid: p, Fee: 2000, Weight: 800, Depends: []string{a}},
		{Txid: c, Fee: 2000, Weight: 800, Depends: []string{p}},
		{Txid: g, Fee: 4000, Weight: 800, Depends: []string{c}},
	}
	idx, pool, err := NewPool(entries)
	if err != nil {
		t.Fatal(err)
	}
	asm := New(pool, 1)
	for uid := 0; uid < len(pool); uid++ {
		asm.setLinks(uid)
	}

	wantScore := map[string]float64{
		a: 5.0,
		p: 7.5,
		c: 5000.0 / (2400.0 / 4),
		g: 9000.0 / (3200.0 / 4),
	}
	for txidStr, want := range wantScore {
		uid := idx.ToUID[txidStr]
		if got := pool[uid].Score; got != want {
			t.Errorf("%s score = %v, want %v", txidStr, got, want)
		}
	}
}
