package audit

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func hashOf(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestSubsidyFromHeight(t *testing.T) {
	cases := []struct {
		height uint32
		want   float64
	}{
		{1, 50.0},
		{210_000, 25.0},
		{420_000, 12.5},
		{630_000, 6.25},
		{840_000, 3.125},
	}
	for _, c := range cases {
		want, err := btcutil.NewAmount(c.want)
		if err != nil {
			t.Fatal(err)
		}
		if got := Subsidy(c.height); got != want {
			t.Errorf("Subsidy(%d) = %v, want %v", c.height, got, want)
		}
	}
}

func TestSubsidyExhausted(t *testing.T) {
	if got := Subsidy(64 * subsidyHalvingInterval); got != 0 {
		t.Errorf("Subsidy at halving 64 = %v, want 0", got)
	}
}

func TestBlockAuditFullMatch(t *testing.T) {
	confirmed := []chainhash.Hash{hashOf(1), hashOf(2)}
	projected := []chainhash.Hash{hashOf(1), hashOf(2)}
	if got := BlockAudit(confirmed, projected); got != 100.0 {
		t.Errorf("BlockAudit = %v, want 100.0", got)
	}
}

func TestBlockAuditPartialMatch(t *testing.T) {
	confirmed := []chainhash.Hash{hashOf(1), hashOf(2)}
	projected := []chainhash.Hash{hashOf(1)}
	if got := BlockAudit(confirmed, projected); got != 50.0 {
		t.Errorf("BlockAudit = %v, want 50.0", got)
	}
}

func TestCheckDustPrunedDetectsDust(t *testing.T) {
	block := BlockView{
		Txs: []TxView{
			{IsCoinbase: true, Outputs: []TxOutput{{Value: 1}}},
			{Outputs: []TxOutput{{Value: 100}, {Value: 50_000}}},
			{Outputs: []TxOutput{{Value: 1_000_000}}},
		},
	}
	outputs, txCount, ok := CheckDustPruned(block)
	if !ok {
		t.Fatal("expected dust detected")
	}
	if outputs != 1 {
		t.Errorf("dustOutputs = %d, want 1", outputs)
	}
	if txCount != 1 {
		t.Errorf("dustTxCount = %d, want 1", txCount)
	}
}

func TestCheckDustPrunedIgnoresOpReturn(t *testing.T) {
	block := BlockView{
		Txs: []TxView{
			{Outputs: []TxOutput{{Value: 0, IsOpReturn: true}}},
		},
	}
	_, _, ok := CheckDustPruned(block)
	if ok {
		t.Fatal("expected no dust for an OP_RETURN-only output")
	}
}

func TestCheckDustFullComputesRatio(t *testing.T) {
	block := BlockView{
		WeightWU: 1000,
		Txs: []TxView{
			{
				WeightWU:   400,
				InputValue: 1000,
				Outputs:    []TxOutput{{Value: 100}},
			},
			{
				WeightWU:   600,
				InputValue: 1000,
				Outputs:    []TxOutput{{Value: 900}},
			},
		},
	}
	outputs, txCount, ratio := CheckDustFull(block)
	if outputs != 1 || txCount != 1 {
		t.Errorf("outputs=%d txCount=%d, want 1,1", outputs, txCount)
	}
	if ratio != 0.4 {
		t.Errorf("ratio = %v, want 0.4", ratio)
	}
}
