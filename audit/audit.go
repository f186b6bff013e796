// Package audit scores confirmed blocks against earlier projections and
// flags dust-heavy blocks, complementing the block assembler's forward-
// looking projections with a backward-looking check on what actually
// confirmed.
package audit

import (
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// dustLimit approximates the dust level for a transaction as 3x the
// minimum vsize of a SegWit v0 transaction with one input and one output,
// e.g. 3 sat/vB * 110 vB = 330 sat. Dust checks below use 2x this value so
// near-threshold outputs are still caught.
const dustLimit = 330

// TxOutput is the minimal output view dust detection needs.
type TxOutput struct {
	Value      int64
	IsOpReturn bool
}

// TxView is a confirmed transaction as audit needs to see it: enough to
// classify its outputs as dust and, for the full check, to recover its fee.
type TxView struct {
	Txid       chainhash.Hash
	IsCoinbase bool
	WeightWU   uint64
	// InputValue is the sum of this transaction's spent prevout values, in
	// satoshis. Only required by CheckDustFull.
	InputValue uint64
	Outputs    []TxOutput
}

// BlockView is a confirmed block as audit needs to see it.
type BlockView struct {
	WeightWU uint64
	Txs      []TxView
}

func isDustOutput(out TxOutput) bool {
	return out.Value <= 2*dustLimit && !out.IsOpReturn
}

// CheckDustPruned counts dust-producing outputs and the transactions that
// produced them, without needing prevout lookups. ok is false if the block
// contains no dust.
func CheckDustPruned(block BlockView) (dustOutputs, dustTxCount int, ok bool) {
	for _, tx := range block.Txs {
		if tx.IsCoinbase {
			continue
		}
		isDust := false
		for _, out := range tx.Outputs {
			if isDustOutput(out) {
				isDust = true
				dustOutputs++
			}
		}
		if isDust {
			dustTxCount++
		}
	}
	return dustOutputs, dustTxCount, dustTxCount > 0
}

// CheckDustFull counts dust-producing outputs and transactions as
// CheckDustPruned does, and additionally computes the fraction of the
// block's weight attributable to dust: a transaction's weight counts
// toward the ratio when its dust-output value plus its fee is at least
// half of its total input value.
func CheckDustFull(block BlockView) (dustOutputs, dustTxCount int, dustRatio float64) {
	var dustWU uint64
	for _, tx := range block.Txs {
		if tx.IsCoinbase {
			continue
		}
		isDust := false
		var outputValue, txDustAmt uint64
		for _, out := range tx.Outputs {
			outputValue += uint64(out.Value)
			if isDustOutput(out) {
				isDust = true
				txDustAmt += uint64(out.Value)
				dustOutputs++
			}
		}
		if isDust {
			dustTxCount++
		}

		impliedFee := tx.InputValue - outputValue
		if txDustAmt+impliedFee >= tx.InputValue/2 {
			dustWU += tx.WeightWU
		}
	}
	if block.WeightWU > 0 {
		dustRatio = truncate3(float64(dustWU) / float64(block.WeightWU))
	}
	return dustOutputs, dustTxCount, dustRatio
}

// BlockAudit scores a newly confirmed block against the txids a prior
// projection expected to confirm next. The score is the percentage of the
// block's non-coinbase transactions that were anticipated; a deviation
// below 100 indicates the block contains transactions no projection saw
// coming.
func BlockAudit(confirmed, projected []chainhash.Hash) float64 {
	numActual := float64(len(confirmed))
	if numActual == 0 {
		return 0
	}

	inProjected := make(map[chainhash.Hash]struct{}, len(projected))
	for _, txid := range projected {
		inProjected[txid] = struct{}{}
	}

	var numUnseen float64
	for _, txid := range confirmed {
		if _, ok := inProjected[txid]; !ok {
			numUnseen++
		}
	}

	return truncate3((numActual-numUnseen)/numActual) * 100
}

// subsidyHalvingInterval is the number of blocks between subsidy halvings.
const subsidyHalvingInterval = 210_000

// Subsidy returns the block subsidy at height, per
// bitcoin/src/validation.cpp's GetBlockSubsidy.
func Subsidy(height uint32) btcutil.Amount {
	halvings := height / subsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	btc := 50.0 / math.Pow(2, float64(halvings))
	amt, err := btcutil.NewAmount(btc)
	if err != nil {
		return 0
	}
	return amt
}

func truncate3(x float64) float64 {
	return math.Floor(x*1000) / 1000
}
