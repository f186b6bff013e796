package sigops

import (
	"encoding/hex"
	"testing"
)

func TestScriptSigopsCountWitnessMultisig(t *testing.T) {
	// 2-of-3 p2wsh: OP_2 <key> <key> <key> OP_3 OP_CHECKMULTISIG
	asm := "OP_2 OP_DATA_33 020c1929d70ed907e2a8d20fb4cd356a325367a4f667b2a6b441632773c5cb42e6 " +
		"OP_DATA_33 0349a4cb2b92fa9bb579ee73b5d0cedc6e796d60584a173813960b43d4868976012103 " +
		"OP_DATA_33 03f01a75f7d5c2e03226bfec90291cd78643d60adfee8b03e81642b804b2b814d4 " +
		"OP_3 OP_CHECKMULTISIG"
	if got := scriptSigopsCount(asm); got != 3 {
		t.Errorf("scriptSigopsCount = %d, want 3", got)
	}
}

func TestScriptSigopsCountFallback(t *testing.T) {
	// OP_CHECKMULTISIG with no parseable key count falls back to worst case.
	asm := "OP_DUP OP_CHECKMULTISIG"
	if got := scriptSigopsCount(asm); got != 20 {
		t.Errorf("scriptSigopsCount = %d, want 20", got)
	}
}

func TestScriptSigopsCountRawBareMultisigAndChecksig(t *testing.T) {
	asm := "OP_CHECKMULTISIG OP_CHECKSIG OP_CHECKSIGVERIFY"
	want := uint32(20*segwitScalar + 2*segwitScalar)
	if got := scriptSigopsCountRaw(asm); got != want {
		t.Errorf("scriptSigopsCountRaw = %d, want %d", got, want)
	}
}

func TestParseP2SHRedeemScript(t *testing.T) {
	// scriptSig asm ending in a pushed 3-of-4 multisig redeem script.
	redeemHex := "53" + // OP_3
		"4104220936c3245597b1513a9a7fe96d96facf1a840ee21432a1b73c2cf42c1810284dd730f21ded9d818b84402863a2b5cd1afe3a3d13719d524482592fb23c88a3" +
		"54" + // OP_4
		"ae" // OP_CHECKMULTISIG
	asm := "OP_0 OP_PUSHBYTES_1 00 " + redeemHex
	got := parseP2SHRedeemScript(asm)
	want, _ := hex.DecodeString(redeemHex)
	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Errorf("parseP2SHRedeemScript = %x, want %x", got, want)
	}
}

func TestCountPubkeyHashInput(t *testing.T) {
	inputs := []Input{
		{ScriptSigAsm: "OP_DATA_71 ... OP_DATA_33 ...", PrevoutType: PubkeyHash},
	}
	if got := Count(inputs); got != segwitScalar {
		t.Errorf("Count = %d, want %d", got, segwitScalar)
	}
}

func TestCountWitnessV0KeyHashInput(t *testing.T) {
	inputs := []Input{
		{PrevoutType: WitnessV0KeyHash},
	}
	if got := Count(inputs); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
}

func TestCountTaprootContributesNothing(t *testing.T) {
	inputs := []Input{
		{PrevoutType: WitnessV1Taproot},
	}
	if got := Count(inputs); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}
