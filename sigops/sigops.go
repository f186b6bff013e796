// Package sigops provides a heuristic signature-operation counter used to
// audit confirmed blocks for potential limit violations. It mirrors the
// scriptPubKey-type dispatch bitcoind performs internally but works from
// already-decoded ASM strings rather than full script interpretation, since
// callers typically only have getrawtransaction's verbose view available.
package sigops

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/txscript"
)

// segwitScalar is the legacy-to-weight scale factor bitcoind applies when
// comparing sigops counted from a non-segwit context against segwit cost.
const segwitScalar = 4

// multisigRE captures the key count N out of "... OP_N OP_CHECKMULTISIG"
// or "... OP_PUSHNUM_N OP_CHECKMULTISIG" style disassembly.
var multisigRE = regexp.MustCompile(`OP_(?:PUSHNUM_)?(\d{1,2})\s+OP_CHECKMULTISIG`)

// ScriptPubkeyType classifies a previous output's scriptPubKey, mirroring
// the categories bitcoind's getrawtransaction verbose output reports.
type ScriptPubkeyType string

const (
	ScriptHash          ScriptPubkeyType = "scripthash"
	WitnessV0KeyHash    ScriptPubkeyType = "witness_v0_keyhash"
	WitnessV0ScriptHash ScriptPubkeyType = "witness_v0_scripthash"
	WitnessV1Taproot    ScriptPubkeyType = "witness_v1_taproot"
	WitnessUnknown      ScriptPubkeyType = "witness_unknown"
	Pubkey              ScriptPubkeyType = "pubkey"
	PubkeyHash          ScriptPubkeyType = "pubkeyhash"
	MultiSig            ScriptPubkeyType = "multisig"
	Nonstandard         ScriptPubkeyType = "nonstandard"
	NullData            ScriptPubkeyType = "nulldata"
)

// Input is the minimal view of a transaction input needed to count its
// sigops: its own scriptSig plus enough of the spent output to classify it.
type Input struct {
	ScriptSigHex []byte
	ScriptSigAsm string
	Witness      [][]byte

	PrevoutType ScriptPubkeyType
	PrevoutAsm  string
}

// Count returns the heuristic sigops count across a transaction's inputs.
func Count(inputs []Input) uint32 {
	var total uint32
	for _, in := range inputs {
		total += countInput(in)
	}
	return total
}

func countInput(in Input) uint32 {
	sigops := scriptSigopsCountRaw(in.ScriptSigAsm)

	switch in.PrevoutType {
	case ScriptHash:
		if len(in.ScriptSigHex) >= 3 && in.ScriptSigHex[1] == 0x00 && in.ScriptSigHex[2] == 0x14 {
			// p2sh-wrapped p2wpkh
			sigops++
		} else if len(in.ScriptSigHex) >= 3 && in.ScriptSigHex[1] == 0x00 && in.ScriptSigHex[2] == 0x20 {
			// p2sh-wrapped p2wsh
			sigops += scriptSigopsCount(disasmWitnessScript(in.Witness))
		} else {
			redeem := parseP2SHRedeemScript(in.ScriptSigAsm)
			sigops += scriptSigopsCount(disasmScript(redeem)) * segwitScalar
		}
	case WitnessV0KeyHash:
		sigops++
	case WitnessV0ScriptHash, WitnessUnknown:
		sigops += scriptSigopsCount(disasmWitnessScript(in.Witness))
	case Pubkey, PubkeyHash:
		sigops += segwitScalar
	case MultiSig, Nonstandard:
		sigops += scriptSigopsCountRaw(in.PrevoutAsm)
	default:
		// WitnessV1Taproot, NullData and anything else contribute nothing.
	}

	return sigops
}

// scriptSigopsCount finds sigops cost in a redeem script or witness script's
// ASM, crediting each OP_CHECKMULTISIG with its declared key count, falling
// back to the 20-sigops worst case when the key count can't be parsed.
func scriptSigopsCount(asm string) uint32 {
	var sigops uint32
	count := strings.Count(asm, "OP_CHECKMULTISIG")
	matches := multisigRE.FindAllStringSubmatch(asm, -1)
	for i := 0; i < count; i++ {
		if i < len(matches) {
			m := matches[i]
			n, err := strconv.ParseUint(m[1], 10, 32)
			if err != nil || n > 16 {
				sigops += 20
				continue
			}
			sigops += uint32(n)
			continue
		}
		sigops += 20
	}
	return sigops
}

// scriptSigopsCountRaw finds sigops cost in a raw scriptSig or scriptPubKey's
// ASM: bare multisig counts as the 20-key worst case, every CHECKSIG variant
// counts as one, both weighted to segwit scale.
func scriptSigopsCountRaw(asm string) uint32 {
	var sigops uint32
	sigops += uint32(strings.Count(asm, "OP_CHECKMULTISIG")) * 20 * segwitScalar
	sigops += uint32(strings.Count(asm, "CHECKSIG")) * segwitScalar
	return sigops
}

// disasmScript disassembles a raw script to ASM, tolerating malformed input
// since a malformed redeem script can still appear in a relayed transaction.
func disasmScript(script []byte) string {
	asm, err := txscript.DisasmString(script)
	if err != nil {
		return ""
	}
	return asm
}

// disasmWitnessScript disassembles the last witness element, which by
// convention holds the actual script for p2wsh and its p2sh-wrapped form.
func disasmWitnessScript(witness [][]byte) string {
	if len(witness) == 0 {
		return ""
	}
	return disasmScript(witness[len(witness)-1])
}

// parseP2SHRedeemScript extracts the redeem script from a scriptSig's ASM,
// which by convention pushes it as the final data element.
func parseP2SHRedeemScript(scriptSigAsm string) []byte {
	fields := strings.Fields(scriptSigAsm)
	if len(fields) == 0 {
		return nil
	}
	last := fields[len(fields)-1]
	data, err := hex.DecodeString(last)
	if err != nil {
		return nil
	}
	return data
}
