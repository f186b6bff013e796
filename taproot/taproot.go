// Package taproot counts taproot outputs and recognizes inscription
// ("ordinal") envelopes in witness data, supplementing the sigops and dust
// audits with a look at newer output and witness shapes.
package taproot

import (
	"encoding/hex"
	"regexp"
	"strconv"

	"github.com/btcsuite/btcd/txscript"
)

// envelopeRE matches an inscription envelope: the witness script
// disassembly prefixed by OP_0 OP_IF, the "ord" protocol tag, a
// content-type field length-prefixed and captured up to the closing OP_0.
var envelopeRE = regexp.MustCompile(
	`^.*OP_0 OP_IF OP_DATA_3 6f7264 OP_DATA_1 01 OP_DATA_(\d+) ([0-9a-f]+) OP_0`)

// CountTaprootOutputs returns the number of pay-to-taproot outputs among
// the given output scripts.
func CountTaprootOutputs(pkScripts [][]byte) int {
	var count int
	for _, spk := range pkScripts {
		if txscript.IsPayToTaproot(spk) {
			count++
		}
	}
	return count
}

// IsOrdinal reports whether the second witness stack element, where the
// envelope script is placed by convention, matches an inscription envelope.
// Other witness elements are not examined.
func IsOrdinal(witness [][]byte) bool {
	if len(witness) < 2 {
		return false
	}
	asm, err := txscript.DisasmString(witness[1])
	if err != nil {
		return false
	}
	return envelopeRE.MatchString(asm)
}

// ContentType extracts the inscription's declared content type from a
// witness script's disassembly, if present and internally consistent (the
// declared length matches the captured bytes).
func ContentType(witness [][]byte) (string, bool) {
	if len(witness) < 2 {
		return "", false
	}
	asm, err := txscript.DisasmString(witness[1])
	if err != nil {
		return "", false
	}

	m := envelopeRE.FindStringSubmatch(asm)
	if m == nil {
		return "", false
	}
	wantLen, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	data, err := hex.DecodeString(m[2])
	if err != nil || len(data) != wantLen {
		return "", false
	}
	return string(data), true
}
