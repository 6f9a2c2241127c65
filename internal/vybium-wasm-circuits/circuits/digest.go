package circuits

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// limbsPerEntry splits a packed entry into 32-bit limbs, each of which fits
// the hash field without reduction
const limbsPerEntry = 8

func appendLimbs(out []field.Element, v *uint256.Int) []field.Element {
	words := new(uint256.Int).Set(v)
	for i := 0; i < limbsPerEntry; i++ {
		out = append(out, field.New(words.Uint64()&0xffffffff))
		words.Rsh(words, 32)
	}
	return out
}

func digestEntries(n int, encode func(i int) *uint256.Int) hash.Digest {
	elements := make([]field.Element, 0, n*limbsPerEntry+1)
	elements = append(elements, field.New(uint64(n)))
	for i := 0; i < n; i++ {
		elements = appendLimbs(elements, encode(i))
	}
	return hash.Digest(hash.HashVarlen(elements))
}

// ProgramDigest is the Tip5 digest of the packed instruction table, in
// table order. It attests which program a trace claims to execute.
func ProgramDigest(instructions []specs.InstructionEntry) hash.Digest {
	return digestEntries(len(instructions), func(i int) *uint256.Int { return instructions[i].Encode() })
}

// InitMemoryDigest is the Tip5 digest of the packed init memory table
func InitMemoryDigest(init []specs.InitMemoryEntry) hash.Digest {
	return digestEntries(len(init), func(i int) *uint256.Int { return init[i].Encode() })
}

// FormatDigest renders d as 0x-prefixed hex of its little-endian elements
func FormatDigest(d hash.Digest) string {
	b := d.ToBytes()
	return hexutil.Encode(b[:])
}

// ParseDigest is the inverse of FormatDigest
func ParseDigest(s string) (hash.Digest, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return hash.ZeroDigest(), err
	}
	var b [hash.DigestLen * 8]byte
	if len(raw) != len(b) {
		return hash.ZeroDigest(), fmt.Errorf("digest of %d bytes, want %d", len(raw), len(b))
	}
	copy(b[:], raw)
	return hash.DigestFromBytes(b), nil
}

// CircuitDigest is the SHA3-256 of the canonical description of cs. Two
// constraint systems with equal digests declare the same relation.
func CircuitDigest(cs *plonk.ConstraintSystem) ([32]byte, error) {
	var buf bytes.Buffer
	if err := cs.Describe(&buf); err != nil {
		return [32]byte{}, err
	}
	return sha3.Sum256(buf.Bytes()), nil
}
