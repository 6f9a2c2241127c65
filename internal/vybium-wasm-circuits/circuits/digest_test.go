package circuits

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/tracer"
)

func TestProgramDigest(t *testing.T) {
	tables := run(t, tracer.DemoModule())

	a := ProgramDigest(tables.Instructions)
	b := ProgramDigest(append([]specs.InstructionEntry(nil), tables.Instructions...))
	require.True(t, a.Equal(b))

	changed := append([]specs.InstructionEntry(nil), tables.Instructions...)
	changed[0].Opcode = must(specs.NewConst(specs.I32, 17))
	require.False(t, a.Equal(ProgramDigest(changed)))

	require.False(t, a.Equal(ProgramDigest(tables.Instructions[:len(tables.Instructions)-1])))

	encoded := FormatDigest(a)
	require.Len(t, encoded, 2+2*hash.DigestLen*8)
	parsed, err := ParseDigest(encoded)
	require.NoError(t, err)
	require.True(t, a.Equal(parsed))

	_, err = ParseDigest(encoded[:18])
	require.Error(t, err)
	_, err = ParseDigest(encoded[2:])
	require.Error(t, err)
}

func TestInitMemoryDigest(t *testing.T) {
	init := []specs.InitMemoryEntry{{Offset: 16}, {Offset: 20, Value: 9}}
	a := InitMemoryDigest(init)
	require.True(t, a.Equal(InitMemoryDigest([]specs.InitMemoryEntry{{Offset: 16}, {Offset: 20, Value: 9}})))
	require.False(t, a.Equal(InitMemoryDigest([]specs.InitMemoryEntry{{Offset: 16}, {Offset: 20, Value: 8}})))
	require.False(t, a.Equal(InitMemoryDigest(nil)))
}

func TestCircuitDigest(t *testing.T) {
	digest := func(extend func(cs *plonk.ConstraintSystem)) [32]byte {
		cs := plonk.NewConstraintSystem()
		Configure(cs, testConfig())
		extend(cs)
		d, err := CircuitDigest(cs)
		require.NoError(t, err)
		return d
	}
	none := func(*plonk.ConstraintSystem) {}

	require.Equal(t, digest(none), digest(none))
	require.NotEqual(t, digest(none), digest(func(cs *plonk.ConstraintSystem) {
		cs.CreateGate("extra", cs.AdviceColumn("extra").Cur())
	}))
}
