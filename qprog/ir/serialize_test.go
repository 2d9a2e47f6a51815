package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
)

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	b := ir.New(ir.WithID("roundtrip"))
	freq, err := b.Variable("freq", ir.Frequency)
	require.NoError(t, err)

	b.ForLoop(freq, 100e6, 110e6, 5e6, func(b *ir.Builder) {
		b.SetFrequencyVar("drive_q0", freq)
		b.Play("drive_q0", "X180")
		b.Wait("drive_q0", 40)
	})
	b.Average(1000, func(b *ir.Builder) {
		b.Measure("readout_q0", "ro_pulse", "ro_weights", true)
	})

	prog, err := b.Build()
	require.NoError(t, err)

	data, err := ir.Marshal(prog)
	require.NoError(t, err)

	got, err := ir.Unmarshal(data)
	require.NoError(t, err)

	require.Equal(t, prog.ID, got.ID)
	require.Len(t, got.Variables, 1)
	require.Equal(t, "freq", got.Variables[0].Label)
	require.Equal(t, ir.Frequency, got.Variables[0].Domain)

	var gotKinds []ir.Kind
	ir.Walk(got.Root, func(n ir.Node) { gotKinds = append(gotKinds, n.Kind()) })

	var wantKinds []ir.Kind
	ir.Walk(prog.Root, func(n ir.Node) { wantKinds = append(wantKinds, n.Kind()) })

	require.Equal(t, wantKinds, gotKinds)

	fl, ok := got.Root.Children[0].(*ir.ForLoop)
	require.True(t, ok)
	require.True(t, fl.Var.Equal(got.Variables[0]))

	sf, ok := fl.Body.Children[0].(*ir.SetFrequency)
	require.True(t, ok)
	require.True(t, sf.Freq.UsesVar)
	require.True(t, sf.Freq.Var.Equal(got.Variables[0]))
}

func TestMarshalUnmarshal_RejectsWrongVersion(t *testing.T) {
	_, err := ir.Unmarshal([]byte(`{"version":99,"id":"x","variables":[],"root":{"kind":0,"data":{"children":[]}}}`))
	require.Error(t, err)
}
