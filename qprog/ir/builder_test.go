package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
)

func TestBuilder_SimpleProgram(t *testing.T) {
	b := ir.New(ir.WithID("smoke"))
	b.Play("drive_q0", "X180").
		Wait("drive_q0", 40).
		Measure("readout_q0", "ro_pulse", "ro_weights", true)

	prog, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "smoke", prog.ID)

	var kinds []ir.Kind
	ir.Walk(prog.Root, func(n ir.Node) { kinds = append(kinds, n.Kind()) })
	assert.Equal(t, []ir.Kind{ir.KindBlock, ir.KindPlay, ir.KindWait, ir.KindMeasure}, kinds)
}

func TestBuilder_ForLoopScopesVariable(t *testing.T) {
	b := ir.New()
	freq, err := b.Variable("freq", ir.Frequency)
	require.NoError(t, err)

	b.ForLoop(freq, 100e6, 200e6, 10e6, func(b *ir.Builder) {
		b.SetFrequencyVar("drive_q0", freq)
	})

	prog, err := b.Build()
	require.NoError(t, err)
	require.Len(t, prog.Root.Children, 1)
	fl, ok := prog.Root.Children[0].(*ir.ForLoop)
	require.True(t, ok)
	assert.Equal(t, 11, fl.IterationCount())
}

func TestBuilder_UnknownVariableOutsideScope(t *testing.T) {
	b := ir.New()
	freq, err := b.Variable("freq", ir.Frequency)
	require.NoError(t, err)

	// Reference freq outside any loop header that binds it.
	b.SetFrequencyVar("drive_q0", freq)

	_, err = b.Build()
	require.Error(t, err)
	var uv ir.UnknownVariable
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "freq", uv.Label)
}

func TestBuilder_DomainMismatch(t *testing.T) {
	b := ir.New()
	timeVar, err := b.Variable("gate_time", ir.Time)
	require.NoError(t, err)

	b.ForLoop(timeVar, 0, 100, 10, func(b *ir.Builder) {
		b.SetFrequencyVar("drive_q0", timeVar)
	})

	_, err = b.Build()
	require.Error(t, err)
	var dm ir.DomainMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, ir.Time, dm.Got)
	assert.Equal(t, ir.Frequency, dm.Expected)
}

func TestBuilder_DuplicateLabel(t *testing.T) {
	b := ir.New()
	_, err := b.Variable("x", ir.Scalar)
	require.NoError(t, err)
	_, err = b.Variable("x", ir.Scalar)
	require.Error(t, err)
	assert.IsType(t, ir.DuplicateLabel{}, err)
}

func TestBuilder_ParallelRequiresEqualSpan(t *testing.T) {
	b := ir.New()
	v1, _ := b.Variable("a", ir.Scalar)
	v2, _ := b.Variable("b", ir.Scalar)

	b.Parallel(
		ir.ParallelSpec{Var: v1, Values: []float64{1, 2, 3}, Body: func(b *ir.Builder) {}},
		ir.ParallelSpec{Var: v2, Values: []float64{1, 2}, Body: func(b *ir.Builder) {}},
	)

	_, err := b.Build()
	require.Error(t, err)
	var bs ir.BadSpan
	require.ErrorAs(t, err, &bs)
	assert.Equal(t, []int{3, 2}, bs.Counts)
}

func TestBuilder_NegativeWaitIsBadTiming(t *testing.T) {
	b := ir.New()
	b.Play("drive_q0", "X180", -10)

	_, err := b.Build()
	require.Error(t, err)
	var bt ir.BadTiming
	require.ErrorAs(t, err, &bt)
	assert.Equal(t, int64(-10), bt.WaitNs)
}

func TestBuilder_BuildIsOneShot(t *testing.T) {
	b := ir.New()
	b.Wait("drive_q0", 10)
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	require.Error(t, err)
}

func TestBuilder_ParamEntersScopeImmediately(t *testing.T) {
	b := ir.New()
	freq, err := b.Param("freq", ir.Frequency)
	require.NoError(t, err)
	// Used outside any loop: only the Param declaration puts freq in scope.
	b.SetFrequencyVar("drive_q0", freq)

	_, err = b.Build()
	require.NoError(t, err)
}

func TestBuilder_InsertBlockClonesIdentity(t *testing.T) {
	inner := ir.New()
	inner.Play("drive_q0", "X90")
	innerProg, err := inner.Build()
	require.NoError(t, err)

	outer := ir.New()
	outer.InsertBlock(innerProg.Root)
	outer.InsertBlock(innerProg.Root)
	outerProg, err := outer.Build()
	require.NoError(t, err)

	require.Len(t, outerProg.Root.Children, 2)
	assert.NotEqual(t, outerProg.Root.Children[0].ID(), outerProg.Root.Children[1].ID())
}

func TestVariable_Equal(t *testing.T) {
	b := ir.New()
	v1, _ := b.Variable("a", ir.Scalar)
	v2, _ := b.Variable("b", ir.Scalar)

	assert.True(t, v1.Equal(v1))
	assert.False(t, v1.Equal(v2))
	assert.False(t, v1.Equal(nil))

	var nilVar *ir.Variable
	assert.True(t, nilVar.Equal(nil))
}
