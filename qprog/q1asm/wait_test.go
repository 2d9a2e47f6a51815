package q1asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
)

// TestGenerate_S2_LongWaitDecomposition is spec §8 scenario S2: a 200000ns
// wait with MAX_WAIT=65532 decomposes into a counted loop of three
// 65532ns chunks (196596ns) plus a trailing 3404ns wait, summing exactly
// to the input duration.
func TestGenerate_S2_LongWaitDecomposition(t *testing.T) {
	tl := &schedule.Timeline{Bus: "b0", Events: []schedule.Event{
		{Kind: schedule.EventWait, Duration: ir.ConstTime(200000)},
	}}

	out, err := q1asm.Generate(tl, q1asm.BusConfig{})
	require.NoError(t, err)

	assert.Equal(t, []q1asm.Instr{
		{Mnemonic: "wait_sync", Args: []string{"4"}},
		{Mnemonic: "set_mrk", Args: []string{"0"}},
		{Mnemonic: "upd_param", Args: []string{"4"}},
	}, out.Program.Setup)

	assert.Equal(t, []q1asm.Instr{
		{Mnemonic: "move", Args: []string{"3", "R0"}},
		{Label: "wait_loop_b0_1"},
		{Mnemonic: "wait", Args: []string{"65532"}},
		{Mnemonic: "loop", Args: []string{"R0", "@wait_loop_b0_1"}},
		{Mnemonic: "wait", Args: []string{"3404"}},
	}, out.Program.Main)
}

// TestEmitWait_ChunkingProperty exercises spec §8 property 4 (every wait
// sequence sums exactly to the requested duration, every chunk within
// [MIN_WAIT, MAX_WAIT]) over the two other code paths EmitWait can take:
// an exact multiple of MAX_WAIT, and a remainder below MIN_WAIT that must
// borrow from the last full chunk.
func TestEmitWait_ChunkingProperty(t *testing.T) {
	cases := []struct {
		name     string
		waitNs   int64
		wantMain []q1asm.Instr
	}{
		{
			name:   "exact multiple of MAX_WAIT uses a bare counted loop",
			waitNs: 131064, // 65532 * 2
			wantMain: []q1asm.Instr{
				{Mnemonic: "move", Args: []string{"2", "R0"}},
				{Label: "wait_loop_b0_1"},
				{Mnemonic: "wait", Args: []string{"65532"}},
				{Mnemonic: "loop", Args: []string{"R0", "@wait_loop_b0_1"}},
			},
		},
		{
			name:   "remainder below MIN_WAIT borrows from the last chunk",
			waitNs: 131066, // 65532*2 + 2; 2 < MIN_WAIT(4)
			wantMain: []q1asm.Instr{
				{Mnemonic: "wait", Args: []string{"65532"}},
				{Mnemonic: "wait", Args: []string{"65530"}},
				{Mnemonic: "wait", Args: []string{"4"}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tl := &schedule.Timeline{Bus: "b0", Events: []schedule.Event{
				{Kind: schedule.EventWait, Duration: ir.ConstTime(tc.waitNs)},
			}}
			// A 2ns clock keeps 131066ns as given; the default 4ns clock
			// would first round it up to 131068ns, a remainder of 4.
			out, err := q1asm.Generate(tl, q1asm.BusConfig{MinClockNs: 2})
			require.NoError(t, err)
			assert.Equal(t, tc.wantMain, out.Program.Main)
		})
	}
}

// TestEmitWait_FoldsPendingLatchedUpdate is the review-requested coverage
// for spec §4.4.4's latched real-time parameter rule: a set_freq (or
// set_ph/set_awg_gain/set_awg_offs/set_mrk/reset_ph) write is not applied
// until the next upd_param or wait, so the following wait must fold in
// the upd_param, subtracting MIN_WAIT from it, and collapse entirely when
// the wait is too short to survive that subtraction.
func TestEmitWait_FoldsPendingLatchedUpdate(t *testing.T) {
	cases := []struct {
		name     string
		waitNs   int64
		wantMain []q1asm.Instr
	}{
		{
			name:   "wait long enough to survive the fold",
			waitNs: 48,
			wantMain: []q1asm.Instr{
				{Mnemonic: "set_freq", Args: []string{"400000000"}},
				{Mnemonic: "upd_param", Args: []string{"4"}},
				{Mnemonic: "wait", Args: []string{"44"}},
			},
		},
		{
			name:   "wait at or below 2*MIN_WAIT is replaced outright",
			waitNs: 8,
			wantMain: []q1asm.Instr{
				{Mnemonic: "set_freq", Args: []string{"400000000"}},
				{Mnemonic: "upd_param", Args: []string{"4"}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tl := &schedule.Timeline{Bus: "b0", Events: []schedule.Event{
				{Kind: schedule.EventSetFrequency, Freq: ir.ConstFreq(100e6)},
				{Kind: schedule.EventWait, Duration: ir.ConstTime(tc.waitNs)},
			}}
			out, err := q1asm.Generate(tl, q1asm.BusConfig{})
			require.NoError(t, err)
			assert.Equal(t, tc.wantMain, out.Program.Main)
		})
	}
}
