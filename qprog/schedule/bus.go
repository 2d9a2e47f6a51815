// Package schedule walks a resolved QProgram IR and projects it onto each
// bus's independent timeline, inserting the waits needed to realize
// sync, wait_trigger, per-bus delays, and MIN_CLOCK padding.
package schedule

import "github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"

// Defaults mirror spec §3.6 invariant 1 and §4.4.
const (
	DefaultMinClockNs = 4
	DefaultMaxWaitNs  = 65532
)

// Timeline is one bus's chronological bookkeeping: its virtual clock and
// its most recently emitted event, the same `last`/`byQ`-per-entity shape
// the teacher's DAG keeps per qubit, generalized from hazard-tracking to
// clock-tracking.
type Timeline struct {
	Bus string

	NowNs    int64
	DelayNs  int64 // constant per-bus shift applied to every play (may be negative)
	AutoSync bool

	NcoFreqHz float64
	PhaseRad  float64
	GainI     float64
	GainQ     float64
	OffsetI   float64
	OffsetQ   float64
	Markers   uint8

	// Events is the ordered projection of operations touching this bus,
	// consumed by the Q1ASM generator.
	Events []Event
}

// NewTimeline returns a Timeline ready to accumulate events for bus.
func NewTimeline(bus string, autoSync bool) *Timeline {
	return &Timeline{Bus: bus, AutoSync: autoSync}
}

// Advance moves the bus clock forward by durationNs, which must be >= 0;
// callers that need to move the clock backward (impossible per spec §3.6
// invariant 2) should use a Sync/padding insertion instead.
func (t *Timeline) Advance(durationNs int64) {
	t.NowNs += durationNs
}

// PadTo advances the clock to targetNs if it is currently behind,
// recording the inserted wait as a diagnostic-visible Event. It is a
// no-op if the bus is already at or past targetNs.
func (t *Timeline) PadTo(targetNs int64) (insertedNs int64) {
	if targetNs <= t.NowNs {
		return 0
	}
	insertedNs = targetNs - t.NowNs
	t.Events = append(t.Events, Event{Kind: EventWait, WaitNs: insertedNs, Duration: ir.ConstTime(insertedNs)})
	t.NowNs = targetNs
	return insertedNs
}

// AlignToClock pads NowNs up to the next multiple of minClockNs if it
// isn't already aligned (spec §3.6 invariant 1).
func (t *Timeline) AlignToClock(minClockNs int64) (paddedNs int64) {
	rem := t.NowNs % minClockNs
	if rem == 0 {
		return 0
	}
	pad := minClockNs - rem
	return t.PadTo(t.NowNs + pad)
}
