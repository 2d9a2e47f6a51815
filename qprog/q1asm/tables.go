package q1asm

import "sort"

// WaveformEntry is one row of a bus's waveform table: a deduplicated,
// fingerprinted sample array plus the index the sequencer's `play`
// instruction references it by.
type WaveformEntry struct {
	Index   uint16
	Name    string
	Samples []float64
}

// WeightEntry is the acquisition-weight analogue of WaveformEntry.
type WeightEntry struct {
	Index   uint16
	Name    string
	Samples []float64
}

// table deduplicates fingerprinted sample arrays and, once every entry
// has been collected, assigns indices in ascending fingerprint order
// (spec §5: "waveform ordering, which is fingerprint-sorted") so that
// identical inputs always produce byte-identical output. The generator
// runs a collection pass over the full event tree before emitting any
// instruction that references a table index, so every intern() during
// emission is a pure lookup against already-finalized indices.
type table struct {
	samples map[uint64][]float64
	names   map[uint64]string
	indexOf map[uint64]uint16
	rows    []entryRow
	built   bool
}

type entryRow struct {
	fp uint64
	samples []float64
	name    string
}

func newTable() *table {
	return &table{samples: make(map[uint64][]float64), names: make(map[uint64]string), indexOf: make(map[uint64]uint16)}
}

// has reports whether fp was already registered, so callers can avoid
// recomputing stateful transforms (e.g. a distortion chain's running
// filter state) for an entry that will just be discarded.
func (t *table) has(fp uint64) bool {
	_, ok := t.samples[fp]
	return ok
}

// collect registers a fingerprinted entry during the pre-pass. Safe to
// call repeatedly for the same fingerprint.
func (t *table) collect(fp uint64, name string, samples []float64) {
	if _, ok := t.samples[fp]; ok {
		return
	}
	t.samples[fp] = samples
	t.names[fp] = name
}

// build assigns final, fingerprint-sorted indices. Must be called once,
// after every collect() and before any intern().
func (t *table) build() {
	fps := make([]uint64, 0, len(t.samples))
	for fp := range t.samples {
		fps = append(fps, fp)
	}
	sort.Slice(fps, func(i, j int) bool { return fps[i] < fps[j] })
	t.rows = make([]entryRow, len(fps))
	for i, fp := range fps {
		t.indexOf[fp] = uint16(i)
		t.rows[i] = entryRow{fp: fp, samples: t.samples[fp], name: t.names[fp]}
	}
	t.built = true
}

// intern returns the final index for a previously collected fingerprint.
// It panics if called before build() or for an uncollected fingerprint —
// both indicate a generator bug (a table reference that skipped the
// collection pass), not a user-facing compile error.
func (t *table) intern(fp uint64) uint16 {
	if !t.built {
		panic("q1asm: table.intern called before build()")
	}
	idx, ok := t.indexOf[fp]
	if !ok {
		panic("q1asm: table.intern called for uncollected fingerprint")
	}
	return idx
}

// waveformEntries returns the table's rows as the output-facing type.
func (t *table) waveformEntries() []WaveformEntry {
	out := make([]WaveformEntry, len(t.rows))
	for i, r := range t.rows {
		out[i] = WaveformEntry{Index: uint16(i), Name: r.name, Samples: r.samples}
	}
	return out
}

func (t *table) weightEntries() []WeightEntry {
	out := make([]WeightEntry, len(t.rows))
	for i, r := range t.rows {
		out[i] = WeightEntry{Index: uint16(i), Name: r.name, Samples: r.samples}
	}
	return out
}
