package waveform

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
)

// CalibrationMiss is returned when a named lookup has no entry in the
// Calibration store (spec §3.4: "A missing name fails compilation").
type CalibrationMiss struct {
	Bus  string
	Name string
}

func (e CalibrationMiss) Error() string {
	return fmt.Sprintf("waveform: no calibration entry for bus %q name %q", e.Bus, e.Name)
}

// entry is the tagged union a Calibration resolves a (bus, name) key to.
// Exactly one field is populated; callers downcast with a type switch on
// whichever accessor they called (Waveform/IQPair/Weights).
type entry struct {
	waveform Waveform
	iqPair   *IQPair
	weights  *Weights
}

// Calibration maps (bus, name) to a resolved Waveform, IQPair, or
// Weights, plus a registry of named precompiled IR blocks (spec §3.4).
// It is consumed during IR finalization: any WaveformRef/WeightsRef whose
// Resolved field is nil is looked up here and rewritten.
type Calibration struct {
	entries map[string]entry
	blocks  map[string]*ir.Block
}

// NewCalibration returns an empty Calibration store.
func NewCalibration() *Calibration {
	return &Calibration{
		entries: make(map[string]entry),
		blocks:  make(map[string]*ir.Block),
	}
}

func key(bus, name string) string { return bus + "\x00" + name }

// SetWaveform registers a single-channel Waveform under (bus, name).
func (c *Calibration) SetWaveform(bus, name string, w Waveform) {
	c.entries[key(bus, name)] = entry{waveform: w}
}

// SetIQPair registers an IQPair under (bus, name).
func (c *Calibration) SetIQPair(bus, name string, p IQPair) {
	c.entries[key(bus, name)] = entry{iqPair: &p}
}

// SetWeights registers a Weights pair under (bus, name).
func (c *Calibration) SetWeights(bus, name string, w Weights) {
	c.entries[key(bus, name)] = entry{weights: &w}
}

// SetBlock registers a precompiled, reusable IR block under name — e.g. a
// calibrated two-qubit gate sequence a Builder can flatten via
// ir.Builder.InsertBlock.
func (c *Calibration) SetBlock(name string, block *ir.Block) {
	c.blocks[name] = block
}

// ResolveWaveform looks up a single-channel Waveform.
func (c *Calibration) ResolveWaveform(bus, name string) (Waveform, error) {
	e, ok := c.entries[key(bus, name)]
	if !ok || e.waveform == nil {
		return nil, CalibrationMiss{Bus: bus, Name: name}
	}
	return e.waveform, nil
}

// ResolveIQPair looks up an IQPair.
func (c *Calibration) ResolveIQPair(bus, name string) (IQPair, error) {
	e, ok := c.entries[key(bus, name)]
	if !ok || e.iqPair == nil {
		return IQPair{}, CalibrationMiss{Bus: bus, Name: name}
	}
	return *e.iqPair, nil
}

// ResolveWeights looks up a Weights pair.
func (c *Calibration) ResolveWeights(bus, name string) (Weights, error) {
	e, ok := c.entries[key(bus, name)]
	if !ok || e.weights == nil {
		return Weights{}, CalibrationMiss{Bus: bus, Name: name}
	}
	return *e.weights, nil
}

// ResolveAny looks up whichever of Waveform/IQPair/Weights was registered
// under (bus, name) and returns it as `any`, matching the Resolved field
// of ir.WaveformRef/ir.WeightsRef.
func (c *Calibration) ResolveAny(bus, name string) (any, error) {
	e, ok := c.entries[key(bus, name)]
	if !ok {
		return nil, CalibrationMiss{Bus: bus, Name: name}
	}
	switch {
	case e.waveform != nil:
		return e.waveform, nil
	case e.iqPair != nil:
		return *e.iqPair, nil
	case e.weights != nil:
		return *e.weights, nil
	default:
		return nil, CalibrationMiss{Bus: bus, Name: name}
	}
}

// Fingerprint deterministically hashes every (bus, name) entry's
// resolved content, independent of map iteration order, for use as the
// "calibration fingerprint" component of the compiler's cache key
// (spec §5). Two Calibration stores with the same entries under the
// same keys always fingerprint identically, regardless of insertion
// order.
func (c *Calibration) Fingerprint() uint64 {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	var buf [8]byte
	for _, k := range keys {
		h.Write([]byte(k))
		e := c.entries[k]
		var fp uint64
		switch {
		case e.waveform != nil:
			fp = Fingerprint(e.waveform)
		case e.iqPair != nil:
			fp = FingerprintIQ(*e.iqPair)
		case e.weights != nil:
			fp = FingerprintSamples(e.weights.I) ^ FingerprintSamples(e.weights.Q)
		}
		binary.LittleEndian.PutUint64(buf[:], fp)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Block returns a registered named IR block, if any.
func (c *Calibration) Block(name string) (*ir.Block, bool) {
	b, ok := c.blocks[name]
	return b, ok
}

// ResolveProgram walks prog, rewriting every WaveformRef/WeightsRef whose
// Resolved field is nil by looking it up in c for the operation's bus.
// It returns the first CalibrationMiss encountered, if any.
func ResolveProgram(prog *ir.Program, c *Calibration) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ir.Walk(prog.Root, func(n ir.Node) {
		switch op := n.(type) {
		case *ir.Play:
			if op.Waveform.Resolved == nil {
				resolved, err := c.ResolveAny(op.Bus, op.Waveform.Name)
				record(err)
				op.Waveform.Resolved = resolved
			}
		case *ir.Measure:
			if op.Readout.Resolved == nil {
				resolved, err := c.ResolveAny(op.Bus, op.Readout.Name)
				record(err)
				op.Readout.Resolved = resolved
			}
			if op.Weights.Name != "" && op.Weights.Resolved == nil {
				w, err := c.ResolveWeights(op.Bus, op.Weights.Name)
				record(err)
				op.Weights.Resolved = w
			}
		case *ir.Acquire:
			if op.Weights.Name != "" && op.Weights.Resolved == nil {
				w, err := c.ResolveWeights(op.Bus, op.Weights.Name)
				record(err)
				op.Weights.Resolved = w
			}
		case *ir.MeasureReset:
			if op.Readout.Resolved == nil {
				resolved, err := c.ResolveAny(op.Bus, op.Readout.Name)
				record(err)
				op.Readout.Resolved = resolved
			}
			if op.Weights.Name != "" && op.Weights.Resolved == nil {
				w, err := c.ResolveWeights(op.Bus, op.Weights.Name)
				record(err)
				op.Weights.Resolved = w
			}
			if op.ResetPulse.Resolved == nil {
				resolved, err := c.ResolveAny(op.ControlBus, op.ResetPulse.Name)
				record(err)
				op.ResetPulse.Resolved = resolved
			}
		}
	})
	return firstErr
}
