package schedule

import "github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"

// Kind discriminates a bus-projected Event, mirroring ir.Kind but
// restricted to what survives projection: Sync itself never appears
// (it is resolved into Wait events on each affected bus at projection
// time), and container kinds carry only the children relevant to this
// bus.
type Kind int

const (
	EventBlock Kind = iota
	EventInfiniteLoop
	EventForLoop
	EventLoop
	EventParallel
	EventAverage

	EventPlay
	EventMeasure
	EventAcquire
	EventWait
	EventWaitTrigger
	EventSetFrequency
	EventSetPhase
	EventResetPhase
	EventSetGain
	EventSetOffset
	EventSetMarkers
	EventMeasureReset
)

// MeasureResetRole distinguishes the readout-bus half of a MeasureReset
// from its control-bus half (spec §4.4.7): the two buses run different
// instruction sequences for the same logical operation.
type MeasureResetRole int

const (
	RoleReadout MeasureResetRole = iota
	RoleControl
)

// Branch is one lane of a projected Parallel, paired with its own body.
type Branch struct {
	Var    *ir.Variable
	Values []float64
	Body   []Event
}

// Event is a single projected, bus-local instruction or container. Only
// the fields relevant to Kind are populated; this mirrors ir.Node's
// struct-per-kind shape but flattened into one type since Events never
// escape this package's and q1asm's internal consumption.
type Event struct {
	Kind Kind

	// leaves
	WaitNs         int64
	Bus            string
	Waveform       ir.WaveformRef
	Weights        ir.WeightsRef
	SaveADC        bool
	Duration       ir.TimeArg
	Freq           ir.FreqArg
	Phase          ir.PhaseArg
	GainI, GainQ   float64
	OffsetI        float64
	OffsetQ        float64
	HasQ           bool
	Mask           uint8
	TriggerAddress int
	ControlBus     string
	ResetPulse     ir.WaveformRef
	Role           MeasureResetRole

	// containers
	Var      *ir.Variable
	Start    float64
	Stop     float64
	Step     float64
	Values   []float64
	Shots    int
	Body     []Event
	Branches []Branch
}
