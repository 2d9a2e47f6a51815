package schedule

import "fmt"

// DiagnosticKind classifies a structured scheduling note, in the style of
// the teacher's qc/benchmark ExecutionMetrics/ResourceUsage reporting:
// scheduling decisions are surfaced as data, not log lines the caller has
// to scrape.
type DiagnosticKind int

const (
	// DiagPadded marks a bus clock padded up to the next MIN_CLOCK
	// boundary after an operation whose duration is not a multiple of
	// MIN_CLOCK (spec §4.3).
	DiagPadded DiagnosticKind = iota
	// DiagSynced marks a bus advanced by Sync to catch up to the slowest
	// bus in the set.
	DiagSynced
	// DiagImplicitSync marks an autosync-inserted Sync at a loop tail
	// (spec §4.3 Policy).
	DiagImplicitSync
)

// Diagnostic is one structured scheduling note attached to the output of
// Partition.
type Diagnostic struct {
	Kind      DiagnosticKind
	Bus       string
	DeltaNs   int64
	AtNs      int64
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagPadded:
		return fmt.Sprintf("bus %q padded by %dns to align to clock at %dns", d.Bus, d.DeltaNs, d.AtNs)
	case DiagSynced:
		return fmt.Sprintf("bus %q advanced by %dns to sync at %dns", d.Bus, d.DeltaNs, d.AtNs)
	case DiagImplicitSync:
		return fmt.Sprintf("implicit tail sync inserted for bus %q (+%dns) at %dns", d.Bus, d.DeltaNs, d.AtNs)
	default:
		return fmt.Sprintf("diagnostic(kind=%d, bus=%q, delta=%dns, at=%dns)", d.Kind, d.Bus, d.DeltaNs, d.AtNs)
	}
}
