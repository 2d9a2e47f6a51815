package ir

import "fmt"

// Sentinel errors mirror the teacher's "package-level var Err..." idiom
// for the simple, parameter-less cases; the others carry structured
// context and satisfy error via a method.
var (
	// ErrValidated names mutation of an already-built program. No Builder
	// method returns it: mutating methods called after Build are ignored.
	ErrValidated = fmt.Errorf("ir: program already built, no further mutation")

	// ErrBuild is wrapped by the error Build returns when it is called a
	// second time on the same Builder.
	ErrBuild = fmt.Errorf("ir: cannot build due to previous error")
)

// DuplicateLabel is returned by Builder.Variable/Param when a label has
// already been declared within the same program.
type DuplicateLabel struct{ Label string }

func (e DuplicateLabel) Error() string {
	return fmt.Sprintf("ir: duplicate variable label %q", e.Label)
}

// UnknownVariable is returned when an operation references a Variable not
// currently in lexical scope (not declared by an enclosing loop header or
// as a program-level parameter).
type UnknownVariable struct {
	Label string
	Path  string // IR path of the offending operation
}

func (e UnknownVariable) Error() string {
	return fmt.Sprintf("ir: variable %q not in scope at %s", e.Label, e.Path)
}

// DomainMismatch is returned when a Variable's Domain does not match what
// the referencing operation expects.
type DomainMismatch struct {
	Label    string
	Got      Domain
	Expected Domain
	Path     string
}

func (e DomainMismatch) Error() string {
	return fmt.Sprintf("ir: variable %q has domain %s, expected %s at %s",
		e.Label, e.Got, e.Expected, e.Path)
}

// BadTiming is returned by the Builder for a negative Play wait_time or a
// negative Wait duration (see SPEC_FULL.md, Design Decisions #1), rather
// than silently treating it as "make other buses wait".
type BadTiming struct {
	Bus    string
	WaitNs int64
}

func (e BadTiming) Error() string {
	return fmt.Sprintf("ir: negative wait time %dns on bus %q", e.WaitNs, e.Bus)
}

// BadSpan is returned when Parallel is given loops of unequal iteration
// count (spec §3.3: "equal length is an invariant").
type BadSpan struct {
	Counts []int
}

func (e BadSpan) Error() string {
	return fmt.Sprintf("ir: parallel loops have mismatched iteration counts %v", e.Counts)
}
