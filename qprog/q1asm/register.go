// Package q1asm is the heart of the compiler: it lowers a bus's scheduled
// event tree into a Qblox-style sequencer assembly program (Q1ASM), with
// register allocation, variable domain quantization, loop lowering, wait
// coalescing, play/acquire decomposition, active reset sequencing, and
// predistortion filter wiring.
package q1asm

import "fmt"

// DefaultRegisterCount is the size of the named register file R0..Rn-1
// (spec §4.4.1: "a small register file of named registers R0..Rn (default
// n≥30)").
const DefaultRegisterCount = 32

// Register is a sequencer register handle, e.g. "R7".
type Register int

func (r Register) String() string { return fmt.Sprintf("R%d", int(r)) }

// SequencerOverflow is returned when the register file is exhausted.
type SequencerOverflow struct {
	Requested int
	Available int
}

func (e SequencerOverflow) Error() string {
	return fmt.Sprintf("q1asm: register file exhausted (requested %d, only %d available)", e.Requested, e.Available)
}

// RegisterAllocator is a LIFO free-list allocator over a fixed register
// file, with stack discipline per lexical scope (spec §4.4.1): entering a
// loop body pushes a new scope; leaving it returns every register
// acquired inside except those explicitly pinned to an outer scope (live
// loop counters, per §3.6 invariant 7).
type RegisterAllocator struct {
	free   []Register // free list, LIFO
	scopes [][]Register // registers acquired per open scope, innermost last
	pinned map[Register]bool
}

// NewRegisterAllocator returns an allocator over n registers (R0..Rn-1),
// with one root scope already open.
func NewRegisterAllocator(n int) *RegisterAllocator {
	free := make([]Register, n)
	for i := 0; i < n; i++ {
		free[i] = Register(n - 1 - i) // pop order yields R0 first
	}
	return &RegisterAllocator{free: free, scopes: [][]Register{nil}, pinned: make(map[Register]bool)}
}

// Acquire pops a free register and records it in the current scope.
func (a *RegisterAllocator) Acquire() (Register, error) {
	if len(a.free) == 0 {
		return 0, SequencerOverflow{Requested: 1, Available: 0}
	}
	r := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	top := len(a.scopes) - 1
	a.scopes[top] = append(a.scopes[top], r)
	return r, nil
}

// Pin marks r as still live in an outer scope, so PopScope will not free
// it even if it was acquired in the scope being popped (spec §3.6
// invariant 7: loop counters are never freed while live).
func (a *RegisterAllocator) Pin(r Register) { a.pinned[r] = true }

// Unpin clears a previous Pin, making r eligible for release on the next
// PopScope that contains it.
func (a *RegisterAllocator) Unpin(r Register) { delete(a.pinned, r) }

// PushScope opens a new lexical scope (e.g. entering a loop body).
func (a *RegisterAllocator) PushScope() { a.scopes = append(a.scopes, nil) }

// PopScope closes the innermost scope, returning every register it
// acquired to the free list except pinned ones.
func (a *RegisterAllocator) PopScope() {
	top := len(a.scopes) - 1
	acquired := a.scopes[top]
	a.scopes = a.scopes[:top]
	parent := len(a.scopes) - 1
	for i := len(acquired) - 1; i >= 0; i-- {
		r := acquired[i]
		if a.pinned[r] {
			// Still live in an outer scope: keep it tracked against the
			// parent scope so a later PopScope (after Unpin) still frees
			// it correctly.
			if parent >= 0 {
				a.scopes[parent] = append(a.scopes[parent], r)
			}
			continue
		}
		a.free = append(a.free, r)
	}
}

// Release returns r directly to the free list, removing it from whichever
// scope currently tracks it. Used for registers whose lifetime is shorter
// than the lexical scope they were acquired in (e.g. a square-chunk loop
// counter that dies at the end of the straight-line sequence that uses
// it, well before its enclosing PopScope).
func (a *RegisterAllocator) Release(r Register) {
	for s := len(a.scopes) - 1; s >= 0; s-- {
		for i, acquired := range a.scopes[s] {
			if acquired == r {
				a.scopes[s] = append(a.scopes[s][:i], a.scopes[s][i+1:]...)
				delete(a.pinned, r)
				a.free = append(a.free, r)
				return
			}
		}
	}
}

// InUse reports how many registers are currently allocated.
func (a *RegisterAllocator) InUse() int {
	n := 0
	for _, s := range a.scopes {
		n += len(s)
	}
	return n
}
