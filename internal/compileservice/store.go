// Package compileservice exposes the compiler pipeline as a stateful
// service: submit a QProgram, get back a job ID, fetch the compilation
// result by ID later. It plays the role the teacher's internal/qservice
// played for circuit rendering (ProgramStore/Service split,
// uuid-generated IDs), retargeted from "render a circuit to PNG" to
// "compile a QProgram to Q1ASM".
package compileservice

import (
	"fmt"
	"sync"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/output"
)

// CompilationStore persists compile results by job ID, the compileservice
// analogue of qservice.ProgramStore.
type CompilationStore interface {
	// Save records a completed compilation under the job ID id.
	Save(id string, result output.Result)
	// Get returns a previously saved compilation.
	Get(id string) (output.Result, bool)
}

// memStore is an in-memory CompilationStore, directly grounded on
// qservice.programStore's sync.RWMutex-guarded map.
type memStore struct {
	mu      sync.RWMutex
	results map[string]output.Result
}

// NewMemStore returns an empty in-memory CompilationStore.
func NewMemStore() CompilationStore {
	return &memStore{results: make(map[string]output.Result)}
}

func (s *memStore) Save(id string, result output.Result) {
	s.mu.Lock()
	s.results[id] = result
	s.mu.Unlock()
}

func (s *memStore) Get(id string) (output.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok
}

// errNotFound is returned by GetCompilation for an unknown job ID.
type errNotFound struct{ id string }

func (e errNotFound) Error() string {
	return fmt.Sprintf("compileservice: no compilation with id %q", e.id)
}
