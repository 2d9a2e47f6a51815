package compileservice

import (
	"github.com/google/uuid"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/logger"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/output"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// CompileRequest bundles everything compiler.Compile needs for one job.
type CompileRequest struct {
	Program     *ir.Program
	Calibration *waveform.Calibration
	BusMapping  map[string]string
	Backend     compiler.BackendConfig
}

// ServiceOptions configures a new Service.
type ServiceOptions struct {
	Logger *logger.Logger
	Store  CompilationStore
}

// Service is the compileservice boundary: submit a QProgram for
// compilation, fetch a past result by job ID. Mirrors qservice.Service's
// shape (RenderCircuit/SaveProgram) retargeted at Compile/GetCompilation.
type Service interface {
	// Compile runs req through the compiler pipeline, stores the result
	// under a fresh job ID, and returns both. A compile error is never
	// stored (spec §7: "a partial output is never returned").
	Compile(req CompileRequest) (jobID string, result output.Result, err error)
	// GetCompilation returns a previously stored result.
	GetCompilation(jobID string) (output.Result, error)
}

type service struct {
	store  CompilationStore
	logger *logger.Logger
}

// NewService constructs a Service backed by opts.Store (an in-memory
// NewMemStore() if nil).
func NewService(opts ServiceOptions) Service {
	if opts.Store == nil {
		opts.Store = NewMemStore()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger(logger.LoggerOptions{})
	}
	return &service{store: opts.Store, logger: opts.Logger}
}

// Compile implements Service.
func (s *service) Compile(req CompileRequest) (string, output.Result, error) {
	jobID := uuid.New().String()
	log := s.logger.SpawnForCompile(jobID)
	log.Debug().Msg("compiling qprogram")

	result, err := compiler.Compile(req.Program, req.Calibration, req.BusMapping, req.Backend)
	if err != nil {
		log.Error().Err(err).Msg("compilation failed")
		return "", output.Result{}, err
	}

	s.store.Save(jobID, result)
	log.Info().Int("buses", len(result.Buses)).Int("warnings", len(result.Warnings)).Msg("compilation succeeded")
	return jobID, result, nil
}

// GetCompilation implements Service.
func (s *service) GetCompilation(jobID string) (output.Result, error) {
	r, ok := s.store.Get(jobID)
	if !ok {
		return output.Result{}, errNotFound{id: jobID}
	}
	return r, nil
}
