package compileservice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/compileservice"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/testutil"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/output"
)

func TestService_CompileAndGetCompilation(t *testing.T) {
	svc := compileservice.NewService(compileservice.ServiceOptions{})

	prog := testutil.NewReadoutProgram(t, 4)
	req := compileservice.CompileRequest{
		Program:     prog,
		Calibration: testutil.NewCalibration(),
		Backend:     testutil.NewBackendConfig(),
	}

	jobID, result, err := svc.Compile(req)
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)
	assert.Contains(t, result.Buses, "drive")
	assert.Contains(t, result.Buses, "readout")

	fetched, err := svc.GetCompilation(jobID)
	require.NoError(t, err)
	assert.Equal(t, result, fetched)
}

func TestService_CompileErrorNotStored(t *testing.T) {
	svc := compileservice.NewService(compileservice.ServiceOptions{})

	prog := testutil.NewReadoutProgram(t, 1)

	// A program referencing a bus absent from the backend config should
	// fail compilation and never produce a retrievable job ID.
	emptyBackend := testutil.NewBackendConfig()
	emptyBackend.Buses = nil
	_, _, err := svc.Compile(compileservice.CompileRequest{
		Program:     prog,
		Calibration: testutil.NewCalibration(),
		Backend:     emptyBackend,
	})
	assert.Error(t, err)
}

func TestService_GetCompilation_UnknownIDErrors(t *testing.T) {
	svc := compileservice.NewService(compileservice.ServiceOptions{})
	_, err := svc.GetCompilation("does-not-exist")
	assert.Error(t, err)
}

func TestMemStore_SaveAndGet(t *testing.T) {
	store := compileservice.NewMemStore()
	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Save("job-1", output.Result{Warnings: []string{"w"}})
	got, ok := store.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, []string{"w"}, got.Warnings)
}
