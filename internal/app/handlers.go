package app

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/compileservice"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
)

// CompileRequest is the JSON body of POST /v1/compile: a QProgram in its
// versioned wire form (ir.Marshal's output, spec §4.1/§6.1) plus the
// virtual->physical BusMapping (missing entries imply identity, §6.1).
type CompileRequest struct {
	Program    json.RawMessage   `json:"program"`
	BusMapping map[string]string `json:"bus_mapping,omitempty"`
}

// CompileResponse is the JSON body of a successful compile.
type CompileResponse struct {
	JobID    string   `json:"job_id"`
	Buses    []string `json:"buses"`
	Warnings []string `json:"warnings,omitempty"`
}

// HealthHandler serves GET /health.
func (a *appServer) HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// CompileHandler serves POST /v1/compile: unmarshal the submitted
// QProgram, run it through compileservice against this server's
// calibration/backend config, and return the job ID a caller later fetches
// the full result with.
func (a *appServer) CompileHandler(c *gin.Context) {
	l, err := a.loggerFromContext(c)
	if err != nil {
		return
	}

	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Error().Err(err).Msg("binding compile request failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": badRequestErrorMsg})
		return
	}

	prog, err := ir.Unmarshal(req.Program)
	if err != nil {
		l.Error().Err(err).Msg("unmarshalling qprogram failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid qprogram: " + err.Error()})
		return
	}

	jobID, result, err := a.service.Compile(compileservice.CompileRequest{
		Program:     prog,
		Calibration: a.calibration,
		BusMapping:  req.BusMapping,
		Backend:     a.backend,
	})
	if err != nil {
		l.Warn().Err(err).Msg("compilation rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	buses := make([]string, 0, len(result.Buses))
	for bus := range result.Buses {
		buses = append(buses, bus)
	}
	c.JSON(http.StatusOK, CompileResponse{JobID: jobID, Buses: buses, Warnings: result.Warnings})
}

// GetCompilationHandler serves GET /v1/compile/:id, returning the full
// per-bus programs/tables/acquisitions/runtime-params (spec §4.5).
func (a *appServer) GetCompilationHandler(c *gin.Context) {
	l, err := a.loggerFromContext(c)
	if err != nil {
		return
	}

	id := c.Param("id")
	result, err := a.service.GetCompilation(id)
	if err != nil {
		l.Warn().Err(err).Str("jobID", id).Msg("compilation lookup failed")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
