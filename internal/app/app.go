// Package app wires the compile service into an HTTP-facing appServer,
// the same role the teacher's internal/app played wiring qservice's
// circuit render/save endpoints — retargeted at Compile/GetCompilation
// (spec §1: "we do not specify how the host ships compiled output to
// hardware"; this dev-facing HTTP surface stops at handing back the
// compiled Q1ASM/tables, never touching instrument transport).
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/compileservice"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/config"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/logger"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/server"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/server/router"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

var (
	badRequestErrorMsg     = "Bad Request - please contact the administrator"
	internalServerErrorMsg = "Internal Server Error - please contact the administrator"
)

type (
	ServerOptions struct {
		C           *config.Config
		Version     string
		Calibration *waveform.Calibration // defaults to defaultCalibration() if nil
		Backend     *compiler.BackendConfig
	}

	appServer struct {
		logger      *logger.Logger
		router      *router.Router
		service     compileservice.Service
		version     string
		calibration *waveform.Calibration
		backend     compiler.BackendConfig
	}

	appServerOptions struct {
		logger      *logger.Logger
		router      *router.Router
		service     compileservice.Service
		version     string
		calibration *waveform.Calibration
		backend     compiler.BackendConfig
	}
)

func newAppServer(options appServerOptions) *appServer {
	a := &appServer{
		logger:      options.logger,
		router:      options.router,
		service:     options.service,
		version:     options.version,
		calibration: options.calibration,
		backend:     options.backend,
	}
	a.router.SetRoutes(a.routes())
	return a
}

// Listen implements server.Server.
func (a *appServer) Listen(port int, localOnly bool) error {
	a.logger.Info().Int("port", port).Bool("localOnly", localOnly).Str("version", a.version).Msg("starting qprog compile service")
	return a.router.Start(port, localOnly)
}

// Shutdown implements server.Server.
func (a *appServer) Shutdown(ctx context.Context) error {
	return a.router.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for in-process testing
// (httptest) without requiring a bound TCP listener.
func (a *appServer) Handler() http.Handler {
	return a.router
}

// NewServer constructs the compile service's HTTP surface.
func NewServer(options ServerOptions) (server.Server, error) {
	l, r := server.NewLoggerAndRouter(server.EngineOptions{
		Debug: options.C.GetBool("debug"),
	})
	svc := compileservice.NewService(compileservice.ServiceOptions{
		Logger: l,
		Store:  compileservice.NewMemStore(),
	})

	cal := options.Calibration
	if cal == nil {
		cal = defaultCalibration()
	}
	backend := defaultBackendConfig()
	if options.Backend != nil {
		backend = *options.Backend
	}

	app := newAppServer(appServerOptions{
		logger:      l,
		router:      r,
		service:     svc,
		version:     options.Version,
		calibration: cal,
		backend:     backend,
	})
	return app, nil
}

func (a *appServer) loggerFromContext(c *gin.Context) (*logger.Logger, error) {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l, nil
		}
	}
	err := errors.New("logger not found in context")
	a.logger.Error().Err(err).Send()
	c.String(http.StatusInternalServerError, internalServerErrorMsg)
	return nil, err
}
