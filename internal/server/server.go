// Package server defines the Server lifecycle contract (Listen/Shutdown)
// and the logger+router construction helper the app package wires
// handlers into, kept structurally identical to the teacher's
// internal/server.
package server

import (
	"context"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/logger"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/server/router"
)

type (
	EngineOptions struct {
		Debug bool
	}

	Server interface {
		Listen(port int, localOnly bool) error
		Shutdown(ctx context.Context) error
	}
)

// NewLoggerAndRouter constructs the logger and router an appServer wires
// its routes into.
func NewLoggerAndRouter(options EngineOptions) (*logger.Logger, *router.Router) {
	l := logger.NewLogger(logger.LoggerOptions{Debug: options.Debug})
	r := router.NewRouter(router.RouterOptions{Logger: l})
	return l, r
}
