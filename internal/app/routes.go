package app

import (
	"net/http"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/server/router"
)

func (a *appServer) routes() []*router.Route {
	return []*router.Route{
		{
			Name:        "health",
			Method:      http.MethodGet,
			Pattern:     "/health",
			HandlerFunc: a.HealthHandler,
		},
		{
			Name:        "v1.compile",
			Method:      http.MethodPost,
			Pattern:     "/v1/compile",
			HandlerFunc: a.CompileHandler,
		},
		{
			Name:        "v1.compile.get",
			Method:      http.MethodGet,
			Pattern:     "/v1/compile/:id",
			HandlerFunc: a.GetCompilationHandler,
		},
	}
}
