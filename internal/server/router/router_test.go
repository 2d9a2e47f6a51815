package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/logger"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/server/router"
)

func newTestRouter() *router.Router {
	return router.NewRouter(router.RouterOptions{
		Logger: logger.NewLogger(logger.LoggerOptions{}),
	})
}

func TestNewRouter_NoRouteReturns404JSON(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestSetRoutes_RegistersGETAndPOST(t *testing.T) {
	r := newTestRouter()
	r.SetRoutes([]*router.Route{
		{Name: "ping", Method: http.MethodGet, Pattern: "/ping", HandlerFunc: func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		}},
		{Name: "echo", Method: http.MethodPost, Pattern: "/echo", HandlerFunc: func(c *gin.Context) {
			c.String(http.StatusOK, "echoed")
		}},
	})

	getReq := httptest.NewRequest(http.MethodGet, "/ping", nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
	assert.Equal(t, "pong", getW.Body.String())

	postReq := httptest.NewRequest(http.MethodPost, "/echo", nil)
	postW := httptest.NewRecorder()
	r.ServeHTTP(postW, postReq)
	assert.Equal(t, http.StatusOK, postW.Code)
}

func TestShutdown_NoServerErrors(t *testing.T) {
	r := newTestRouter()
	err := r.Shutdown(nil) //nolint:staticcheck // ctx unused by the no-server path
	assert.Error(t, err)
	assert.IsType(t, &router.ErrNoServerToShutdown{}, err)
}
