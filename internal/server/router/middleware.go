package router

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/logger"
)

var requestCount int64

const requestServedMsg = "request served"

type CORSOptions struct {
	Origin string
}

// cors is the same permissive-by-default CORS middleware the teacher's
// router installed.
func cors(options CORSOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := "*"
		if options.Origin != "" {
			origin = options.Origin
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// requestWrapper logs each request/response and injects a per-request
// child logger (tagged with a monotonic count and a request ID) into the
// gin context, the same discipline the teacher's router used.
func requestWrapper(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCount, reqID := setupContext(c)
		l := log.SpawnForContext(reqCount, reqID)
		c.Set("logger", l)

		reqPath := c.Request.URL.Path
		l.Debug().Msgf("incoming request: %s", reqPath)

		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		latency := time.Since(start)

		switch {
		case status >= 200 && status < 300:
			l.Info().Str("path", reqPath).Str("method", c.Request.Method).Int("status", status).Dur("latency", latency).Msg(requestServedMsg)
		case status == http.StatusNotFound:
			l.Warn().Str("path", reqPath).Str("method", c.Request.Method).Int("status", status).Dur("latency", latency).Msg(requestServedMsg)
		default:
			l.Error().Str("path", reqPath).Str("method", c.Request.Method).Int("status", status).Dur("latency", latency).Msg(requestServedMsg)
		}
	}
}

func setupContext(c *gin.Context) (reqCount, reqID string) {
	reqCount = strconv.FormatInt(atomic.AddInt64(&requestCount, 1), 10)
	c.Set("requestcount", reqCount)
	reqID = c.Request.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.Must(uuid.NewRandom()).String()
	}
	c.Set("requestid", reqID)
	c.Writer.Header().Set("X-Request-Id", reqID)
	return
}
