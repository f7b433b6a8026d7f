package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/usercube/internal/logger"
)

// requestLogger logs one line per request at debug level, or warn for 5xx.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= http.StatusInternalServerError {
			logger.Warn("[%s] %s %s %d %v %s", c.Request.Method, path, c.ClientIP(), status, latency, c.Errors.String())
			return
		}
		logger.Debug("[%s] %s %s %d %v", c.Request.Method, path, c.ClientIP(), status, latency)
	}
}

// cors allows any origin to read the API; the renderer is served elsewhere.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
