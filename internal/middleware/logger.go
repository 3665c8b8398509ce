package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/utils"
)

const slowRequestThreshold = 2 * time.Second

// Logger 请求日志中间件，同时统计请求数
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// 处理请求
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		utils.Metrics.HTTPRequests.WithLabelValues(route, fmt.Sprintf("%dxx", status/100)).Inc()

		entry := utils.Log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"ip":      c.ClientIP(),
			"status":  status,
			"latency": latency.String(),
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case latency > slowRequestThreshold:
			entry.Warn("slow request")
		default:
			entry.Info("request")
		}
	}
}
