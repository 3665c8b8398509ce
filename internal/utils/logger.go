package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log 全局日志实例，JSON 格式输出
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)
}

// InitLogger 根据运行环境调整日志级别，LOG_LEVEL 优先
func InitLogger(env string) {
	level := logrus.InfoLevel
	if env == "development" {
		level = logrus.DebugLevel
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	Log.SetLevel(level)
}

// Component 返回带组件名的日志入口
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
