// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	outputOnce sync.Once
	output     io.Writer = os.Stdout
)

// NewLogger returns a logrus logger configured from LOG_LEVEL and LOG_FILE.
// Packages create their own instance at init time, so the settings are read
// straight from the environment instead of the loaded config.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(sharedOutput())
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	return log
}

// sharedOutput makes every logger write through one rotating file handle.
func sharedOutput() io.Writer {
	outputOnce.Do(func() {
		path := strings.TrimSpace(os.Getenv("LOG_FILE"))
		if path == "" {
			return
		}
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	})
	return output
}

func parseLevel(raw string) logrus.Level {
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
