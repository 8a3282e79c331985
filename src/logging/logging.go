package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// InitLogger configures the process logger. Safe to call more than once;
// later calls only change the level.
func InitLogger(level logrus.Level) *logrus.Logger {
	l := GetLogger()
	l.SetLevel(level)
	return l
}

// GetLogger returns the process logger, creating it with info level on first use.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	})
	return logger
}

// ParseLevel maps a config string to a logrus level. Unknown or empty values
// fall back to info.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
