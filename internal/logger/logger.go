package logger

import (
	"io"
	"os"

	"aviaskill/internal/config"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logrus logger from config: level, format
// (json or nested text) and an optional rotating file sink alongside
// stderr.
func Setup(cfg *config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&formatter.Formatter{
			TimestampFormat: "2006-01-02 15:04:05",
			HideKeys:        false,
			NoColors:        cfg.File != "",
		})
	}

	writers := []io.Writer{os.Stderr}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100, // megabytes
			MaxAge:     7,   // days
			MaxBackups: 3,
		})
	}
	logrus.SetOutput(io.MultiWriter(writers...))
}
