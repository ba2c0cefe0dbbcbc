package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger from the logging settings.
// Output is JSON. With to_file enabled, entries are appended asynchronously
// to file_path while still being echoed to the console; otherwise they go to
// stdout only. With logging disabled entirely the logger swallows everything.
func NewLogger(cfg config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})

	logger.SetLevel(parseLevel(cfg.Level))

	if !cfg.Enabled {
		logger.SetOutput(io.Discard)
		return logger, nil
	}

	if !cfg.ToFile {
		logger.SetOutput(os.Stdout)
		return logger, nil
	}

	logPath := filepath.Clean(cfg.FilePath)
	if err := os.MkdirAll(filepath.Dir(logPath), 0750); err != nil {
		return nil, err
	}

	asyncWriter, err := NewAsyncFileWriter(logPath, FileWriterOptions{
		BufferSize:    cfg.BufferSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	logger.SetOutput(asyncWriter)
	logger.AddHook(NewConsoleHook(logger.GetLevel()))

	return logger, nil
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug", "DEBUG":
		return logrus.DebugLevel
	case "warn", "warning", "WARN", "WARNING":
		return logrus.WarnLevel
	case "error", "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
