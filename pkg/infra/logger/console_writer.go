package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ConsoleHook mirrors file-bound entries to the console so operators still
// see them live. Entries below minLevel stay file-only.
type ConsoleHook struct {
	out      io.Writer
	minLevel logrus.Level
}

func NewConsoleHook(minLevel logrus.Level) *ConsoleHook {
	return &ConsoleHook{out: os.Stdout, minLevel: minLevel}
}

func (h *ConsoleHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}

func (h *ConsoleHook) Levels() []logrus.Level {
	// logrus levels are ordered most to least severe.
	return logrus.AllLevels[:h.minLevel+1]
}
