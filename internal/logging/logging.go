// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to stderr at the given level.
// An empty level means info.
func New(level string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stderr, level)
}

func NewWithOutput(out io.Writer, level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.Out = out
	logger.Formatter = &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		TimestampFormat:        "2006/01/02 15:04:05",
		FullTimestamp:          true,
	}
	if level == "" {
		return logger, nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.Level = parsed
	return logger, nil
}
