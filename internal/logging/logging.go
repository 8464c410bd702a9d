package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with rotated file output. Log lines go to both the
// rotated file and stdout.
type Logger struct {
	*logrus.Logger
	rotator *lumberjack.Logger
}

func New(dir, level string) (*Logger, error) {
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "flood-geoservice.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}

	l := logrus.New()
	l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &Logger{Logger: l, rotator: rotator}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// Close flushes and closes the rotated log file.
func (l *Logger) Close() {
	if l.rotator != nil {
		_ = l.rotator.Close()
	}
}
