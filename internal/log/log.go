// Package log is the process-wide structured logger. Messages take a list of
// alternating key/value pairs, which are attached to the entry as fields.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup configures the logger. Debug output is only emitted when verbose is set.
// Results go to stdout, so logs always go to stderr.
func Setup(verbose bool) {
	SetupWithOutput(os.Stderr, verbose)
}

// SetupWithOutput is Setup with a custom destination, used by tests.
func SetupWithOutput(out io.Writer, verbose bool) {
	logger = newLogger(out)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
}

func Debug(msg string, args ...any) {
	entry(args).Debug(msg)
}

func Info(msg string, args ...any) {
	entry(args).Info(msg)
}

func Warn(msg string, args ...any) {
	entry(args).Warn(msg)
}

func Error(msg string, args ...any) {
	entry(args).Error(msg)
}

// entry turns key/value pairs into logrus fields. A dangling key is kept
// under "!BADKEY" so that it is not silently lost.
func entry(args []any) *logrus.Entry {
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return logger.WithFields(fields)
}
