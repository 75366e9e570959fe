package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
)

// Rotation settings for --log-file.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

// fieldHook adds fixed fields to every log entry.
type fieldHook struct {
	fields logrus.Fields
}

func (h fieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h fieldHook) Fire(e *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// setupLogging configures the standard logrus logger: level, colours when
// console is a terminal, an optional rotating file sink and an experiment
// id on every entry. The returned closer flushes the file sink.
func setupLogging(console io.Writer, level, file, experiment string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", sim.ErrInvalidConfig, level)
	}
	logger := logrus.StandardLogger()
	logger.SetLevel(lvl)
	logger.ReplaceHooks(make(logrus.LevelHooks))
	logger.AddHook(fieldHook{fields: logrus.Fields{"experiment": experiment}})

	tty := isTerminal(console)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   tty && file == "",
		DisableColors: !tty || file != "",
	})

	if file == "" {
		logger.SetOutput(console)
		return io.NopCloser(nil), nil
	}
	if !strings.HasSuffix(file, ".log") {
		return nil, fmt.Errorf("%w: log file %q must end in .log", sim.ErrInvalidConfig, file)
	}
	sink := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
	}
	logger.SetOutput(io.MultiWriter(console, sink))
	return sink, nil
}

// newExperimentID returns a fresh id for one CLI invocation.
func newExperimentID() string {
	return uuid.NewString()
}
