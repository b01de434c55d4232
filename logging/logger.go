// Package logging backs the glog.Logger contract with zerolog.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-interactions/core"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger adapts a zerolog.Logger to glog.Logger. Arguments are key/value
// pairs; a trailing key without a value is reported under "extra".
type Logger struct {
	zl zerolog.Logger
}

// New builds a logger from cfg. Console format is meant for local runs.
func New(cfg core.LoggingConfig, w io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stdout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return nil, core.ConfigError(nil, fmt.Sprintf("logging: unsupported format %q", cfg.Format), nil)
	}
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

func ParseLevel(value string) (zerolog.Level, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(value)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.NoLevel, core.ConfigError(err, fmt.Sprintf("logging: unsupported level %q", value), nil)
	}
	return level, nil
}

func (l *Logger) Trace(msg string, args ...any) { l.log(l.zl.Trace(), msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.log(l.zl.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(l.zl.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(l.zl.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(l.zl.Error(), msg, args) }

// Fatal logs at fatal severity without exiting; callers decide how to stop.
func (l *Logger) Fatal(msg string, args ...any) { l.log(l.zl.WithLevel(zerolog.FatalLevel), msg, args) }

// WithContext returns l; request scoped values travel as explicit fields.
func (l *Logger) WithContext(context.Context) glog.Logger {
	return l
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(name string) *Logger {
	if strings.TrimSpace(name) == "" {
		return l
	}
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

func (l *Logger) log(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	if len(args)%2 == 1 {
		args = append(args[:len(args)-1:len(args)-1], "extra", args[len(args)-1])
	}
	event.Fields(args).Msg(msg)
}

var _ glog.Logger = (*Logger)(nil)
