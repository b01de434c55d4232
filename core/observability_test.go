package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type capturedLog struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	records []capturedLog
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, capturedLog{level: level, msg: msg, args: args})
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record(LevelDebug, msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record(LevelInfo, msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record(LevelWarn, msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record(LevelError, msg, args) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args) }

func (l *captureLogger) WithContext(context.Context) glog.Logger { return l }

func argValue(args []any, key string) (any, bool) {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1], true
		}
	}
	return nil, false
}

func TestObserveOperation(t *testing.T) {
	logger := &captureLogger{}
	ObserveOperation(context.Background(), logger, time.Now(), "Callback Dispatch", nil, map[string]any{"interaction_id": "1"})
	ObserveOperation(context.Background(), logger, time.Now(), "callback-dispatch", errors.New("502"), nil)

	if len(logger.records) != 2 {
		t.Fatalf("expected two records, got %d", len(logger.records))
	}
	ok := logger.records[0]
	if ok.level != LevelInfo || ok.msg != "callback_dispatch succeeded" {
		t.Fatalf("unexpected success record %#v", ok)
	}
	if status, _ := argValue(ok.args, "status"); status != "success" {
		t.Fatalf("expected success status, got %#v", status)
	}
	failed := logger.records[1]
	if failed.level != LevelError || failed.msg != "callback_dispatch failed" {
		t.Fatalf("unexpected failure record %#v", failed)
	}
	if value, _ := argValue(failed.args, "error"); value != "502" {
		t.Fatalf("expected error field, got %#v", value)
	}
}

func TestLogWithLevel_RedactsAboveDebug(t *testing.T) {
	logger := &captureLogger{}
	fields := map[string]any{"token": "secret-token", "interaction_id": "1"}
	LogWithLevel(context.Background(), logger, LevelWarn, "rejected", fields)
	LogWithLevel(context.Background(), logger, LevelDebug, "decoded", fields)

	if value, _ := argValue(logger.records[0].args, "token"); value != RedactedValue {
		t.Fatalf("expected warn token to be redacted, got %#v", value)
	}
	if value, _ := argValue(logger.records[1].args, "token"); value != "secret-token" {
		t.Fatalf("expected debug token to stay raw, got %#v", value)
	}
	if logger.records[0].args[0] != "interaction_id" {
		t.Fatalf("expected sorted keys, got %#v", logger.records[0].args)
	}
	LogWithLevel(context.Background(), nil, LevelInfo, "no logger", nil)
}
