package test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Elactrac/dotnation-sub001/log"
)

// Logger routes log output to testing.T.
type Logger struct {
	mtx sync.Mutex
	T   *testing.T
}

var _ log.Logger = &Logger{}

// NewLogger creates a test logger.
func NewLogger(t *testing.T) *Logger {
	return &Logger{T: t}
}

func (l *Logger) log(level, msg string, keyVals ...any) {
	l.T.Helper()
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.T.Log(append([]any{level + ": " + msg}, keyVals...)...)
}

func (l *Logger) Debug(msg string, keyVals ...any) { l.log("DEBUG", msg, keyVals...) }
func (l *Logger) Info(msg string, keyVals ...any)  { l.log("INFO", msg, keyVals...) }
func (l *Logger) Warn(msg string, keyVals ...any)  { l.log("WARN", msg, keyVals...) }
func (l *Logger) Error(msg string, keyVals ...any) { l.log("ERROR", msg, keyVals...) }

// With returns the logger itself; context keys are not tracked in tests.
func (l *Logger) With(keyVals ...any) log.Logger { return l }

// MockLogger accumulates log lines for assertions.
type MockLogger struct {
	mtx        sync.Mutex
	DebugLines []string
	InfoLines  []string
	WarnLines  []string
	ErrLines   []string
}

var _ log.Logger = &MockLogger{}

func (l *MockLogger) record(dst *[]string, msg string, keyVals ...any) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	*dst = append(*dst, fmt.Sprint(append([]any{msg}, keyVals...)...))
}

func (l *MockLogger) Debug(msg string, keyVals ...any) { l.record(&l.DebugLines, msg, keyVals...) }
func (l *MockLogger) Info(msg string, keyVals ...any)  { l.record(&l.InfoLines, msg, keyVals...) }
func (l *MockLogger) Warn(msg string, keyVals ...any)  { l.record(&l.WarnLines, msg, keyVals...) }
func (l *MockLogger) Error(msg string, keyVals ...any) { l.record(&l.ErrLines, msg, keyVals...) }

// With returns the logger itself so recorded lines stay visible to the test.
func (l *MockLogger) With(keyVals ...any) log.Logger { return l }
