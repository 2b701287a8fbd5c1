package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	charmLog "github.com/charmbracelet/log"
)

// runtimeLogger fans log events to a styled console sink and, in dev mode, a logfmt file.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger builds the sinks for one process. devLogPath is only opened in dev mode.
func newRuntimeLogger(stderr io.Writer, appName, level string, devMode bool, devLogPath string) (*runtimeLogger, error) {
	parsed, err := charmLog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	console := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           parsed,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Formatter:       charmLog.TextFormatter,
	})
	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{console},
		consoleSink:    console,
		consoleEnabled: true,
	}
	if !devMode || devLogPath == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	file, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	fileSink := charmLog.NewWithOptions(file, charmLog.Options{
		Level:           parsed,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileSink)
	logger.closeFile = file.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the open dev log file, if any.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Console returns the console sink for transports that take a *log.Logger.
func (l *runtimeLogger) Console() *charmLog.Logger {
	return l.consoleSink
}

func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled mutes the console sink while the TUI owns the terminal.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Log(level, msg, keyvals...)
		}
	}
}

func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals...) }
func (l *runtimeLogger) Info(msg string, keyvals ...any)  { l.log(charmLog.InfoLevel, msg, keyvals...) }
func (l *runtimeLogger) Warn(msg string, keyvals ...any)  { l.log(charmLog.WarnLevel, msg, keyvals...) }
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals...) }
