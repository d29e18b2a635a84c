/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// ZerologNotifier writes events as structured log lines.
type ZerologNotifier struct {
	logger  zerolog.Logger
	logFile *os.File
}

// NewZerolog creates a notifier on top of an existing logger.
func NewZerolog(logger zerolog.Logger) *ZerologNotifier {
	return &ZerologNotifier{logger: logger}
}

// LogBuild assembles a ZerologNotifier from a file path or writer.
type LogBuild struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

// NewLogBuild starts a builder that writes to stderr at info level.
func NewLogBuild() *LogBuild {
	return &LogBuild{writer: os.Stderr, level: zerolog.InfoLevel}
}

func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromWriter(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

func (build *LogBuild) WithLevel(level zerolog.Level) *LogBuild {
	build.level = level
	return build
}

// Make opens the log file, if any, and returns the notifier.
func (build *LogBuild) Make() (*ZerologNotifier, error) {
	n := new(ZerologNotifier)
	writer := build.writer
	if build.path != "" {
		f, err := os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		n.logFile = f
		writer = zerolog.SyncWriter(f)
	}
	n.logger = zerolog.New(writer).Level(build.level).With().Timestamp().Logger()
	return n, nil
}

// Close releases the log file opened by Make.
func (n *ZerologNotifier) Close() error {
	if n.logFile == nil {
		return nil
	}
	return n.logFile.Close()
}

// Logger exposes the underlying logger.
func (n *ZerologNotifier) Logger() zerolog.Logger {
	return n.logger
}

func (n *ZerologNotifier) Notify(_ context.Context, ev Event) {
	var e *zerolog.Event
	switch ev.Outcome {
	case OutcomeSuccess:
		e = n.logger.Info()
	case OutcomeUnavailable:
		e = n.logger.Warn().Str("status", ev.Status)
	default:
		e = n.logger.Error().Err(ev.Err)
	}

	e = e.Str("operation", ev.Operation).
		Str("outcome", string(ev.Outcome)).
		Dur("duration", ev.Duration)
	if ev.Scope != "" {
		e = e.Str("scope", ev.Scope)
	}
	if ev.RecordType != "" {
		e = e.Str("recordType", ev.RecordType)
	}
	if len(ev.RecordIDs) > 0 {
		e = e.Strs("records", ev.RecordIDs)
	}
	if ev.Outcome == OutcomeSuccess {
		e = e.Int("count", ev.Count)
	}
	e.Msg(ev.Operation + " " + string(ev.Outcome))
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
