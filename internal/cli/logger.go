// Copyright 2024 H2O.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli holds h2octl's presentation layer: a leveled, colored logger
// and a spinner for long-running operations (waiting for a newly created
// cluster to become ready).
package cli

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
)

// Level is a verbosity level: 0 is always shown, higher values are debug
// detail gated behind -v/--verbosity.
type Level int32

// Logger is h2octl's logging surface. It intentionally has the same shape
// as the small logging interface the pack's deployment tooling builds
// against - warn/error always print, Info-at-a-level is gated by verbosity.
type Logger interface {
	Warn(message string)
	Warnf(format string, args ...interface{})
	Error(message string)
	Errorf(format string, args ...interface{})
	V(level Level) InfoLogger
	SetVerbosity(level Level)
}

// InfoLogger gates a message behind whether its level is enabled.
type InfoLogger interface {
	Enabled() bool
	Info(message string)
	Infof(format string, args ...interface{})
}

type logger struct {
	writer    io.Writer
	writerMu  sync.Mutex
	verbosity int32
	colored   bool
}

var _ Logger = (*logger)(nil)

// Option configures a Logger at construction time.
type Option func(*logger)

// WithColored enables ANSI coloring of warn/error/debug output.
func WithColored() Option {
	return func(l *logger) { l.colored = true }
}

// Bold renders s in bold white, matching h2octl's banner and headline text.
func Bold(s string) string {
	return color.New(color.FgHiWhite, color.Bold).SprintfFunc()(s)
}

// New returns a Logger writing to writer at the given initial verbosity.
func New(writer io.Writer, verbosity Level, opts ...Option) Logger {
	l := &logger{writer: writer, verbosity: int32(verbosity)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *logger) Warn(message string) {
	if l.colored {
		message = fmt.Sprintf("\x1b[33m%s\x1b[0m", message)
	}
	l.print(message)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	if l.colored {
		format = fmt.Sprintf("\x1b[33m%s\x1b[0m", format)
	}
	l.printf(format, args...)
}

func (l *logger) Error(message string) {
	if l.colored {
		message = fmt.Sprintf("\x1b[31m%s\x1b[0m", message)
	}
	l.print(message)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	if l.colored {
		format = fmt.Sprintf("\x1b[31m%s\x1b[0m", format)
	}
	l.printf(format, args...)
}

func (l *logger) V(level Level) InfoLogger {
	return infoLogger{logger: l, level: level, enabled: level <= Level(l.getVerbosity())}
}

func (l *logger) SetVerbosity(level Level) {
	atomic.StoreInt32(&l.verbosity, int32(level))
}

func (l *logger) getVerbosity() int32 {
	return atomic.LoadInt32(&l.verbosity)
}

type infoLogger struct {
	logger  *logger
	level   Level
	enabled bool
}

func (i infoLogger) Enabled() bool { return i.enabled }

func (i infoLogger) Info(message string) {
	if !i.enabled {
		return
	}
	if i.level > 0 {
		i.logger.debug(message)
		return
	}
	i.logger.print(message)
}

func (i infoLogger) Infof(format string, args ...interface{}) {
	if !i.enabled {
		return
	}
	if i.level > 0 {
		i.logger.debugf(format, args...)
		return
	}
	i.logger.printf(format, args...)
}

func (l *logger) writeBuffer(buf *bytes.Buffer) {
	if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
	l.writerMu.Lock()
	defer l.writerMu.Unlock()
	_, _ = l.writer.Write(buf.Bytes())
}

func (l *logger) print(message string) {
	l.writeBuffer(bytes.NewBufferString(message))
}

func (l *logger) printf(format string, args ...interface{}) {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, format, args...)
	l.writeBuffer(buf)
}

func (l *logger) debug(message string) {
	buf := &bytes.Buffer{}
	buf.WriteString("DEBUG: ")
	if l.colored {
		message = fmt.Sprintf("\x1b[34m%s\x1b[0m", message)
	}
	buf.WriteString(message)
	l.writeBuffer(buf)
}

func (l *logger) debugf(format string, args ...interface{}) {
	buf := &bytes.Buffer{}
	buf.WriteString("DEBUG: ")
	if l.colored {
		format = fmt.Sprintf("\x1b[34m%s\x1b[0m", format)
	}
	fmt.Fprintf(buf, format, args...)
	l.writeBuffer(buf)
}
