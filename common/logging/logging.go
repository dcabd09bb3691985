// Copyright 2025 ToolGate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging configures the gateway's structured JSON logger. Every
// record is a single JSON line with timestamp, level, name, and message
// fields, and passes through the redaction filter before reaching the sink.
// Sinks that bypass this writer must reapply the same patterns.
package logging

import (
	"io"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
)

// Redacted is the literal substituted for every pattern match.
const Redacted = "***REDACTED***"

// Redactor applies an ordered list of regular expressions to text,
// replacing each match with the redaction marker.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the given patterns in order. Invalid patterns are an
// error: they are validated at config load, so a failure here is a bug.
func NewRedactor(patterns []string) (*Redactor, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &Redactor{patterns: compiled}, nil
}

// Redact applies every pattern in order.
func (r *Redactor) Redact(text string) string {
	for _, re := range r.patterns {
		text = re.ReplaceAllString(text, Redacted)
	}
	return text
}

// redactingWriter filters formatted log records before the sink. It runs
// after zerolog has serialized the record, so both the message and any
// structured fields are covered.
type redactingWriter struct {
	mu       sync.Mutex
	sink     io.Writer
	redactor *Redactor
}

// NewRedactingWriter wraps sink so every written record is redacted.
func NewRedactingWriter(sink io.Writer, redactor *Redactor) io.Writer {
	return &redactingWriter{sink: sink, redactor: redactor}
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	redacted := w.redactor.Redact(string(p))
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.sink.Write([]byte(redacted)); err != nil {
		return 0, err
	}
	// Report the original length so zerolog does not treat the redaction
	// size difference as a short write.
	return len(p), nil
}

// New builds the root logger writing redacted JSON records to sink. The
// component name lands in the "name" field; derive per-component loggers
// with logger.With().Str("name", ...).
func New(sink io.Writer, redactor *Redactor, name string) zerolog.Logger {
	zerolog.TimestampFieldName = "timestamp"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"

	out := NewRedactingWriter(sink, redactor)
	return zerolog.New(out).With().
		Timestamp().
		Str("name", name).
		Logger()
}
