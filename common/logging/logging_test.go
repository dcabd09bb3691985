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

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPatterns = []string{
	`(?i)(sk-[a-zA-Z0-9]{20,})`,
	`(?i)(Bearer\s+[a-zA-Z0-9._\-]+)`,
	`(?i)(api[_-]?key\s*[:=]\s*\S+)`,
}

func TestRedactAPIKey(t *testing.T) {
	r, err := NewRedactor(testPatterns)
	require.NoError(t, err)

	out := r.Redact("request failed with key sk-abcdefghij1234567890XYZ attached")
	assert.NotContains(t, out, "sk-abcdefghij1234567890XYZ")
	assert.Contains(t, out, Redacted)
}

func TestRedactBearerToken(t *testing.T) {
	r, err := NewRedactor(testPatterns)
	require.NoError(t, err)

	out := r.Redact("Authorization: Bearer secret-token-value")
	assert.NotContains(t, out, "secret-token-value")
	assert.Contains(t, out, Redacted)
}

func TestRedactAPIKeyAssignment(t *testing.T) {
	r, err := NewRedactor(testPatterns)
	require.NoError(t, err)

	out := r.Redact("config has api_key=supersecret in it")
	assert.NotContains(t, out, "supersecret")
}

func TestRedactLeavesCleanTextAlone(t *testing.T) {
	r, err := NewRedactor(testPatterns)
	require.NoError(t, err)

	msg := "tool call succeeded for agent-alpha"
	assert.Equal(t, msg, r.Redact(msg))
}

func TestRedactorRejectsBadPattern(t *testing.T) {
	_, err := NewRedactor([]string{"(unclosed"})
	require.Error(t, err)
}

func TestLoggerEmitsRedactedJSON(t *testing.T) {
	r, err := NewRedactor(testPatterns)
	require.NoError(t, err)

	var buf bytes.Buffer
	log := New(&buf, r, "toolgate")

	log.Info().Str("detail", "used sk-abcdefghij1234567890XYZ").Msg("provider call")

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	assert.NotContains(t, line, "sk-abcdefghij1234567890XYZ")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, "toolgate", record["name"])
	assert.Equal(t, "provider call", record["message"])
	assert.NotEmpty(t, record["timestamp"])
	assert.Contains(t, record["detail"], Redacted)
}

func TestLoggerFieldRedactionCoversMessage(t *testing.T) {
	r, err := NewRedactor(testPatterns)
	require.NoError(t, err)

	var buf bytes.Buffer
	log := New(&buf, r, "toolgate")

	log.Warn().Msg("leaked Bearer abc.def-ghi token")
	assert.NotContains(t, buf.String(), "abc.def-ghi")
}
