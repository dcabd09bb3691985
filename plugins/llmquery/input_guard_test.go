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

package llmquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInputAcceptsNormalPrompt(t *testing.T) {
	assert.Empty(t, checkInput("Summarize the attached meeting notes."))
}

func TestCheckInputOversizedShortCircuits(t *testing.T) {
	big := strings.Repeat("a", hardLimitBytes+1)
	reasons := checkInput(big)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "exceeds hard limit")
}

func TestCheckInputManyCodeFences(t *testing.T) {
	prompt := strings.Repeat("```go\nfunc x() {}\n```\n", 11)
	reasons := checkInput(prompt)
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasons[0], "code fences")
}

func TestCheckInputFewFencesAllowed(t *testing.T) {
	prompt := strings.Repeat("```go\nfunc x() {}\n```\n", 3)
	assert.Empty(t, checkInput(prompt))
}

func TestCheckInputManyDefinitions(t *testing.T) {
	prompt := strings.Repeat("def handler():\n    pass\n", 21)
	reasons := checkInput(prompt)
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasons[0], "code definitions")
}

func TestCheckInputMixedLanguageDefinitions(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 11; i++ {
		b.WriteString("const x = 1\n")
		b.WriteString("import something\n")
	}
	reasons := checkInput(b.String())
	require.NotEmpty(t, reasons)
	assert.Contains(t, reasons[0], "suspected repo paste")
}

func TestCheckInputBothHeuristics(t *testing.T) {
	var b strings.Builder
	b.WriteString(strings.Repeat("```\ncode\n```\n", 11))
	b.WriteString(strings.Repeat("class Foo:\n", 21))
	reasons := checkInput(b.String())
	assert.Len(t, reasons, 2)
}
