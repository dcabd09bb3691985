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
	"fmt"
	"regexp"
)

// hardLimitBytes is the absolute input size cap for llm.query prompts.
const hardLimitBytes = 102_400 // 100 KB

// Heuristics for detecting repo-paste attempts.
var (
	codeFencePattern  = regexp.MustCompile("(?s)```.*?```")
	definitionPattern = regexp.MustCompile(`(?m)^\s*(def |class |function |const |let |var |import |from |#include)`)
)

// checkInput validates an LLM query prompt. It returns the list of rejection
// reasons, empty when the prompt is acceptable. Oversized input skips the
// heuristics.
func checkInput(text string) []string {
	var reasons []string

	byteSize := len(text)
	if byteSize > hardLimitBytes {
		reasons = append(reasons, fmt.Sprintf(
			"Input size %d bytes exceeds hard limit of %d bytes", byteSize, hardLimitBytes))
		return reasons
	}

	// Many code fences suggest a repo paste.
	fences := codeFencePattern.FindAllString(text, -1)
	if len(fences) > 10 {
		reasons = append(reasons, fmt.Sprintf(
			"Input contains %d code fences — suspected repo paste", len(fences)))
	}

	// Many function/class definitions likewise.
	definitions := definitionPattern.FindAllString(text, -1)
	if len(definitions) > 20 {
		reasons = append(reasons, fmt.Sprintf(
			"Input contains %d code definitions — suspected repo paste", len(definitions)))
	}

	return reasons
}
