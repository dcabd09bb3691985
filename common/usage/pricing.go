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

package usage

import "fmt"

// LLM provider pricing as of August 2025. Prices are USD per 1K tokens,
// blended across prompt and completion; budget enforcement needs an
// estimate, not an invoice.

// modelPricing maps provider-model combinations to USD per 1K tokens.
var modelPricing = map[string]float64{
	// OpenAI
	"openai-gpt-4o":      0.005,
	"openai-gpt-4o-mini": 0.0003,

	// Anthropic
	"anthropic-claude-sonnet-4-20250514":  0.006,
	"anthropic-claude-haiku-4-5-20251001": 0.002,
}

// providerFallback is the per-1K rate used for models without an entry,
// deliberately conservative so unknown models overcharge rather than
// undercharge the budget.
var providerFallback = map[string]float64{
	"openai":    0.01,
	"anthropic": 0.005,
}

// EstimateCost estimates the USD cost of a request from its total token
// count. Local providers have no fallback entry and cost nothing.
func EstimateCost(provider, model string, totalTokens int) float64 {
	rate, ok := modelPricing[provider+"-"+model]
	if !ok {
		rate = providerFallback[provider]
	}
	return float64(totalTokens) / 1000.0 * rate
}

// PricingFor returns the per-1K rate for a provider-model combination,
// reporting whether an exact entry exists.
func PricingFor(provider, model string) (float64, bool) {
	rate, ok := modelPricing[provider+"-"+model]
	return rate, ok
}

// FormatUSD renders a cost for display, e.g. 1.345 -> "$1.35".
func FormatUSD(cost float64) string {
	return fmt.Sprintf("$%.2f", cost)
}
