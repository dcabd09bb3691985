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

/*
Package usage holds the LLM pricing tables and cost estimation used for
budget enforcement.

Costs are estimates, not invoices: a blended per-1K-token USD rate is
applied to the total token count of a request. Models without a table entry
fall back to a conservative per-provider rate so unknown models overcharge
the budget rather than undercharge it. Local models cost nothing.

	cost := usage.EstimateCost("openai", "gpt-4o", resp.TotalTokens)

The daily budget tracker consumes these estimates; see the core package.
*/
package usage
