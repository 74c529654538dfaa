// Copyright 2025 Blink Labs Software
//
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

// Package resolver normalizes script and datum sources into a uniform
// resolved form.
//
// A source is either provided (the script or datum content is embedded in the
// declaration) or inline (a reference to an output already on chain). Provided
// sources are checked and hashed. Inline sources are kept as references, and
// are fetched from a common.ChainStateProvider when one is configured on the
// Resolver. Lookups run sequentially by default; WithParallelism fans them out
// while still returning results, and the first error, in request order.
package resolver
