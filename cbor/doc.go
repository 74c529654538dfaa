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

// Package cbor wraps github.com/fxamacker/cbor/v2 with the options used across
// the transaction builder.
//
// Encoding always uses core deterministic map key ordering, so hashes computed over
// re-encoded data (datum hashes, redeemer comparison) are stable.
//
// The builder itself never produces wire-format transactions. CBOR shows up at its
// edges: script and datum payloads arrive as CBOR hex, signing keys arrive as
// cborHex text envelopes, and cached chain-state entries are stored as CBOR.
package cbor
