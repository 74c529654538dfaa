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

// Package mesh builds Cardano transaction bodies.
//
// A TxBuilder collects inputs, outputs, mints, certificates, metadata and the
// other parts of a transaction in a draft. Finalize validates the draft,
// resolves script and datum sources, nets out mints and burns, and balances
// the transaction against the selection candidates before producing an
// immutable TransactionBody. Chain state is only consulted through a
// common.ChainStateProvider supplied with WithChainStateProvider.
package mesh
