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

package common

// Related files:
//   - errors.go: NotFoundError and ProviderUnavailableError returned by providers
//   - provider/: cached and static ChainStateProvider implementations
//   - internal/test/provider: MockChainStateProvider for testing

import (
	"context"
)

// UtxoState defines the interface for looking up unspent outputs
type UtxoState interface {
	UtxoByRef(context.Context, RefTxIn) (UTxO, error)
}

// ScriptState defines the interface for looking up reference scripts
type ScriptState interface {
	ScriptByRef(context.Context, RefTxIn) (Script, error)
}

// DatumState defines the interface for looking up inline datums
type DatumState interface {
	DatumByRef(context.Context, RefTxIn) (BuilderData, error)
}

// ChainStateProvider resolves references to chain state. Implementations
// return NotFoundError when the reference does not exist and
// ProviderUnavailableError when the backing store cannot be reached
type ChainStateProvider interface {
	UtxoState
	ScriptState
	DatumState
}

// FeeEstimator supplies the minimum fee, in lovelace, that balancing must cover
type FeeEstimator interface {
	MinFee(context.Context) (uint64, error)
}

// StaticFee is a FeeEstimator returning a fixed fee
type StaticFee uint64

func (f StaticFee) MinFee(context.Context) (uint64, error) {
	return uint64(f), nil
}
