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

package test_provider

import (
	"context"
	"sync"

	"github.com/rober-m/mesh/common"
)

// Compile-time checks that MockChainStateProvider implements ChainStateProvider and all child interfaces
var (
	_ common.ChainStateProvider = (*MockChainStateProvider)(nil)
	_ common.UtxoState          = (*MockChainStateProvider)(nil)
	_ common.ScriptState        = (*MockChainStateProvider)(nil)
	_ common.DatumState         = (*MockChainStateProvider)(nil)
)

// MockChainStateProvider is the internal mock used by tests. Tests configure
// the lookup maps, or the ...Func fields to override behavior entirely.
// Lookups missing from the maps return NotFoundError. Calls are counted per
// reference and are safe for concurrent use
type MockChainStateProvider struct {
	Utxos   map[common.RefTxIn]common.UTxO
	Scripts map[common.RefTxIn]common.Script
	Datums  map[common.RefTxIn]common.BuilderData

	UtxoByRefFunc   func(context.Context, common.RefTxIn) (common.UTxO, error)
	ScriptByRefFunc func(context.Context, common.RefTxIn) (common.Script, error)
	DatumByRefFunc  func(context.Context, common.RefTxIn) (common.BuilderData, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockChainStateProvider) record(kind string, ref common.RefTxIn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[kind+":"+ref.String()]++
}

// Calls returns how many times the given lookup kind ("utxo", "script" or "datum") was made for ref
func (m *MockChainStateProvider) Calls(kind string, ref common.RefTxIn) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind+":"+ref.String()]
}

// TotalCalls returns the number of lookups of all kinds
func (m *MockChainStateProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := 0
	for _, count := range m.calls {
		ret += count
	}
	return ret
}

func (m *MockChainStateProvider) UtxoByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.UTxO, error) {
	m.record("utxo", ref)
	if m.UtxoByRefFunc != nil {
		return m.UtxoByRefFunc(ctx, ref)
	}
	if utxo, ok := m.Utxos[ref]; ok {
		return utxo, nil
	}
	return common.UTxO{}, common.NotFoundError{
		TxHash:  ref.TxHash,
		TxIndex: ref.TxIndex,
		Kind:    "utxo",
	}
}

func (m *MockChainStateProvider) ScriptByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.Script, error) {
	m.record("script", ref)
	if m.ScriptByRefFunc != nil {
		return m.ScriptByRefFunc(ctx, ref)
	}
	if script, ok := m.Scripts[ref]; ok {
		return script, nil
	}
	return common.Script{}, common.NotFoundError{
		TxHash:  ref.TxHash,
		TxIndex: ref.TxIndex,
		Kind:    "script",
	}
}

func (m *MockChainStateProvider) DatumByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.BuilderData, error) {
	m.record("datum", ref)
	if m.DatumByRefFunc != nil {
		return m.DatumByRefFunc(ctx, ref)
	}
	if datum, ok := m.Datums[ref]; ok {
		return datum, nil
	}
	return nil, common.NotFoundError{
		TxHash:  ref.TxHash,
		TxIndex: ref.TxIndex,
		Kind:    "datum",
	}
}
