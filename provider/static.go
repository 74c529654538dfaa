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

package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/rober-m/mesh/common"
)

// Compile-time check
var _ common.ChainStateProvider = (*StaticProvider)(nil)

// StaticProvider answers lookups from a fixed set of UTxOs. Script lookups
// return the reference script of the UTxO and datum lookups its inline datum
type StaticProvider struct {
	mu    sync.RWMutex
	utxos map[common.RefTxIn]common.UTxO
}

func NewStaticProvider(utxos ...common.UTxO) *StaticProvider {
	p := &StaticProvider{
		utxos: make(map[common.RefTxIn]common.UTxO),
	}
	p.AddUtxos(utxos...)
	return p
}

// AddUtxos adds or replaces UTxOs
func (p *StaticProvider) AddUtxos(utxos ...common.UTxO) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, utxo := range utxos {
		p.utxos[staticKey(utxo.Input)] = utxo
	}
}

func (p *StaticProvider) UtxoByRef(
	_ context.Context,
	ref common.RefTxIn,
) (common.UTxO, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	utxo, ok := p.utxos[staticKey(ref)]
	if !ok {
		return common.UTxO{}, notFound("utxo", ref)
	}
	return utxo, nil
}

func (p *StaticProvider) ScriptByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.Script, error) {
	utxo, err := p.UtxoByRef(ctx, ref)
	if err != nil {
		return common.Script{}, notFound("script", ref)
	}
	if utxo.Output.ScriptRef == nil {
		return common.Script{}, notFound("script", ref)
	}
	return *utxo.Output.ScriptRef, nil
}

func (p *StaticProvider) DatumByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.BuilderData, error) {
	utxo, err := p.UtxoByRef(ctx, ref)
	if err != nil {
		return nil, notFound("datum", ref)
	}
	if utxo.Output.PlutusData == "" {
		return nil, notFound("datum", ref)
	}
	return common.CBORData{Content: utxo.Output.PlutusData}, nil
}

func staticKey(ref common.RefTxIn) common.RefTxIn {
	ref.TxHash = strings.ToLower(ref.TxHash)
	return ref
}

func notFound(kind string, ref common.RefTxIn) error {
	return common.NotFoundError{
		TxHash:  ref.TxHash,
		TxIndex: ref.TxIndex,
		Kind:    kind,
	}
}
