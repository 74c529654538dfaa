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
	"encoding/hex"
	"fmt"

	"github.com/rober-m/mesh/cbor"
	"github.com/rober-m/mesh/common"
)

// Bumped whenever the layout of a cache entry changes
const cacheEntryVersion = 1

type scriptEntry struct {
	cbor.StructAsArray
	Language uint8
	Code     string
}

func newScriptEntry(script common.Script) scriptEntry {
	return scriptEntry{
		Language: uint8(script.Language),
		Code:     script.Code,
	}
}

func (e scriptEntry) Script() common.Script {
	return common.Script{
		Language: common.ScriptLanguage(e.Language),
		Code:     e.Code,
	}
}

type assetEntry struct {
	cbor.StructAsArray
	Unit     string
	Quantity string
}

// cacheEntry is the stored form of every cached lookup. Only the fields for
// the lookup kind are populated
type cacheEntry struct {
	cbor.StructAsArray
	Version uint
	// Script lookups
	Script *scriptEntry
	// Datum lookups, as CBOR
	Datum []byte
	// UTxO lookups
	TxHash     string
	TxIndex    uint32
	Address    string
	Amount     []assetEntry
	DataHash   string
	PlutusData string
	ScriptRef  *scriptEntry
	ScriptHash string
}

func (e *cacheEntry) MarshalCBOR() ([]byte, error) {
	e.Version = cacheEntryVersion
	return cbor.EncodeGeneric(e)
}

func (e *cacheEntry) UnmarshalCBOR(cborData []byte) error {
	if err := cbor.DecodeGeneric(cborData, e); err != nil {
		return err
	}
	if e.Version != cacheEntryVersion {
		return fmt.Errorf("unsupported cache entry version %d", e.Version)
	}
	return nil
}

func newUtxoEntry(utxo common.UTxO) *cacheEntry {
	ret := &cacheEntry{
		TxHash:     utxo.Input.TxHash,
		TxIndex:    utxo.Input.TxIndex,
		Address:    utxo.Output.Address,
		DataHash:   utxo.Output.DataHash,
		PlutusData: utxo.Output.PlutusData,
		ScriptHash: utxo.Output.ScriptHash,
	}
	for _, asset := range utxo.Output.Amount {
		ret.Amount = append(
			ret.Amount,
			assetEntry{
				Unit:     asset.Unit,
				Quantity: asset.Quantity,
			},
		)
	}
	if utxo.Output.ScriptRef != nil {
		tmpScript := newScriptEntry(*utxo.Output.ScriptRef)
		ret.ScriptRef = &tmpScript
	}
	return ret
}

func (e *cacheEntry) Utxo() common.UTxO {
	ret := common.UTxO{
		Input: common.RefTxIn{
			TxHash:  e.TxHash,
			TxIndex: e.TxIndex,
		},
		Output: common.UtxoOutput{
			Address:    e.Address,
			DataHash:   e.DataHash,
			PlutusData: e.PlutusData,
			ScriptHash: e.ScriptHash,
		},
	}
	for _, asset := range e.Amount {
		ret.Output.Amount = append(
			ret.Output.Amount,
			common.Asset{
				Unit:     asset.Unit,
				Quantity: asset.Quantity,
			},
		)
	}
	if e.ScriptRef != nil {
		tmpScript := e.ScriptRef.Script()
		ret.Output.ScriptRef = &tmpScript
	}
	return ret
}

func newDatumEntry(datum common.BuilderData) (*cacheEntry, error) {
	datumCbor, err := common.NormalizeData(datum)
	if err != nil {
		return nil, err
	}
	return &cacheEntry{Datum: datumCbor}, nil
}

func (e *cacheEntry) BuilderData() common.BuilderData {
	return common.CBORData{Content: hex.EncodeToString(e.Datum)}
}
