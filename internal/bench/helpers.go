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

// Package bench provides benchmark utilities and fixtures for transaction
// building.
package bench

import (
	"fmt"
	"strings"

	"github.com/rober-m/mesh"
	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/internal/test"
	"github.com/rober-m/mesh/provider"
)

// CandidatePool returns count selection candidates with distinct references
// and values. Candidate i holds (i+1) ADA and, for every third candidate, a
// token under test.PolicyIdA
func CandidatePool(count int) []common.UTxO {
	ret := make([]common.UTxO, 0, count)
	for i := range count {
		utxo := common.UTxO{
			Input: common.RefTxIn{
				TxHash:  txHashFromIndex(i),
				TxIndex: uint32(i % 4), // #nosec G115
			},
			Output: common.UtxoOutput{
				Address: test.TestnetEnterpriseAddress,
				Amount: []common.Asset{
					common.Lovelace(uint64(i+1) * 1_000_000), // #nosec G115
				},
			},
		}
		if i%3 == 0 {
			utxo.Output.Amount = append(
				utxo.Output.Amount,
				common.Asset{
					Unit:     test.PolicyIdA + test.AssetNameToken,
					Quantity: "10",
				},
			)
		}
		ret = append(ret, utxo)
	}
	return ret
}

// BenchProvider returns a static chain-state provider holding the candidate
// pool plus a UTxO carrying a reference script and inline datum at
// ScriptRef()
func BenchProvider(pool []common.UTxO) *provider.StaticProvider {
	script := common.Script{
		Language: common.ScriptLanguagePlutusV2,
		Code:     test.PlutusScriptCbor,
	}
	ret := provider.NewStaticProvider(pool...)
	ret.AddUtxos(
		common.UTxO{
			Input: ScriptRef(),
			Output: common.UtxoOutput{
				Address:    test.TestnetScriptAddress,
				Amount:     []common.Asset{common.Lovelace(20_000_000)},
				PlutusData: test.UnitDatumCbor,
				ScriptRef:  &script,
			},
		},
	)
	return ret
}

// ScriptRef is the reference of the script UTxO added by BenchProvider
func ScriptRef() common.RefTxIn {
	return common.RefTxIn{TxHash: test.TxHash('f')}
}

// ScenarioNames returns the draft scenarios known to NewDraft
func ScenarioNames() []string {
	return []string{"simple", "multiasset", "script"}
}

// NewDraft returns a builder holding the named draft scenario. Every scenario
// needs inputs from the candidate pool to balance
func NewDraft(
	scenario string,
	pool []common.UTxO,
	opts ...mesh.TxBuilderOptionFunc,
) (*mesh.TxBuilder, error) {
	b := mesh.NewTxBuilder(opts...).
		AddInput(
			common.PubKeyTxIn{
				TxIn: common.TxInParameter{
					TxHash:  test.TxHash('a'),
					Amount:  []common.Asset{common.Lovelace(2_000_000)},
					Address: test.TestnetEnterpriseAddress,
				},
			},
		).
		SelectUtxosFrom(pool, 1_000_000_000_000).
		SetChangeAddress(test.TestnetEnterpriseAddress)
	switch strings.ToLower(scenario) {
	case "simple":
		b.AddOutput(
			common.Output{
				Address: test.TestnetBaseAddress,
				Amount:  []common.Asset{common.Lovelace(10_000_000)},
			},
		)
	case "multiasset":
		b.AddOutput(
			common.Output{
				Address: test.TestnetBaseAddress,
				Amount: []common.Asset{
					common.Lovelace(5_000_000),
					{Unit: test.PolicyIdA + test.AssetNameToken, Quantity: "25"},
				},
			},
		)
	case "script":
		b.AddInput(
			common.ScriptTxIn{
				TxIn: common.TxInParameter{
					TxHash: test.TxHash('b'),
					Amount: []common.Asset{common.Lovelace(3_000_000)},
				},
				ScriptSource: common.InlineScriptSource{
					TxHash:   ScriptRef().TxHash,
					TxIndex:  ScriptRef().TxIndex,
					Language: common.ScriptLanguagePlutusV2,
				},
				DatumSource: common.InlineDatumSource{
					TxHash:  ScriptRef().TxHash,
					TxIndex: ScriptRef().TxIndex,
				},
				Redeemer: &common.Redeemer{
					Data:    common.CBORData{Content: test.UnitDatumCbor},
					ExUnits: common.Budget{Mem: 14_000_000, Steps: 10_000_000_000},
				},
			},
		).
			AddCollateral(
				common.PubKeyTxIn{
					TxIn: common.TxInParameter{
						TxHash: test.TxHash('c'),
						Amount: []common.Asset{common.Lovelace(5_000_000)},
					},
				},
			).
			AddOutput(
				common.Output{
					Address: test.TestnetBaseAddress,
					Amount:  []common.Asset{common.Lovelace(8_000_000)},
				},
			)
	default:
		return nil, fmt.Errorf("unknown scenario: %s", scenario)
	}
	return b, nil
}

// MustNewDraft returns the named draft scenario and panics on error
func MustNewDraft(
	scenario string,
	pool []common.UTxO,
	opts ...mesh.TxBuilderOptionFunc,
) *mesh.TxBuilder {
	b, err := NewDraft(scenario, pool, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to build %s draft: %v", scenario, err))
	}
	return b
}

func txHashFromIndex(idx int) string {
	return fmt.Sprintf("%064x", idx+1)
}
