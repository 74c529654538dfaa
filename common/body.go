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

// TxBuilderBody holds every declaration made on a transaction builder draft.
// Sequences keep declaration order
type TxBuilderBody struct {
	Inputs             []TxInput
	Outputs            []Output
	ExtraInputs        []UTxO
	SelectionThreshold uint64
	Collaterals        []PubKeyTxIn
	RequiredSignatures []string
	ReferenceInputs    []RefTxIn
	Mints              []MintItem
	ChangeAddress      string
	Metadata           []Metadata
	ValidityRange      ValidityRange
	Certificates       []Certificate
	SigningKeys        []SigningKey
}

// UsesPlutus reports whether any input or mint executes a Plutus script
func (b *TxBuilderBody) UsesPlutus() bool {
	for _, input := range b.Inputs {
		if _, ok := input.(ScriptTxIn); ok {
			return true
		}
	}
	for _, item := range b.Mints {
		if item.Kind == MintKindPlutus {
			return true
		}
	}
	return false
}
