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

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"slices"
	"strings"

	utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
)

const (
	LovelaceUnit = "lovelace"

	maxAssetNameLength = 32
)

// Asset is a quantity of one unit. The unit is either "lovelace" or the policy ID
// followed by the hex asset name
type Asset struct {
	Unit     string
	Quantity string
}

// Lovelace returns an asset holding the given amount of lovelace
func Lovelace(amount uint64) Asset {
	return Asset{
		Unit:     LovelaceUnit,
		Quantity: new(big.Int).SetUint64(amount).String(),
	}
}

// ValidateUnit checks that the unit is lovelace or a policy ID with an optional hex asset name
func ValidateUnit(unit string) error {
	if unit == LovelaceUnit {
		return nil
	}
	if len(unit) < Blake2b224Size*2 {
		return InvalidAssetError{Unit: unit, Reason: "unit is too short for a policy ID"}
	}
	if _, err := ParseBlake2b224(unit[:Blake2b224Size*2]); err != nil {
		return InvalidAssetError{Unit: unit, Reason: "invalid policy ID: " + err.Error()}
	}
	assetName, err := hex.DecodeString(unit[Blake2b224Size*2:])
	if err != nil {
		return InvalidAssetError{Unit: unit, Reason: "invalid asset name: " + err.Error()}
	}
	if len(assetName) > maxAssetNameLength {
		return InvalidAssetError{Unit: unit, Reason: "asset name exceeds 32 bytes"}
	}
	return nil
}

// SplitUnit returns the policy ID and hex asset name of a unit. Lovelace has neither
func SplitUnit(unit string) (string, string) {
	if unit == LovelaceUnit || len(unit) < Blake2b224Size*2 {
		return "", ""
	}
	return unit[:Blake2b224Size*2], unit[Blake2b224Size*2:]
}

// ParseQuantity parses a positive integer asset quantity
func (a Asset) ParseQuantity() (*big.Int, error) {
	if err := ValidateUnit(a.Unit); err != nil {
		return nil, err
	}
	ret, ok := new(big.Int).SetString(a.Quantity, 10)
	if !ok {
		return nil, InvalidAssetError{
			Unit:     a.Unit,
			Quantity: a.Quantity,
			Reason:   "quantity is not an integer",
		}
	}
	if ret.Sign() <= 0 {
		return nil, InvalidAssetError{
			Unit:     a.Unit,
			Quantity: a.Quantity,
			Reason:   "quantity must be positive",
		}
	}
	return ret, nil
}

// Value is a multi-asset amount keyed by unit. Quantities may be negative while
// computing balances
type Value map[string]*big.Int

// NewValue sums a list of assets into a Value
func NewValue(assets []Asset) (Value, error) {
	ret := Value{}
	for _, asset := range assets {
		qty, err := asset.ParseQuantity()
		if err != nil {
			return nil, err
		}
		ret.AddQuantity(asset.Unit, qty)
	}
	return ret, nil
}

// LovelaceValue returns a Value holding only lovelace
func LovelaceValue(amount uint64) Value {
	return Value{LovelaceUnit: new(big.Int).SetUint64(amount)}
}

// Get returns the quantity of a unit, or zero
func (v Value) Get(unit string) *big.Int {
	if qty, ok := v[unit]; ok {
		return new(big.Int).Set(qty)
	}
	return new(big.Int)
}

// Lovelace returns the lovelace quantity
func (v Value) Lovelace() *big.Int {
	return v.Get(LovelaceUnit)
}

// AddQuantity adds qty of unit in place. Units that net to zero are removed
func (v Value) AddQuantity(unit string, qty *big.Int) {
	tmpQty := new(big.Int).Set(v.Get(unit))
	tmpQty.Add(tmpQty, qty)
	if tmpQty.Sign() == 0 {
		delete(v, unit)
		return
	}
	v[unit] = tmpQty
}

// Add returns v + other
func (v Value) Add(other Value) Value {
	ret := v.Clone()
	for unit, qty := range other {
		ret.AddQuantity(unit, qty)
	}
	return ret
}

// Sub returns v - other
func (v Value) Sub(other Value) Value {
	ret := v.Clone()
	for unit, qty := range other {
		ret.AddQuantity(unit, new(big.Int).Neg(qty))
	}
	return ret
}

func (v Value) Clone() Value {
	ret := make(Value, len(v))
	for unit, qty := range v {
		ret[unit] = new(big.Int).Set(qty)
	}
	return ret
}

func (v Value) IsZero() bool {
	for _, qty := range v {
		if qty.Sign() != 0 {
			return false
		}
	}
	return true
}

// Positive returns only the units with a quantity above zero
func (v Value) Positive() Value {
	ret := Value{}
	for unit, qty := range v {
		if qty.Sign() > 0 {
			ret[unit] = new(big.Int).Set(qty)
		}
	}
	return ret
}

// Negative returns the magnitude of units with a quantity below zero
func (v Value) Negative() Value {
	ret := Value{}
	for unit, qty := range v {
		if qty.Sign() < 0 {
			ret[unit] = new(big.Int).Neg(qty)
		}
	}
	return ret
}

// Units returns the units in deterministic order, lovelace first
func (v Value) Units() []string {
	ret := make([]string, 0, len(v))
	for unit := range v {
		ret = append(ret, unit)
	}
	slices.SortFunc(ret, compareUnits)
	return ret
}

// Assets converts the value into an asset list in deterministic order
func (v Value) Assets() []Asset {
	ret := make([]Asset, 0, len(v))
	for _, unit := range v.Units() {
		qty := v[unit]
		if qty.Sign() == 0 {
			continue
		}
		ret = append(
			ret,
			Asset{
				Unit:     unit,
				Quantity: qty.String(),
			},
		)
	}
	return ret
}

func (v Value) String() string {
	if len(v) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{")
	for idx, unit := range v.Units() {
		if idx > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(unit)
		sb.WriteString(": ")
		sb.WriteString(v[unit].String())
	}
	sb.WriteString("}")
	return sb.String()
}

// Utxorpc converts the non-lovelace units to utxorpc multi-assets grouped by
// policy. Quantities are stored as mint amounts when mint is set and as output
// amounts otherwise
func (v Value) Utxorpc(mint bool) ([]*utxorpc.Multiasset, error) {
	var ret []*utxorpc.Multiasset
	var current *utxorpc.Multiasset
	var currentPolicy string
	for _, unit := range v.Units() {
		qty := v[unit]
		if unit == LovelaceUnit || qty.Sign() == 0 {
			continue
		}
		policyId, assetName := SplitUnit(unit)
		policyBytes, err := hex.DecodeString(policyId)
		if err != nil {
			return nil, InvalidAssetError{Unit: unit, Reason: err.Error()}
		}
		nameBytes, err := hex.DecodeString(assetName)
		if err != nil {
			return nil, InvalidAssetError{Unit: unit, Reason: err.Error()}
		}
		if current == nil || policyId != currentPolicy {
			current = &utxorpc.Multiasset{
				PolicyId: policyBytes,
			}
			currentPolicy = policyId
			ret = append(ret, current)
		}
		asset := &utxorpc.Asset{
			Name: nameBytes,
		}
		if mint {
			if !qty.IsInt64() {
				return nil, InvalidAssetError{
					Unit:   unit,
					Reason: fmt.Sprintf("mint quantity %s out of range", qty),
				}
			}
			asset.MintCoin = qty.Int64()
		} else {
			if !qty.IsUint64() {
				return nil, InvalidAssetError{
					Unit:   unit,
					Reason: fmt.Sprintf("quantity %s out of range", qty),
				}
			}
			asset.OutputCoin = qty.Uint64()
		}
		current.Assets = append(current.Assets, asset)
	}
	return ret, nil
}

func compareUnits(a, b string) int {
	if a == b {
		return 0
	}
	if a == LovelaceUnit {
		return -1
	}
	if b == LovelaceUnit {
		return 1
	}
	return strings.Compare(a, b)
}
