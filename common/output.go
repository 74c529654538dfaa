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
	"errors"
	"fmt"
	"math/big"

	utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
)

type OutputDatumKind uint8

const (
	OutputDatumKindHash   OutputDatumKind = 0
	OutputDatumKindInline OutputDatumKind = 1
)

func (k OutputDatumKind) String() string {
	switch k {
	case OutputDatumKindHash:
		return "Hash"
	case OutputDatumKindInline:
		return "Inline"
	default:
		return fmt.Sprintf("OutputDatumKind(%d)", uint8(k))
	}
}

// OutputDatum attaches a datum to an output, either by hash or inline
type OutputDatum struct {
	Kind OutputDatumKind
	Data BuilderData
}

type Output struct {
	Address         string
	Amount          []Asset
	Datum           *OutputDatum
	ReferenceScript *Script
}

// NewOutput builds an output paying amount to address. The address must parse
// and every quantity must be positive
func NewOutput(address string, amount []Asset) (Output, error) {
	ret := Output{
		Address: address,
		Amount:  append([]Asset(nil), amount...),
	}
	if err := ret.Validate(); err != nil {
		return Output{}, err
	}
	return ret, nil
}

// Validate checks the address, amounts, datum and reference script of the output
func (o Output) Validate() error {
	if _, err := ParseAddress(o.Address); err != nil {
		return err
	}
	if _, err := o.Value(); err != nil {
		return err
	}
	if o.Datum != nil {
		if o.Datum.Kind != OutputDatumKindHash &&
			o.Datum.Kind != OutputDatumKindInline {
			return InvalidDataError{
				Format: "output datum",
				Err:    fmt.Errorf("unknown datum kind %s", o.Datum.Kind),
			}
		}
		if _, err := NormalizeData(o.Datum.Data); err != nil {
			return err
		}
	}
	if o.ReferenceScript != nil {
		if _, err := o.ReferenceScript.Bytes(); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the summed output amount
func (o Output) Value() (Value, error) {
	return NewValue(o.Amount)
}

type MintKind uint8

const (
	MintKindPlutus MintKind = 0
	MintKindNative MintKind = 1
)

func (k MintKind) String() string {
	switch k {
	case MintKindPlutus:
		return "Plutus"
	case MintKindNative:
		return "Native"
	default:
		return fmt.Sprintf("MintKind(%d)", uint8(k))
	}
}

// MintItem declares a mint (positive amount) or burn (negative amount) of one asset
type MintItem struct {
	Kind         MintKind
	PolicyId     string
	AssetName    string
	Amount       string
	Redeemer     *Redeemer
	ScriptSource ScriptSource
}

// NewMintItem validates the policy ID, hex asset name and signed amount text
func NewMintItem(
	kind MintKind,
	policyId string,
	assetName string,
	amount string,
) (MintItem, error) {
	ret := MintItem{
		Kind:      kind,
		PolicyId:  policyId,
		AssetName: assetName,
		Amount:    amount,
	}
	if err := ret.Validate(); err != nil {
		return MintItem{}, err
	}
	return ret, nil
}

func (m MintItem) Validate() error {
	if m.Kind != MintKindPlutus && m.Kind != MintKindNative {
		return InvalidMintItemError{
			PolicyId:  m.PolicyId,
			AssetName: m.AssetName,
			Reason:    fmt.Sprintf("unknown mint kind %s", m.Kind),
		}
	}
	if err := ValidateUnit(m.Unit()); err != nil {
		return InvalidMintItemError{
			PolicyId:  m.PolicyId,
			AssetName: m.AssetName,
			Reason:    err.Error(),
		}
	}
	if _, err := m.Quantity(); err != nil {
		return err
	}
	return nil
}

// Unit returns the policy ID followed by the hex asset name
func (m MintItem) Unit() string {
	return m.PolicyId + m.AssetName
}

// Quantity parses the signed amount. Zero is rejected
func (m MintItem) Quantity() (*big.Int, error) {
	ret, ok := new(big.Int).SetString(m.Amount, 10)
	if !ok {
		return nil, InvalidMintItemError{
			PolicyId:  m.PolicyId,
			AssetName: m.AssetName,
			Reason:    fmt.Sprintf("amount %q is not an integer", m.Amount),
		}
	}
	if ret.Sign() == 0 {
		return nil, InvalidMintItemError{
			PolicyId:  m.PolicyId,
			AssetName: m.AssetName,
			Reason:    "amount must not be zero",
		}
	}
	return ret, nil
}

// MintElement names a mint declaration for error messages
func MintElement(idx int, m MintItem) string {
	return fmt.Sprintf("mint %d (%s.%s)", idx, m.PolicyId, m.AssetName)
}

// ValidityRange bounds the slots in which a transaction is valid. Either bound may be unset
type ValidityRange struct {
	InvalidBefore    *uint64
	InvalidHereafter *uint64
}

// Validate checks invalidBefore < invalidHereafter when both are set
func (v ValidityRange) Validate() error {
	if v.InvalidBefore == nil || v.InvalidHereafter == nil {
		return nil
	}
	if *v.InvalidBefore >= *v.InvalidHereafter {
		return ValidityRangeError{
			Bound:            "invalidBefore",
			InvalidBefore:    *v.InvalidBefore,
			InvalidHereafter: *v.InvalidHereafter,
		}
	}
	return nil
}

var errNoDatum = errors.New("output has no datum")

// DatumHash returns the hash of the output datum
func (o Output) DatumHash() (DatumHash, error) {
	if o.Datum == nil {
		return DatumHash{}, errNoDatum
	}
	return DataHash(o.Datum.Data)
}

// Utxorpc converts the output to its utxorpc form
func (o Output) Utxorpc() (*utxorpc.TxOutput, error) {
	addr, err := ParseAddress(o.Address)
	if err != nil {
		return nil, err
	}
	value, err := o.Value()
	if err != nil {
		return nil, err
	}
	if !value.Lovelace().IsUint64() {
		return nil, InvalidAssetError{
			Unit:     LovelaceUnit,
			Quantity: value.Lovelace().String(),
			Reason:   "out of range",
		}
	}
	assets, err := value.Utxorpc(false)
	if err != nil {
		return nil, err
	}
	ret := &utxorpc.TxOutput{
		Address: addr.Bytes(),
		Coin:    value.Lovelace().Uint64(),
		Assets:  assets,
	}
	if o.Datum != nil {
		datumHash, err := o.DatumHash()
		if err != nil {
			return nil, err
		}
		ret.Datum = &utxorpc.Datum{
			Hash: datumHash.Bytes(),
		}
	}
	return ret, nil
}
