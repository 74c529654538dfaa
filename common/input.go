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
	"fmt"
	"math"
	"strings"

	utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
)

// TxInParameter identifies the output being spent. Amount and Address are
// optional hints used when the output value is not otherwise known
type TxInParameter struct {
	TxHash  string
	TxIndex uint32
	Amount  []Asset
	Address string
}

// NewTxInParameter validates and builds a TxInParameter. A negative or
// oversized index, a hash that is not 64 hex characters, a non-positive amount
// or an unparseable address hint are rejected
func NewTxInParameter(
	txHash string,
	txIndex int,
	amount []Asset,
	address string,
) (TxInParameter, error) {
	txHash = strings.ToLower(txHash)
	if txIndex < 0 {
		return TxInParameter{}, InvalidTxInputError{
			TxHash:  txHash,
			TxIndex: txIndex,
			Reason:  "index must not be negative",
		}
	}
	if uint64(txIndex) > math.MaxUint32 {
		return TxInParameter{}, InvalidTxInputError{
			TxHash:  txHash,
			TxIndex: txIndex,
			Reason:  "index out of range",
		}
	}
	ret := TxInParameter{
		TxHash:  txHash,
		TxIndex: uint32(txIndex), // #nosec G115
		Address: address,
	}
	if err := ret.Validate(); err != nil {
		return TxInParameter{}, err
	}
	if len(amount) > 0 {
		ret.Amount = append([]Asset(nil), amount...)
		if _, err := NewValue(ret.Amount); err != nil {
			return TxInParameter{}, InvalidTxInputError{
				TxHash:  txHash,
				TxIndex: txIndex,
				Reason:  err.Error(),
			}
		}
	}
	return ret, nil
}

// Validate checks the hash and address hint of an already built parameter
func (p TxInParameter) Validate() error {
	if err := p.Ref().Validate(); err != nil {
		return err
	}
	if p.Address != "" {
		if _, err := ParseAddress(p.Address); err != nil {
			return InvalidTxInputError{
				TxHash:  p.TxHash,
				TxIndex: int(p.TxIndex),
				Reason:  err.Error(),
			}
		}
	}
	return nil
}

func (p TxInParameter) Ref() RefTxIn {
	return RefTxIn{TxHash: p.TxHash, TxIndex: p.TxIndex}
}

func (p TxInParameter) String() string {
	return p.Ref().String()
}

// TxInput is one of PubKeyTxIn, SimpleScriptTxIn or ScriptTxIn
type TxInput interface {
	isTxInput()
	Param() TxInParameter
}

// PubKeyTxIn spends an output locked by a payment key
type PubKeyTxIn struct {
	TxIn TxInParameter
}

// SimpleScriptTxIn spends an output locked by a native script. It never
// carries a datum or redeemer
type SimpleScriptTxIn struct {
	TxIn         TxInParameter
	ScriptSource ScriptSource
}

// ScriptTxIn spends an output locked by a Plutus script
type ScriptTxIn struct {
	TxIn         TxInParameter
	ScriptSource ScriptSource
	DatumSource  DatumSource
	Redeemer     *Redeemer
}

func (PubKeyTxIn) isTxInput()       {}
func (SimpleScriptTxIn) isTxInput() {}
func (ScriptTxIn) isTxInput()       {}

func (i PubKeyTxIn) Param() TxInParameter       { return i.TxIn }
func (i SimpleScriptTxIn) Param() TxInParameter { return i.TxIn }
func (i ScriptTxIn) Param() TxInParameter       { return i.TxIn }

// InputElement names an input for error messages
func InputElement(idx int, input TxInput) string {
	return fmt.Sprintf("input %d (%s)", idx, input.Param())
}

// UtxoOutput is the address and value held by a UTxO
type UtxoOutput struct {
	Address    string
	Amount     []Asset
	DataHash   string
	PlutusData string
	ScriptRef  *Script
	ScriptHash string
}

// UTxO is an unspent output with its reference, as used for the selection candidate pool
type UTxO struct {
	Input  RefTxIn
	Output UtxoOutput
}

// Value returns the summed output amount
func (u UTxO) Value() (Value, error) {
	return NewValue(u.Output.Amount)
}

// Utxorpc converts the input reference to its utxorpc form
func (r RefTxIn) Utxorpc() (*utxorpc.TxInput, error) {
	txHash, err := ParseBlake2b256(r.TxHash)
	if err != nil {
		return nil, InvalidTxInputError{
			TxHash:  r.TxHash,
			TxIndex: int(r.TxIndex),
			Reason:  err.Error(),
		}
	}
	return &utxorpc.TxInput{
		TxHash:      txHash.Bytes(),
		OutputIndex: r.TxIndex,
	}, nil
}
