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

package selection

import (
	"context"
	"math/big"
	"slices"
	"strings"

	"github.com/rober-m/mesh/common"
)

// Request describes the balance a transaction must satisfy
type Request struct {
	Inputs  []common.TxInput
	Outputs []common.Output
	// Mint is the net minted value, with burns as negative quantities
	Mint        common.Value
	ExtraInputs []common.UTxO
	// Threshold is the most lovelace that may be added from ExtraInputs
	Threshold     uint64
	Fee           uint64
	ChangeAddress string
}

// Result holds the inputs added from the candidate pool and the change output
type Result struct {
	Selected   []common.UTxO
	Change     *common.Output
	InputValue common.Value
}

// Select balances the request. Declared inputs are valued from their amount
// hint, then a matching ExtraInputs entry, then utxoState when it is not nil.
// When declared value does not cover outputs, burns and the fee, candidates
// from ExtraInputs are added largest first until the shortfall is covered.
// Adding a candidate that would take the added lovelace above Threshold fails
// with InsufficientFundsError. Leftover value is returned as one change output
func Select(
	ctx context.Context,
	req Request,
	utxoState common.UtxoState,
) (Result, error) {
	candidatesByRef := make(map[common.RefTxIn]common.UTxO, len(req.ExtraInputs))
	for _, utxo := range req.ExtraInputs {
		candidatesByRef[normalizeRef(utxo.Input)] = utxo
	}
	inputValue := common.Value{}
	declared := make(map[common.RefTxIn]bool, len(req.Inputs))
	for _, input := range req.Inputs {
		ref := normalizeRef(input.Param().Ref())
		declared[ref] = true
		value, err := valueOfInput(ctx, input.Param(), candidatesByRef, utxoState)
		if err != nil {
			return Result{}, err
		}
		inputValue = inputValue.Add(value)
	}
	required := common.LovelaceValue(req.Fee)
	for _, output := range req.Outputs {
		value, err := output.Value()
		if err != nil {
			return Result{}, err
		}
		required = required.Add(value)
	}
	balance := inputValue.Add(req.Mint).Sub(required)
	ret := Result{}
	if shortfall := balance.Negative(); !shortfall.IsZero() {
		candidates := make([]common.UTxO, 0, len(req.ExtraInputs))
		for _, utxo := range req.ExtraInputs {
			if declared[normalizeRef(utxo.Input)] {
				continue
			}
			candidates = append(candidates, utxo)
		}
		candidateValues, err := orderCandidates(candidates)
		if err != nil {
			return Result{}, err
		}
		threshold := new(big.Int).SetUint64(req.Threshold)
		added := new(big.Int)
		for _, candidate := range candidateValues {
			if !contributes(candidate.value, shortfall) {
				continue
			}
			tmpAdded := new(big.Int).Add(added, candidate.value.Lovelace())
			if tmpAdded.Cmp(threshold) > 0 {
				break
			}
			added = tmpAdded
			ret.Selected = append(ret.Selected, candidate.utxo)
			inputValue = inputValue.Add(candidate.value)
			balance = balance.Add(candidate.value)
			shortfall = balance.Negative()
			if shortfall.IsZero() {
				break
			}
		}
		if !shortfall.IsZero() {
			return Result{}, common.InsufficientFundsError{Shortfall: shortfall}
		}
	}
	ret.InputValue = inputValue
	change := balance.Positive()
	if change.IsZero() {
		return ret, nil
	}
	if req.ChangeAddress == "" {
		return Result{}, common.MissingChangeAddressError{Change: change}
	}
	ret.Change = &common.Output{
		Address: req.ChangeAddress,
		Amount:  change.Assets(),
	}
	return ret, nil
}

type candidate struct {
	utxo  common.UTxO
	value common.Value
}

// orderCandidates sorts by lovelace descending, then by reference ascending
func orderCandidates(utxos []common.UTxO) ([]candidate, error) {
	ret := make([]candidate, 0, len(utxos))
	for _, utxo := range utxos {
		value, err := utxo.Value()
		if err != nil {
			return nil, common.InvalidTxInputError{
				TxHash:  utxo.Input.TxHash,
				TxIndex: int(utxo.Input.TxIndex),
				Reason:  err.Error(),
			}
		}
		ret = append(ret, candidate{utxo: utxo, value: value})
	}
	slices.SortStableFunc(
		ret,
		func(a, b candidate) int {
			if c := b.value.Lovelace().Cmp(a.value.Lovelace()); c != 0 {
				return c
			}
			return normalizeRef(a.utxo.Input).Compare(normalizeRef(b.utxo.Input))
		},
	)
	return ret, nil
}

// contributes reports whether value holds any unit that is short
func contributes(value common.Value, shortfall common.Value) bool {
	for unit := range shortfall {
		if value.Get(unit).Sign() > 0 {
			return true
		}
	}
	return false
}

func valueOfInput(
	ctx context.Context,
	param common.TxInParameter,
	candidates map[common.RefTxIn]common.UTxO,
	utxoState common.UtxoState,
) (common.Value, error) {
	if len(param.Amount) > 0 {
		return common.NewValue(param.Amount)
	}
	ref := normalizeRef(param.Ref())
	if utxo, ok := candidates[ref]; ok {
		return utxo.Value()
	}
	if utxoState == nil {
		return nil, common.MissingInputValueError{
			TxHash:  param.TxHash,
			TxIndex: param.TxIndex,
		}
	}
	utxo, err := utxoState.UtxoByRef(ctx, param.Ref())
	if err != nil {
		return nil, err
	}
	return utxo.Value()
}

func normalizeRef(ref common.RefTxIn) common.RefTxIn {
	ref.TxHash = strings.ToLower(ref.TxHash)
	return ref
}
