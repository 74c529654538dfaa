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
	"errors"
	"math/big"
	"testing"

	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/internal/test"
	test_provider "github.com/rober-m/mesh/internal/test/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenUnit = test.PolicyIdA + test.AssetNameToken

func hintedInput(digit byte, idx uint32, amount ...common.Asset) common.TxInput {
	return common.PubKeyTxIn{
		TxIn: common.TxInParameter{
			TxHash:  test.TxHash(digit),
			TxIndex: idx,
			Amount:  amount,
		},
	}
}

func output(amount ...common.Asset) common.Output {
	return common.Output{Address: test.TestnetBaseAddress, Amount: amount}
}

func utxo(digit byte, idx uint32, amount ...common.Asset) common.UTxO {
	return common.UTxO{
		Input: common.RefTxIn{TxHash: test.TxHash(digit), TxIndex: idx},
		Output: common.UtxoOutput{
			Address: test.TestnetEnterpriseAddress,
			Amount:  amount,
		},
	}
}

func TestSelectBoundary(t *testing.T) {
	t.Run("ChangeWithoutSelection", func(t *testing.T) {
		res, err := Select(
			context.Background(),
			Request{
				Inputs:        []common.TxInput{hintedInput('a', 0, common.Lovelace(100))},
				Outputs:       []common.Output{output(common.Lovelace(90))},
				ExtraInputs:   []common.UTxO{utxo('b', 0, common.Lovelace(1000))},
				Fee:           5,
				ChangeAddress: test.TestnetEnterpriseAddress,
			},
			nil,
		)
		require.NoError(t, err)
		assert.Empty(t, res.Selected)
		require.NotNil(t, res.Change)
		assert.Equal(t, test.TestnetEnterpriseAddress, res.Change.Address)
		assert.Equal(t, []common.Asset{common.Lovelace(5)}, res.Change.Amount)
	})
	t.Run("ShortfallAtZeroThreshold", func(t *testing.T) {
		_, err := Select(
			context.Background(),
			Request{
				Inputs:        []common.TxInput{hintedInput('a', 0, common.Lovelace(100))},
				Outputs:       []common.Output{output(common.Lovelace(150))},
				ExtraInputs:   []common.UTxO{utxo('b', 0, common.Lovelace(1000))},
				Fee:           5,
				ChangeAddress: test.TestnetEnterpriseAddress,
			},
			nil,
		)
		var fundsErr common.InsufficientFundsError
		require.ErrorAs(t, err, &fundsErr)
		assert.Equal(t, common.LovelaceValue(55), fundsErr.Shortfall)
	})
}

func TestSelectExactNoChange(t *testing.T) {
	res, err := Select(
		context.Background(),
		Request{
			Inputs:  []common.TxInput{hintedInput('a', 0, common.Lovelace(100))},
			Outputs: []common.Output{output(common.Lovelace(95))},
			Fee:     5,
		},
		nil,
	)
	require.NoError(t, err)
	assert.Nil(t, res.Change)
}

func TestSelectMissingChangeAddress(t *testing.T) {
	_, err := Select(
		context.Background(),
		Request{
			Inputs:  []common.TxInput{hintedInput('a', 0, common.Lovelace(100))},
			Outputs: []common.Output{output(common.Lovelace(50))},
		},
		nil,
	)
	var changeErr common.MissingChangeAddressError
	require.ErrorAs(t, err, &changeErr)
	assert.Equal(t, common.LovelaceValue(50), changeErr.Change)
}

func TestSelectOrdering(t *testing.T) {
	// Equal values tie-break on reference, the larger candidate goes first
	extra := []common.UTxO{
		utxo('c', 0, common.Lovelace(30)),
		utxo('b', 1, common.Lovelace(30)),
		utxo('d', 0, common.Lovelace(60)),
		utxo('b', 0, common.Lovelace(30)),
	}
	testCases := []struct {
		name     string
		output   uint64
		selected []common.RefTxIn
	}{
		{
			name:   "LargestCoversAll",
			output: 150,
			selected: []common.RefTxIn{
				{TxHash: test.TxHash('d')},
			},
		},
		{
			name:   "TieBreakByReference",
			output: 200,
			selected: []common.RefTxIn{
				{TxHash: test.TxHash('d')},
				{TxHash: test.TxHash('b')},
				{TxHash: test.TxHash('b'), TxIndex: 1},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Select(
				context.Background(),
				Request{
					Inputs:        []common.TxInput{hintedInput('a', 0, common.Lovelace(100))},
					Outputs:       []common.Output{output(common.Lovelace(tc.output))},
					ExtraInputs:   extra,
					Threshold:     1000,
					ChangeAddress: test.TestnetEnterpriseAddress,
				},
				nil,
			)
			require.NoError(t, err)
			refs := make([]common.RefTxIn, 0, len(res.Selected))
			for _, sel := range res.Selected {
				refs = append(refs, sel.Input)
			}
			assert.Equal(t, tc.selected, refs)
		})
	}
}

func TestSelectThresholdCutoff(t *testing.T) {
	_, err := Select(
		context.Background(),
		Request{
			Inputs:  []common.TxInput{hintedInput('a', 0, common.Lovelace(100))},
			Outputs: []common.Output{output(common.Lovelace(200))},
			ExtraInputs: []common.UTxO{
				utxo('b', 0, common.Lovelace(60)),
				utxo('c', 0, common.Lovelace(60)),
			},
			// Room for one candidate only
			Threshold:     100,
			ChangeAddress: test.TestnetEnterpriseAddress,
		},
		nil,
	)
	var fundsErr common.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, common.LovelaceValue(40), fundsErr.Shortfall)
}

func TestSelectMultiAsset(t *testing.T) {
	res, err := Select(
		context.Background(),
		Request{
			Inputs: []common.TxInput{hintedInput('a', 0, common.Lovelace(10_000_000))},
			Outputs: []common.Output{
				output(common.Lovelace(2_000_000), common.Asset{Unit: tokenUnit, Quantity: "5"}),
			},
			ExtraInputs: []common.UTxO{
				// Largest but holds no token, skipped
				utxo('b', 0, common.Lovelace(50_000_000)),
				utxo('c', 0, common.Lovelace(1_500_000), common.Asset{Unit: tokenUnit, Quantity: "8"}),
			},
			Threshold:     5_000_000,
			Fee:           200_000,
			ChangeAddress: test.TestnetEnterpriseAddress,
		},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, res.Selected, 1)
	assert.Equal(t, test.TxHash('c'), res.Selected[0].Input.TxHash)
	require.NotNil(t, res.Change)
	assert.Equal(
		t,
		[]common.Asset{
			common.Lovelace(9_300_000),
			{Unit: tokenUnit, Quantity: "3"},
		},
		res.Change.Amount,
	)
}

func TestSelectMintAndBurn(t *testing.T) {
	res, err := Select(
		context.Background(),
		Request{
			Inputs: []common.TxInput{
				hintedInput(
					'a', 0,
					common.Lovelace(5_000_000),
					common.Asset{Unit: test.PolicyIdB, Quantity: "2"},
				),
			},
			Outputs: []common.Output{
				output(common.Lovelace(2_000_000), common.Asset{Unit: tokenUnit, Quantity: "10"}),
			},
			Mint: common.Value{
				tokenUnit:      big.NewInt(10),
				test.PolicyIdB: big.NewInt(-2),
			},
			ChangeAddress: test.TestnetEnterpriseAddress,
		},
		nil,
	)
	require.NoError(t, err)
	require.NotNil(t, res.Change)
	assert.Equal(t, []common.Asset{common.Lovelace(3_000_000)}, res.Change.Amount)
}

func TestSelectInputValueSources(t *testing.T) {
	unhinted := hintedInput('e', 2)
	ref := common.RefTxIn{TxHash: test.TxHash('e'), TxIndex: 2}
	req := Request{
		Inputs:        []common.TxInput{unhinted},
		Outputs:       []common.Output{output(common.Lovelace(10))},
		ChangeAddress: test.TestnetEnterpriseAddress,
	}
	t.Run("Missing", func(t *testing.T) {
		_, err := Select(context.Background(), req, nil)
		var missingErr common.MissingInputValueError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, uint32(2), missingErr.TxIndex)
	})
	t.Run("FromExtraInputs", func(t *testing.T) {
		tmpReq := req
		tmpReq.ExtraInputs = []common.UTxO{utxo('e', 2, common.Lovelace(25))}
		res, err := Select(context.Background(), tmpReq, nil)
		require.NoError(t, err)
		// The declared input is not selected again
		assert.Empty(t, res.Selected)
		assert.Equal(t, []common.Asset{common.Lovelace(15)}, res.Change.Amount)
	})
	t.Run("FromProvider", func(t *testing.T) {
		provider := &test_provider.MockChainStateProvider{
			Utxos: map[common.RefTxIn]common.UTxO{
				ref: utxo('e', 2, common.Lovelace(40)),
			},
		}
		res, err := Select(context.Background(), req, provider)
		require.NoError(t, err)
		assert.Equal(t, []common.Asset{common.Lovelace(30)}, res.Change.Amount)
		assert.Equal(t, 1, provider.Calls("utxo", ref))
	})
	t.Run("ProviderError", func(t *testing.T) {
		cause := common.ProviderUnavailableError{Err: errors.New("timeout")}
		provider := &test_provider.MockChainStateProvider{
			UtxoByRefFunc: func(context.Context, common.RefTxIn) (common.UTxO, error) {
				return common.UTxO{}, cause
			},
		}
		_, err := Select(context.Background(), req, provider)
		assert.Equal(t, cause, err)
	})
}
