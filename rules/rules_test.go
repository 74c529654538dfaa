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

package rules

import (
	"strings"
	"testing"

	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRedeemer = &common.Redeemer{
	Data:    common.CBORData{Content: "182a"},
	ExUnits: common.Budget{Mem: 7000, Steps: 3000000},
}

func txIn(digit byte, idx uint32) common.TxInParameter {
	return common.TxInParameter{TxHash: test.TxHash(digit), TxIndex: idx}
}

func plutusScriptSource() common.ScriptSource {
	return common.ProvidedScriptSource{
		Script: common.Script{
			Language: common.ScriptLanguagePlutusV2,
			Code:     test.PlutusScriptCbor,
		},
	}
}

func nativeScriptSource() common.ScriptSource {
	return common.ProvidedScriptSource{
		Script: common.Script{
			Language: common.ScriptLanguageNative,
			Code:     test.NativeScriptCbor,
		},
	}
}

// validBody returns a body that passes every default rule
func validBody() *common.TxBuilderBody {
	u := func(v uint64) *uint64 { return &v }
	return &common.TxBuilderBody{
		Inputs: []common.TxInput{
			common.PubKeyTxIn{TxIn: txIn('a', 0)},
			common.SimpleScriptTxIn{TxIn: txIn('a', 1), ScriptSource: nativeScriptSource()},
			common.ScriptTxIn{
				TxIn:         txIn('b', 0),
				ScriptSource: plutusScriptSource(),
				DatumSource: common.ProvidedDatumSource{
					Data: common.CBORData{Content: test.UnitDatumCbor},
				},
				Redeemer: testRedeemer,
			},
		},
		Outputs: []common.Output{
			{Address: test.TestnetBaseAddress, Amount: []common.Asset{common.Lovelace(2_000_000)}},
		},
		Collaterals: []common.PubKeyTxIn{{TxIn: txIn('c', 0)}},
		Mints: []common.MintItem{
			{
				Kind:         common.MintKindNative,
				PolicyId:     test.NativeScriptHash,
				AssetName:    test.AssetNameToken,
				Amount:       "1",
				ScriptSource: nativeScriptSource(),
			},
		},
		ChangeAddress: test.TestnetEnterpriseAddress,
		Metadata: []common.Metadata{
			{Tag: "674", Metadata: map[string]any{"msg": []any{"hello"}}},
		},
		ValidityRange: common.ValidityRange{InvalidBefore: u(50), InvalidHereafter: u(100)},
		Certificates: []common.Certificate{
			common.RegisterStake{StakeKeyHash: test.StakeKeyHash},
			common.DelegateStake{StakeKeyHash: test.StakeKeyHash, PoolId: test.PoolIdBech32},
		},
		RequiredSignatures: []string{test.PaymentKeyHash},
		SigningKeys:        []common.SigningKey{test.SigningKeyCbor},
	}
}

func testnet() Params {
	networkId := uint8(common.AddressNetworkTestnet)
	return Params{NetworkId: &networkId}
}

func TestValidBodyPassesDefaultRules(t *testing.T) {
	require.NoError(t, Validate(validBody(), testnet(), DefaultRules))
}

func TestRuleViolations(t *testing.T) {
	testCases := []struct {
		name      string
		modify    func(b *common.TxBuilderBody)
		wantErrAs any
	}{
		{
			name: "DuplicateInput",
			modify: func(b *common.TxBuilderBody) {
				b.Inputs = append(b.Inputs, common.PubKeyTxIn{TxIn: txIn('a', 0)})
			},
			wantErrAs: &common.DuplicateInputError{},
		},
		{
			name: "DuplicateInputDifferentCase",
			modify: func(b *common.TxBuilderBody) {
				b.Inputs = append(
					b.Inputs,
					common.PubKeyTxIn{TxIn: txIn('a', 5)},
					common.PubKeyTxIn{TxIn: common.TxInParameter{TxHash: strings.ToUpper(test.TxHash('a')), TxIndex: 5}},
				)
			},
			wantErrAs: &common.DuplicateInputError{},
		},
		{
			name: "BadInputHash",
			modify: func(b *common.TxBuilderBody) {
				b.Inputs[0] = common.PubKeyTxIn{TxIn: common.TxInParameter{TxHash: "abc"}}
			},
			wantErrAs: &common.InvalidTxInputError{},
		},
		{
			name: "BadReferenceInput",
			modify: func(b *common.TxBuilderBody) {
				b.ReferenceInputs = []common.RefTxIn{{TxHash: "xyz"}}
			},
			wantErrAs: &common.InvalidTxInputError{},
		},
		{
			name: "BadOutputAmount",
			modify: func(b *common.TxBuilderBody) {
				b.Outputs[0].Amount = []common.Asset{common.Lovelace(0)}
			},
			wantErrAs: &common.InvalidAssetError{},
		},
		{
			name: "MissingInputRedeemer",
			modify: func(b *common.TxBuilderBody) {
				in := b.Inputs[2].(common.ScriptTxIn)
				in.Redeemer = nil
				b.Inputs[2] = in
			},
			wantErrAs: &common.MissingRedeemerError{},
		},
		{
			name: "PlutusScriptOnSimpleScriptInput",
			modify: func(b *common.TxBuilderBody) {
				b.Inputs[1] = common.SimpleScriptTxIn{TxIn: txIn('a', 1), ScriptSource: plutusScriptSource()}
			},
			wantErrAs: &common.ScriptLanguageError{},
		},
		{
			name: "NativeScriptOnScriptInput",
			modify: func(b *common.TxBuilderBody) {
				in := b.Inputs[2].(common.ScriptTxIn)
				in.ScriptSource = nativeScriptSource()
				b.Inputs[2] = in
			},
			wantErrAs: &common.ScriptLanguageError{},
		},
		{
			name: "MissingMintRedeemer",
			modify: func(b *common.TxBuilderBody) {
				b.Mints = append(b.Mints, common.MintItem{
					Kind:     common.MintKindPlutus,
					PolicyId: test.PlutusV2ScriptHash,
					Amount:   "1",
				})
			},
			wantErrAs: &common.MissingRedeemerError{},
		},
		{
			name: "UnexpectedMintRedeemer",
			modify: func(b *common.TxBuilderBody) {
				b.Mints[0].Redeemer = testRedeemer
			},
			wantErrAs: &common.UnexpectedRedeemerError{},
		},
		{
			name: "MintScriptDoesNotMatchPolicy",
			modify: func(b *common.TxBuilderBody) {
				b.Mints[0].PolicyId = test.PolicyIdA
			},
			wantErrAs: &common.InvalidMintItemError{},
		},
		{
			name: "PlutusScriptOnNativeMint",
			modify: func(b *common.TxBuilderBody) {
				b.Mints[0].ScriptSource = plutusScriptSource()
			},
			wantErrAs: &common.ScriptLanguageError{},
		},
		{
			name: "ReversedValidityRange",
			modify: func(b *common.TxBuilderBody) {
				before, hereafter := uint64(100), uint64(50)
				b.ValidityRange = common.ValidityRange{InvalidBefore: &before, InvalidHereafter: &hereafter}
			},
			wantErrAs: &common.ValidityRangeError{},
		},
		{
			name: "DuplicateMetadataTag",
			modify: func(b *common.TxBuilderBody) {
				b.Metadata = append(b.Metadata, common.Metadata{Tag: "0674", Metadata: "again"})
			},
			wantErrAs: &common.DuplicateMetadataTagError{},
		},
		{
			name: "InvalidMetadata",
			modify: func(b *common.TxBuilderBody) {
				b.Metadata = append(b.Metadata, common.Metadata{Tag: "1", Metadata: 1.5})
			},
			wantErrAs: &common.InvalidMetadataError{},
		},
		{
			name: "NilInput",
			modify: func(b *common.TxBuilderBody) {
				b.Inputs = append(b.Inputs, nil)
			},
			wantErrAs: &common.InvalidTxInputError{},
		},
		{
			name: "NilInputPointer",
			modify: func(b *common.TxBuilderBody) {
				b.Inputs = append(b.Inputs, (*common.PubKeyTxIn)(nil))
			},
			wantErrAs: &common.InvalidTxInputError{},
		},
		{
			name: "BadRequiredSigner",
			modify: func(b *common.TxBuilderBody) {
				b.RequiredSignatures = append(b.RequiredSignatures, "abcd")
			},
			wantErrAs: &common.InvalidSignerError{},
		},
		{
			name: "DuplicateRequiredSigner",
			modify: func(b *common.TxBuilderBody) {
				b.RequiredSignatures = append(b.RequiredSignatures, test.PaymentKeyHash)
			},
			wantErrAs: &common.InvalidSignerError{},
		},
		{
			name: "BadSigningKey",
			modify: func(b *common.TxBuilderBody) {
				b.SigningKeys = append(b.SigningKeys, "5801ff")
			},
			wantErrAs: &common.InvalidSignerError{},
		},
		{
			name: "MainnetOutputOnTestnet",
			modify: func(b *common.TxBuilderBody) {
				b.Outputs = append(b.Outputs, common.Output{
					Address: test.MainnetBaseAddress,
					Amount:  []common.Asset{common.Lovelace(1_000_000)},
				})
			},
			wantErrAs: &common.WrongNetworkError{},
		},
		{
			name: "MainnetChangeOnTestnet",
			modify: func(b *common.TxBuilderBody) {
				b.ChangeAddress = test.MainnetBaseAddress
			},
			wantErrAs: &common.WrongNetworkError{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := validBody()
			tc.modify(body)
			err := Validate(body, testnet(), DefaultRules)
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.wantErrAs)
		})
	}
}

func TestValidateNetworkDisabled(t *testing.T) {
	body := validBody()
	body.ChangeAddress = test.MainnetBaseAddress
	assert.NoError(t, ValidateNetwork(body, Params{}))
}

func TestValidateNilInputPosition(t *testing.T) {
	body := validBody()
	body.Inputs = append(body.Inputs, (*common.ScriptTxIn)(nil))
	err := ValidateInputs(body, Params{})
	var inputErr common.InvalidTxInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Empty(t, inputErr.TxHash)
	assert.Equal(t, 0, inputErr.TxIndex)
	assert.Equal(t, "invalid transaction input: input 3 is nil", err.Error())
}

func TestDefaultRulesSkipCollateral(t *testing.T) {
	body := validBody()
	body.Collaterals = nil
	require.NoError(t, Validate(body, testnet(), DefaultRules))
	err := Validate(body, testnet(), append(DefaultRules, ValidateCollateral))
	var collateralErr common.MissingCollateralError
	assert.ErrorAs(t, err, &collateralErr)
}

func TestValidateCollateralNotNeeded(t *testing.T) {
	body := &common.TxBuilderBody{
		Inputs: []common.TxInput{common.PubKeyTxIn{TxIn: txIn('a', 0)}},
		Mints: []common.MintItem{
			{Kind: common.MintKindNative, PolicyId: test.PolicyIdA, Amount: "1"},
		},
	}
	assert.NoError(t, ValidateCollateral(body, Params{}))
}

func TestValidateCertificates(t *testing.T) {
	pool := func(modify func(p *common.PoolParams)) common.Certificate {
		port := uint32(3001)
		p := common.PoolParams{
			Operator:      test.PoolKeyHashHex,
			VrfKeyHash:    test.TxHash('6'),
			Pledge:        "100000000",
			Cost:          "340000000",
			Margin:        "0.025",
			RewardAddress: test.TestnetRewardAddress,
			Owners:        []string{test.StakeKeyHash},
			Relays: []common.PoolRelay{
				{Type: common.PoolRelayTypeSingleHostAddress, Ipv4: "10.0.0.1", Port: &port},
			},
		}
		if modify != nil {
			modify(&p)
		}
		return common.RegisterPool{PoolParams: p}
	}
	testCases := []struct {
		name  string
		cert  common.Certificate
		field string
	}{
		{name: "RegisterPool", cert: pool(nil)},
		{name: "RetirePool", cert: common.RetirePool{PoolId: test.PoolIdBech32, Epoch: 300}},
		{name: "DeregisterStake", cert: common.DeregisterStake{StakeKeyHash: test.StakeKeyHash}},
		{
			name:  "EmptyStakeKey",
			cert:  common.RegisterStake{},
			field: "stakeKeyHash",
		},
		{
			name:  "ShortStakeKey",
			cert:  common.DeregisterStake{StakeKeyHash: "abcd"},
			field: "stakeKeyHash",
		},
		{
			name:  "DelegateToStakeKey",
			cert:  common.DelegateStake{StakeKeyHash: test.StakeKeyHash, PoolId: test.StakeKeyHash},
			field: "poolId",
		},
		{
			name:  "DelegateToHexPoolId",
			cert:  common.DelegateStake{StakeKeyHash: test.StakeKeyHash, PoolId: test.PoolKeyHashHex},
			field: "poolId",
		},
		{
			name:  "DelegateToStakeAddressPrefix",
			cert:  common.DelegateStake{StakeKeyHash: test.StakeKeyHash, PoolId: test.NotPoolIdBech32},
			field: "poolId",
		},
		{
			name:  "RetireEmptyPool",
			cert:  common.RetirePool{},
			field: "poolId",
		},
		{
			name:  "PoolBadVrf",
			cert:  pool(func(p *common.PoolParams) { p.VrfKeyHash = test.PoolKeyHashHex }),
			field: "vrfKeyHash",
		},
		{
			name:  "PoolBadPledge",
			cert:  pool(func(p *common.PoolParams) { p.Pledge = "-1" }),
			field: "pledge",
		},
		{
			name:  "PoolMarginAboveOne",
			cert:  pool(func(p *common.PoolParams) { p.Margin = "1.01" }),
			field: "margin",
		},
		{
			name:  "PoolRewardAddressNotReward",
			cert:  pool(func(p *common.PoolParams) { p.RewardAddress = test.TestnetBaseAddress }),
			field: "rewardAddress",
		},
		{
			name:  "PoolDuplicateOwner",
			cert:  pool(func(p *common.PoolParams) { p.Owners = append(p.Owners, test.StakeKeyHash) }),
			field: "owners[1]",
		},
		{
			name:  "PoolBadRelay",
			cert:  pool(func(p *common.PoolParams) { p.Relays[0].Ipv4 = "300.0.0.1" }),
			field: "relays[0]",
		},
		{
			name: "PoolBadMetadata",
			cert: pool(func(p *common.PoolParams) {
				p.Metadata = &common.PoolMetadata{Url: "https://example.com", Hash: "abcd"}
			}),
			field: "metadata",
		},
		{
			name:  "Nil",
			cert:  nil,
			field: "type",
		},
		{
			name:  "Pointer",
			cert:  &common.RegisterStake{StakeKeyHash: test.StakeKeyHash},
			field: "type",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := &common.TxBuilderBody{
				Certificates: []common.Certificate{
					common.RegisterStake{StakeKeyHash: test.StakeKeyHash},
					tc.cert,
				},
			}
			err := ValidateCertificates(body, Params{})
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var certErr common.CertificateError
			require.ErrorAs(t, err, &certErr)
			assert.Equal(t, 1, certErr.Index)
			assert.Equal(t, tc.field, certErr.Field)
		})
	}
}
