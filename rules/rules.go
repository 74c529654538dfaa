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
	"fmt"
	"strings"

	"github.com/rober-m/mesh/common"
)

// Params carries settings that rules validate against
type Params struct {
	// NetworkId enables address network checks when set
	NetworkId *uint8
}

// RuleFunc represents a function that validates a builder body against a
// specific rule
type RuleFunc func(body *common.TxBuilderBody, params Params) error

var DefaultRules = []RuleFunc{
	ValidateInputs,
	ValidateDuplicateInputs,
	ValidateOutputs,
	ValidateInputScripts,
	ValidateMintRedeemers,
	ValidateCertificates,
	ValidateValidityRange,
	ValidateMetadata,
	ValidateRequiredSigners,
	ValidateSigningKeys,
	ValidateNetwork,
}

// Validate runs the provided rules in order and returns the first error encountered
func Validate(
	body *common.TxBuilderBody,
	params Params,
	validationRules []RuleFunc,
) error {
	for _, rule := range validationRules {
		if err := rule(body, params); err != nil {
			return err
		}
	}
	return nil
}

func validateTxIn(p common.TxInParameter) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(p.Amount) > 0 {
		if _, err := common.NewValue(p.Amount); err != nil {
			return common.InvalidTxInputError{
				TxHash:  p.TxHash,
				TxIndex: int(p.TxIndex),
				Reason:  err.Error(),
			}
		}
	}
	return nil
}

// ValidateInputs checks the references and hints of inputs, collateral,
// reference inputs and selection candidates
func ValidateInputs(body *common.TxBuilderBody, _ Params) error {
	for idx, input := range body.Inputs {
		if isNilInput(input) {
			return common.InvalidTxInputError{
				Reason: fmt.Sprintf("input %d is nil", idx),
			}
		}
		if err := validateTxIn(input.Param()); err != nil {
			return err
		}
	}
	for _, collateral := range body.Collaterals {
		if err := validateTxIn(collateral.TxIn); err != nil {
			return err
		}
	}
	for _, ref := range body.ReferenceInputs {
		if err := ref.Validate(); err != nil {
			return err
		}
	}
	for _, utxo := range body.ExtraInputs {
		if err := utxo.Input.Validate(); err != nil {
			return err
		}
		if _, err := utxo.Value(); err != nil {
			return common.InvalidTxInputError{
				TxHash:  utxo.Input.TxHash,
				TxIndex: int(utxo.Input.TxIndex),
				Reason:  err.Error(),
			}
		}
	}
	return nil
}

// isNilInput reports whether input is nil or a nil pointer variant
func isNilInput(input common.TxInput) bool {
	switch i := input.(type) {
	case nil:
		return true
	case *common.PubKeyTxIn:
		return i == nil
	case *common.SimpleScriptTxIn:
		return i == nil
	case *common.ScriptTxIn:
		return i == nil
	}
	return false
}

// ValidateDuplicateInputs rejects an input reference declared more than once
func ValidateDuplicateInputs(body *common.TxBuilderBody, _ Params) error {
	seen := make(map[common.RefTxIn]bool, len(body.Inputs))
	for _, input := range body.Inputs {
		ref := input.Param().Ref()
		ref.TxHash = strings.ToLower(ref.TxHash)
		if seen[ref] {
			return common.DuplicateInputError{
				TxHash:  ref.TxHash,
				TxIndex: ref.TxIndex,
			}
		}
		seen[ref] = true
	}
	return nil
}

func ValidateOutputs(body *common.TxBuilderBody, _ Params) error {
	for _, output := range body.Outputs {
		if err := output.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInputScripts checks that script-locked inputs carry a script of the
// right kind and, for Plutus inputs, a redeemer
func ValidateInputScripts(body *common.TxBuilderBody, _ Params) error {
	for idx, input := range body.Inputs {
		element := common.InputElement(idx, input)
		switch i := input.(type) {
		case common.PubKeyTxIn:
		case common.SimpleScriptTxIn:
			if lang, ok := common.ScriptSourceLanguage(i.ScriptSource); ok && lang.IsPlutus() {
				return common.ScriptLanguageError{
					Element:  element,
					Language: lang,
					Reason:   "simple script inputs must use a native script",
				}
			}
		case common.ScriptTxIn:
			if i.Redeemer == nil {
				return common.MissingRedeemerError{Element: element}
			}
			if _, err := common.NormalizeData(i.Redeemer.Data); err != nil {
				return err
			}
			if lang, ok := common.ScriptSourceLanguage(i.ScriptSource); ok && !lang.IsPlutus() {
				return common.ScriptLanguageError{
					Element:  element,
					Language: lang,
					Reason:   "script inputs must use a Plutus script",
				}
			}
		default:
			return common.InvalidTxInputError{
				TxHash:  input.Param().TxHash,
				TxIndex: int(input.Param().TxIndex),
				Reason:  fmt.Sprintf("unsupported input type %T", input),
			}
		}
	}
	return nil
}

// ValidateMintRedeemers checks that Plutus mints carry a redeemer, native
// mints do not, and provided minting scripts hash to the policy ID
func ValidateMintRedeemers(body *common.TxBuilderBody, _ Params) error {
	for idx, item := range body.Mints {
		if err := item.Validate(); err != nil {
			return err
		}
		element := common.MintElement(idx, item)
		switch item.Kind {
		case common.MintKindPlutus:
			if item.Redeemer == nil {
				return common.MissingRedeemerError{Element: element}
			}
			if _, err := common.NormalizeData(item.Redeemer.Data); err != nil {
				return err
			}
		case common.MintKindNative:
			if item.Redeemer != nil {
				return common.UnexpectedRedeemerError{Element: element}
			}
		}
		lang, ok := common.ScriptSourceLanguage(item.ScriptSource)
		if !ok {
			continue
		}
		if lang.IsPlutus() != (item.Kind == common.MintKindPlutus) {
			return common.ScriptLanguageError{
				Element:  element,
				Language: lang,
				Reason:   fmt.Sprintf("script does not fit a %s mint", item.Kind),
			}
		}
		var script common.Script
		switch s := item.ScriptSource.(type) {
		case common.ProvidedScriptSource:
			script = s.Script
		case *common.ProvidedScriptSource:
			script = s.Script
		default:
			continue
		}
		if script.Code == "" {
			continue
		}
		scriptHash, err := script.Hash()
		if err != nil {
			return err
		}
		if !strings.EqualFold(scriptHash.String(), item.PolicyId) {
			return common.InvalidMintItemError{
				PolicyId:  item.PolicyId,
				AssetName: item.AssetName,
				Reason: fmt.Sprintf(
					"minting script hash %s does not match policy ID",
					scriptHash,
				),
			}
		}
	}
	return nil
}

// ValidateValidityRange checks that invalidBefore precedes invalidHereafter
func ValidateValidityRange(body *common.TxBuilderBody, _ Params) error {
	return body.ValidityRange.Validate()
}

// ValidateMetadata rejects duplicate labels and values that cannot be
// expressed as transaction metadata
func ValidateMetadata(body *common.TxBuilderBody, _ Params) error {
	seen := make(map[uint64]bool, len(body.Metadata))
	for _, md := range body.Metadata {
		label, err := md.Label()
		if err != nil {
			return err
		}
		if seen[label] {
			return common.DuplicateMetadataTagError{Tag: md.Tag}
		}
		seen[label] = true
		if _, err := md.Metadatum(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCollateral requires collateral when any Plutus script runs. It is
// not part of DefaultRules, as whether the ledger accepts the transaction is
// left to the caller. Add it with WithValidationRules to enforce it
func ValidateCollateral(body *common.TxBuilderBody, _ Params) error {
	if len(body.Collaterals) > 0 {
		return nil
	}
	for idx, input := range body.Inputs {
		if _, ok := input.(common.ScriptTxIn); ok {
			return common.MissingCollateralError{
				Element: common.InputElement(idx, input),
			}
		}
	}
	for idx, item := range body.Mints {
		if item.Kind == common.MintKindPlutus {
			return common.MissingCollateralError{
				Element: common.MintElement(idx, item),
			}
		}
	}
	return nil
}

// ValidateRequiredSigners checks that required signers are distinct key hashes
func ValidateRequiredSigners(body *common.TxBuilderBody, _ Params) error {
	seen := make(map[common.KeyHash]bool, len(body.RequiredSignatures))
	for idx, signer := range body.RequiredSignatures {
		keyHash, err := common.ParseBlake2b224(signer)
		if err != nil {
			return common.InvalidSignerError{
				Index:  idx,
				Kind:   "required signer",
				Reason: err.Error(),
			}
		}
		if seen[keyHash] {
			return common.InvalidSignerError{
				Index:  idx,
				Kind:   "required signer",
				Reason: "duplicate key hash " + keyHash.String(),
			}
		}
		seen[keyHash] = true
	}
	return nil
}

// ValidateSigningKeys checks that every signing key can produce a verification key
func ValidateSigningKeys(body *common.TxBuilderBody, _ Params) error {
	for idx, key := range body.SigningKeys {
		if _, err := key.VerificationKey(); err != nil {
			return common.InvalidSignerError{
				Index:  idx,
				Kind:   "signing key",
				Reason: err.Error(),
			}
		}
	}
	return nil
}

// ValidateNetwork checks output, change and pool reward addresses against the
// configured network
func ValidateNetwork(body *common.TxBuilderBody, params Params) error {
	if params.NetworkId == nil {
		return nil
	}
	addresses := make([]string, 0, len(body.Outputs)+1)
	for _, output := range body.Outputs {
		addresses = append(addresses, output.Address)
	}
	if body.ChangeAddress != "" {
		addresses = append(addresses, body.ChangeAddress)
	}
	for _, cert := range body.Certificates {
		if reg, ok := cert.(common.RegisterPool); ok {
			addresses = append(addresses, reg.PoolParams.RewardAddress)
		}
	}
	for _, address := range addresses {
		addr, err := common.ParseAddress(address)
		if err != nil {
			return err
		}
		if addr.NetworkId() != *params.NetworkId {
			return common.WrongNetworkError{
				Address:  address,
				Expected: *params.NetworkId,
				Actual:   addr.NetworkId(),
			}
		}
	}
	return nil
}
