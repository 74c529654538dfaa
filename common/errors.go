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
)

// Sentinel errors for chain-state provider failures so callers can use errors.Is
// regardless of which provider implementation produced them
var (
	ErrNotFound            = errors.New("not found in chain state")
	ErrProviderUnavailable = errors.New("chain-state provider unavailable")
)

// InvalidTxInputError indicates a structurally impossible transaction input
type InvalidTxInputError struct {
	TxHash  string
	TxIndex int
	Reason  string
}

func (e InvalidTxInputError) Error() string {
	if e.TxHash == "" && e.TxIndex == 0 {
		return "invalid transaction input: " + e.Reason
	}
	return fmt.Sprintf(
		"invalid transaction input %s#%d: %s",
		e.TxHash,
		e.TxIndex,
		e.Reason,
	)
}

// InvalidAddressError indicates an address that is empty or cannot be decoded
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e InvalidAddressError) Error() string {
	if e.Address == "" {
		return "invalid address: address is empty"
	}
	return fmt.Sprintf("invalid address %q: %v", e.Address, e.Err)
}

func (e InvalidAddressError) Unwrap() error { return e.Err }

// InvalidAssetError indicates an asset unit or quantity that cannot be used
type InvalidAssetError struct {
	Unit     string
	Quantity string
	Reason   string
}

func (e InvalidAssetError) Error() string {
	return fmt.Sprintf(
		"invalid asset %s (quantity %q): %s",
		e.Unit,
		e.Quantity,
		e.Reason,
	)
}

// InvalidMintItemError indicates a mint declaration that is structurally impossible
type InvalidMintItemError struct {
	PolicyId  string
	AssetName string
	Reason    string
}

func (e InvalidMintItemError) Error() string {
	return fmt.Sprintf(
		"invalid mint item %s.%s: %s",
		e.PolicyId,
		e.AssetName,
		e.Reason,
	)
}

// InvalidScriptError indicates script content that cannot be decoded
type InvalidScriptError struct {
	Language ScriptLanguage
	Err      error
}

func (e InvalidScriptError) Error() string {
	return fmt.Sprintf("invalid %s script: %v", e.Language, e.Err)
}

func (e InvalidScriptError) Unwrap() error { return e.Err }

// InvalidDataError indicates builder data (datum or redeemer) that cannot be normalized
type InvalidDataError struct {
	Format string
	Err    error
}

func (e InvalidDataError) Error() string {
	return fmt.Sprintf("invalid %s data: %v", e.Format, e.Err)
}

func (e InvalidDataError) Unwrap() error { return e.Err }

// DuplicateInputError indicates the same (txHash, txIndex) declared twice
type DuplicateInputError struct {
	TxHash  string
	TxIndex uint32
}

func (e DuplicateInputError) Error() string {
	return fmt.Sprintf("duplicate input: %s#%d", e.TxHash, e.TxIndex)
}

// AmbiguousSourceError indicates a script or datum source with neither or both of
// provided content and inline reference populated
type AmbiguousSourceError struct {
	Element string
	Reason  string
}

func (e AmbiguousSourceError) Error() string {
	return fmt.Sprintf("ambiguous source for %s: %s", e.Element, e.Reason)
}

// MissingRedeemerError indicates a script-gated element without a required redeemer
type MissingRedeemerError struct {
	Element string
}

func (e MissingRedeemerError) Error() string {
	return "missing redeemer for " + e.Element
}

// UnexpectedRedeemerError indicates a redeemer attached to an element that never runs a Plutus script
type UnexpectedRedeemerError struct {
	Element string
}

func (e UnexpectedRedeemerError) Error() string {
	return "unexpected redeemer for " + e.Element
}

// ConflictingRedeemerError indicates two Plutus mint declarations for the same policy
// that disagree on the redeemer
type ConflictingRedeemerError struct {
	PolicyId  string
	AssetName string
}

func (e ConflictingRedeemerError) Error() string {
	return fmt.Sprintf(
		"conflicting redeemers for mint policy %s (asset %q)",
		e.PolicyId,
		e.AssetName,
	)
}

// ConflictingMintKindError indicates a policy declared as both Plutus and Native
type ConflictingMintKindError struct {
	PolicyId string
}

func (e ConflictingMintKindError) Error() string {
	return fmt.Sprintf(
		"mint policy %s declared as both Plutus and Native",
		e.PolicyId,
	)
}

// ScriptLanguageError indicates a script source whose language does not fit the element using it
type ScriptLanguageError struct {
	Element  string
	Language ScriptLanguage
	Reason   string
}

func (e ScriptLanguageError) Error() string {
	return fmt.Sprintf(
		"%s script not allowed for %s: %s",
		e.Language,
		e.Element,
		e.Reason,
	)
}

// CertificateError indicates a structurally invalid certificate
type CertificateError struct {
	Index  int
	Field  string
	Reason string
}

func (e CertificateError) Error() string {
	return fmt.Sprintf(
		"invalid certificate %d: %s: %s",
		e.Index,
		e.Field,
		e.Reason,
	)
}

// ValidityRangeError indicates validity interval bounds that cannot both hold
type ValidityRangeError struct {
	Bound            string
	InvalidBefore    uint64
	InvalidHereafter uint64
}

func (e ValidityRangeError) Error() string {
	return fmt.Sprintf(
		"invalid validity range (%s): invalidBefore %d must be less than invalidHereafter %d",
		e.Bound,
		e.InvalidBefore,
		e.InvalidHereafter,
	)
}

// DuplicateMetadataTagError indicates the same metadata label declared twice
type DuplicateMetadataTagError struct {
	Tag string
}

func (e DuplicateMetadataTagError) Error() string {
	return "duplicate metadata tag: " + e.Tag
}

// InvalidMetadataError indicates a metadata entry that cannot be attached to a transaction
type InvalidMetadataError struct {
	Tag    string
	Reason string
}

func (e InvalidMetadataError) Error() string {
	return fmt.Sprintf("invalid metadata %q: %s", e.Tag, e.Reason)
}

// MissingCollateralError indicates Plutus script execution without collateral inputs
type MissingCollateralError struct {
	Element string
}

func (e MissingCollateralError) Error() string {
	return "missing collateral for " + e.Element
}

// InvalidSignerError indicates a required signer or signing key that is not usable
type InvalidSignerError struct {
	Index  int
	Kind   string
	Reason string
}

func (e InvalidSignerError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Kind, e.Index, e.Reason)
}

// WrongNetworkError indicates an address for a different network than the one configured
type WrongNetworkError struct {
	Address  string
	Expected uint8
	Actual   uint8
}

func (e WrongNetworkError) Error() string {
	return fmt.Sprintf(
		"address %s has network ID %d, expected %d",
		e.Address,
		e.Actual,
		e.Expected,
	)
}

// InsufficientFundsError indicates that the selection cutoff was reached with an unmet shortfall
type InsufficientFundsError struct {
	Shortfall Value
}

func (e InsufficientFundsError) Error() string {
	return "insufficient funds: shortfall " + e.Shortfall.String()
}

// MissingChangeAddressError indicates nonzero change without a configured change address
type MissingChangeAddressError struct {
	Change Value
}

func (e MissingChangeAddressError) Error() string {
	return "missing change address for change " + e.Change.String()
}

// MissingInputValueError indicates an input whose value is not hinted and cannot be looked up
type MissingInputValueError struct {
	TxHash  string
	TxIndex uint32
}

func (e MissingInputValueError) Error() string {
	return fmt.Sprintf(
		"unknown value for input %s#%d: no amount hint and no chain-state provider",
		e.TxHash,
		e.TxIndex,
	)
}

// NotFoundError indicates that the chain-state provider has no entry for the reference
type NotFoundError struct {
	TxHash  string
	TxIndex uint32
	Kind    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s#%d", e.Kind, e.TxHash, e.TxIndex)
}

func (NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ProviderUnavailableError indicates that the chain-state provider could not be reached
type ProviderUnavailableError struct {
	Err error
}

func (e ProviderUnavailableError) Error() string {
	return fmt.Sprintf("chain-state provider unavailable: %v", e.Err)
}

func (e ProviderUnavailableError) Unwrap() error { return e.Err }

func (ProviderUnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}
