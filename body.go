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

package mesh

import (
	"slices"

	"github.com/google/uuid"
	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/mint"
	"github.com/rober-m/mesh/resolver"
	utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
)

// SpentInput is an input of a finalized transaction body together with its
// resolved script and datum
type SpentInput struct {
	Input  common.TxInput
	Script *resolver.ResolvedScript
	Datum  *resolver.ResolvedDatum
	// Selected is set for inputs added from the selection candidate pool
	Selected bool
}

func (i SpentInput) Ref() common.RefTxIn {
	return i.Input.Param().Ref()
}

// Mint is the net activity of one minting policy with its resolved script
type Mint struct {
	Policy mint.MintPolicy
	Script resolver.ResolvedScript
}

// TransactionBody is the immutable result of finalizing a TxBuilder.
// Accessors return copies
type TransactionBody struct {
	draftId            uuid.UUID
	inputs             []SpentInput
	outputs            []common.Output
	change             *common.Output
	collaterals        []common.PubKeyTxIn
	referenceInputs    []common.RefTxIn
	mints              []Mint
	mintValue          common.Value
	certificates       []common.Certificate
	metadata           []common.Metadata
	validityRange      common.ValidityRange
	requiredSignatures []string
	signingKeys        []common.SigningKey
	changeAddress      string
	fee                uint64
}

// DraftId returns the id of the draft the body was finalized from
func (b *TransactionBody) DraftId() uuid.UUID {
	return b.draftId
}

// Inputs returns the spent inputs sorted by transaction hash and index
func (b *TransactionBody) Inputs() []SpentInput {
	ret := make([]SpentInput, 0, len(b.inputs))
	for _, input := range b.inputs {
		ret = append(ret, cloneSpentInput(input))
	}
	return ret
}

// Outputs returns the declared outputs followed by the change output, if any
func (b *TransactionBody) Outputs() []common.Output {
	ret := make([]common.Output, 0, len(b.outputs))
	for _, output := range b.outputs {
		ret = append(ret, cloneOutput(output))
	}
	return ret
}

// Change returns the change output, or nil when the body balances exactly
func (b *TransactionBody) Change() *common.Output {
	if b.change == nil {
		return nil
	}
	ret := cloneOutput(*b.change)
	return &ret
}

func (b *TransactionBody) Collaterals() []common.PubKeyTxIn {
	ret := make([]common.PubKeyTxIn, 0, len(b.collaterals))
	for _, collateral := range b.collaterals {
		collateral.TxIn = cloneTxIn(collateral.TxIn)
		ret = append(ret, collateral)
	}
	return ret
}

// ReferenceInputs returns the declared reference inputs merged with the
// references of inline script and datum sources, sorted and deduplicated
func (b *TransactionBody) ReferenceInputs() []common.RefTxIn {
	return slices.Clone(b.referenceInputs)
}

// Mints returns the aggregated minting policies sorted by policy ID
func (b *TransactionBody) Mints() []Mint {
	ret := make([]Mint, 0, len(b.mints))
	for _, m := range b.mints {
		ret = append(ret, cloneMint(m))
	}
	return ret
}

// MintValue returns the net minted value, with burns as negative quantities
func (b *TransactionBody) MintValue() common.Value {
	return b.mintValue.Clone()
}

func (b *TransactionBody) Certificates() []common.Certificate {
	ret := make([]common.Certificate, 0, len(b.certificates))
	for _, cert := range b.certificates {
		ret = append(ret, cloneCertificate(cert))
	}
	return ret
}

func (b *TransactionBody) Metadata() []common.Metadata {
	return slices.Clone(b.metadata)
}

func (b *TransactionBody) ValidityRange() common.ValidityRange {
	return cloneValidityRange(b.validityRange)
}

func (b *TransactionBody) RequiredSignatures() []string {
	return slices.Clone(b.requiredSignatures)
}

func (b *TransactionBody) SigningKeys() []common.SigningKey {
	return slices.Clone(b.signingKeys)
}

func (b *TransactionBody) ChangeAddress() string {
	return b.changeAddress
}

// Fee returns the fee that was covered while balancing
func (b *TransactionBody) Fee() uint64 {
	return b.fee
}

// Utxorpc converts the body to its utxorpc form. Witness data is not included
func (b *TransactionBody) Utxorpc() (*utxorpc.Tx, error) {
	ret := &utxorpc.Tx{
		Fee: b.fee,
	}
	for _, input := range b.inputs {
		tmpInput, err := input.Ref().Utxorpc()
		if err != nil {
			return nil, err
		}
		ret.Inputs = append(ret.Inputs, tmpInput)
	}
	for _, output := range b.outputs {
		tmpOutput, err := output.Utxorpc()
		if err != nil {
			return nil, err
		}
		ret.Outputs = append(ret.Outputs, tmpOutput)
	}
	for _, ref := range b.referenceInputs {
		tmpRef, err := ref.Utxorpc()
		if err != nil {
			return nil, err
		}
		ret.ReferenceInputs = append(ret.ReferenceInputs, tmpRef)
	}
	for _, cert := range b.certificates {
		tmpCert, err := certificateUtxorpc(cert)
		if err != nil {
			return nil, err
		}
		ret.Certificates = append(ret.Certificates, tmpCert)
	}
	mintAssets, err := b.mintValue.Utxorpc(true)
	if err != nil {
		return nil, err
	}
	ret.Mint = mintAssets
	if b.validityRange.InvalidBefore != nil ||
		b.validityRange.InvalidHereafter != nil {
		ret.Validity = &utxorpc.TxValidity{}
		if b.validityRange.InvalidBefore != nil {
			ret.Validity.Start = *b.validityRange.InvalidBefore
		}
		if b.validityRange.InvalidHereafter != nil {
			ret.Validity.Ttl = *b.validityRange.InvalidHereafter
		}
	}
	return ret, nil
}

type utxorpcCertificate interface {
	Utxorpc() (*utxorpc.Certificate, error)
}

func certificateUtxorpc(cert common.Certificate) (*utxorpc.Certificate, error) {
	tmpCert, ok := cert.(utxorpcCertificate)
	if !ok {
		return nil, common.CertificateError{
			Field:  "type",
			Reason: "certificate has no utxorpc form",
		}
	}
	return tmpCert.Utxorpc()
}
