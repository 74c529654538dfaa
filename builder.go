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
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/mint"
	"github.com/rober-m/mesh/resolver"
	"github.com/rober-m/mesh/rules"
	"github.com/rober-m/mesh/selection"
)

// TxBuilder accumulates transaction declarations in a draft and turns them
// into an immutable TransactionBody with Finalize. A TxBuilder is not safe
// for concurrent use
type TxBuilder struct {
	id                  uuid.UUID
	logger              *slog.Logger
	provider            common.ChainStateProvider
	feeEstimator        common.FeeEstimator
	network             *Network
	resolverParallelism int
	validationRules     []rules.RuleFunc
	state               State
	draft               common.TxBuilderBody
	finalized           *TransactionBody
}

// NewTxBuilder returns a builder holding an empty draft
func NewTxBuilder(opts ...TxBuilderOptionFunc) *TxBuilder {
	b := &TxBuilder{
		id:              uuid.New(),
		validationRules: rules.DefaultRules,
		state:           StateDraft,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With(
		"component", "txbuilder",
		"draft_id", b.id.String(),
	)
	return b
}

// Id returns the draft id used in log output
func (b *TxBuilder) Id() uuid.UUID {
	return b.id
}

// State returns the current builder state
func (b *TxBuilder) State() State {
	return b.state
}

// Draft returns a copy of the declarations made so far
func (b *TxBuilder) Draft() common.TxBuilderBody {
	return cloneDraft(b.draft)
}

// mustBeDraft panics when the builder has been finalized. Amending a
// finalized transaction is a programming error
func (b *TxBuilder) mustBeDraft(op string) {
	if b.state == StateFinalized {
		panic(
			fmt.Sprintf(
				"%s called on finalized transaction builder %s",
				op,
				b.id,
			),
		)
	}
}

// AddInput declares an input to spend. Pointer variants are stored by value
// and a nil pointer is stored as a nil input
func (b *TxBuilder) AddInput(input common.TxInput) *TxBuilder {
	b.mustBeDraft("AddInput")
	b.draft.Inputs = append(b.draft.Inputs, cloneInput(input))
	return b
}

func (b *TxBuilder) AddOutput(output common.Output) *TxBuilder {
	b.mustBeDraft("AddOutput")
	b.draft.Outputs = append(b.draft.Outputs, cloneOutput(output))
	return b
}

// Mint declares a mint, or a burn when the amount is negative. Declarations
// for the same policy and asset are summed when finalizing
func (b *TxBuilder) Mint(item common.MintItem) *TxBuilder {
	b.mustBeDraft("Mint")
	b.draft.Mints = append(b.draft.Mints, cloneMintItem(item))
	return b
}

// AddCertificate declares a certificate. Pointer variants are stored by value
// and a nil pointer is stored as a nil certificate
func (b *TxBuilder) AddCertificate(cert common.Certificate) *TxBuilder {
	b.mustBeDraft("AddCertificate")
	b.draft.Certificates = append(b.draft.Certificates, cloneCertificate(cert))
	return b
}

func (b *TxBuilder) AddMetadata(metadata common.Metadata) *TxBuilder {
	b.mustBeDraft("AddMetadata")
	b.draft.Metadata = append(b.draft.Metadata, metadata)
	return b
}

// SetValidityRange replaces both validity bounds
func (b *TxBuilder) SetValidityRange(validityRange common.ValidityRange) *TxBuilder {
	b.mustBeDraft("SetValidityRange")
	b.draft.ValidityRange = cloneValidityRange(validityRange)
	return b
}

// InvalidBefore sets the first slot in which the transaction is valid
func (b *TxBuilder) InvalidBefore(slot uint64) *TxBuilder {
	b.mustBeDraft("InvalidBefore")
	b.draft.ValidityRange.InvalidBefore = &slot
	return b
}

// InvalidHereafter sets the first slot in which the transaction is no longer valid
func (b *TxBuilder) InvalidHereafter(slot uint64) *TxBuilder {
	b.mustBeDraft("InvalidHereafter")
	b.draft.ValidityRange.InvalidHereafter = &slot
	return b
}

// SetChangeAddress specifies where leftover value is sent
func (b *TxBuilder) SetChangeAddress(address string) *TxBuilder {
	b.mustBeDraft("SetChangeAddress")
	b.draft.ChangeAddress = address
	return b
}

// RequireSignature declares a key hash that must sign the transaction
func (b *TxBuilder) RequireSignature(keyHash string) *TxBuilder {
	b.mustBeDraft("RequireSignature")
	b.draft.RequiredSignatures = append(b.draft.RequiredSignatures, keyHash)
	return b
}

func (b *TxBuilder) AddCollateral(collateral common.PubKeyTxIn) *TxBuilder {
	b.mustBeDraft("AddCollateral")
	collateral.TxIn = cloneTxIn(collateral.TxIn)
	b.draft.Collaterals = append(b.draft.Collaterals, collateral)
	return b
}

func (b *TxBuilder) AddReferenceInput(ref common.RefTxIn) *TxBuilder {
	b.mustBeDraft("AddReferenceInput")
	b.draft.ReferenceInputs = append(b.draft.ReferenceInputs, ref)
	return b
}

// SelectUtxosFrom adds candidates for selection and sets the most lovelace
// that may be added from them
func (b *TxBuilder) SelectUtxosFrom(utxos []common.UTxO, threshold uint64) *TxBuilder {
	b.mustBeDraft("SelectUtxosFrom")
	for _, utxo := range utxos {
		b.draft.ExtraInputs = append(b.draft.ExtraInputs, cloneUtxo(utxo))
	}
	b.draft.SelectionThreshold = threshold
	return b
}

func (b *TxBuilder) SetSelectionThreshold(threshold uint64) *TxBuilder {
	b.mustBeDraft("SetSelectionThreshold")
	b.draft.SelectionThreshold = threshold
	return b
}

func (b *TxBuilder) AddSigningKey(key common.SigningKey) *TxBuilder {
	b.mustBeDraft("AddSigningKey")
	b.draft.SigningKeys = append(b.draft.SigningKeys, key)
	return b
}

// Finalize validates the draft, resolves script and datum sources, aggregates
// mints and balances the transaction. On success the builder moves to
// StateFinalized and later calls return the same body. On failure the draft is
// left unchanged and may be amended and finalized again
func (b *TxBuilder) Finalize(ctx context.Context) (*TransactionBody, error) {
	if b.state == StateFinalized {
		return b.finalized, nil
	}
	draft := cloneDraft(b.draft)
	ret, err := b.finalize(ctx, &draft)
	if err != nil {
		b.logger.Debug(
			"finalize failed",
			"error", err,
		)
		return nil, err
	}
	b.finalized = ret
	b.state = StateFinalized
	b.logger.Info(
		"transaction body finalized",
		"inputs", len(ret.inputs),
		"outputs", len(ret.outputs),
		"reference_inputs", len(ret.referenceInputs),
		"mint_policies", len(ret.mints),
	)
	return ret, nil
}

func (b *TxBuilder) finalize(
	ctx context.Context,
	draft *common.TxBuilderBody,
) (*TransactionBody, error) {
	params := rules.Params{}
	if b.network != nil {
		networkId := b.network.Id
		params.NetworkId = &networkId
	}
	if err := rules.Validate(draft, params, b.validationRules); err != nil {
		return nil, err
	}
	reqs, inputReqs, mintReqs := sourceRequests(draft)
	resolverOpts := []resolver.ResolverOptionFunc{
		resolver.WithParallelism(b.resolverParallelism),
		resolver.WithLogger(b.logger),
	}
	if b.provider != nil {
		resolverOpts = append(resolverOpts, resolver.WithChainStateProvider(b.provider))
	}
	resolved, err := resolver.New(resolverOpts...).Resolve(ctx, reqs)
	if err != nil {
		return nil, err
	}
	policies, err := mint.Aggregate(draft.Mints)
	if err != nil {
		return nil, err
	}
	mints, err := resolveMints(draft.Mints, policies, mintReqs, resolved)
	if err != nil {
		return nil, err
	}
	var fee uint64
	if b.feeEstimator != nil {
		fee, err = b.feeEstimator.MinFee(ctx)
		if err != nil {
			return nil, err
		}
	}
	mintValue := mint.Value(policies)
	var utxoState common.UtxoState
	if b.provider != nil {
		utxoState = b.provider
	}
	sel, err := selection.Select(
		ctx,
		selection.Request{
			Inputs:        draft.Inputs,
			Outputs:       draft.Outputs,
			Mint:          mintValue,
			ExtraInputs:   draft.ExtraInputs,
			Threshold:     draft.SelectionThreshold,
			Fee:           fee,
			ChangeAddress: draft.ChangeAddress,
		},
		utxoState,
	)
	if err != nil {
		return nil, err
	}
	if len(sel.Selected) > 0 {
		b.logger.Debug(
			"selected additional inputs",
			"count", len(sel.Selected),
		)
	}
	ret := &TransactionBody{
		draftId:            b.id,
		mints:              mints,
		mintValue:          mintValue,
		collaterals:        draft.Collaterals,
		certificates:       draft.Certificates,
		metadata:           draft.Metadata,
		validityRange:      draft.ValidityRange,
		requiredSignatures: draft.RequiredSignatures,
		signingKeys:        draft.SigningKeys,
		changeAddress:      draft.ChangeAddress,
		fee:                fee,
	}
	// Inputs
	for idx, input := range draft.Inputs {
		spent := SpentInput{Input: input}
		if reqIdx, ok := inputReqs[idx]; ok {
			if reqIdx.script >= 0 {
				tmpScript := resolved[reqIdx.script].Script
				spent.Script = &tmpScript
			}
			if reqIdx.datum >= 0 {
				tmpDatum := resolved[reqIdx.datum].Datum
				spent.Datum = &tmpDatum
			}
		}
		ret.inputs = append(ret.inputs, spent)
	}
	for _, utxo := range sel.Selected {
		ret.inputs = append(
			ret.inputs,
			SpentInput{
				Input: common.PubKeyTxIn{
					TxIn: common.TxInParameter{
						TxHash:  utxo.Input.TxHash,
						TxIndex: utxo.Input.TxIndex,
						Amount:  slices.Clone(utxo.Output.Amount),
						Address: utxo.Output.Address,
					},
				},
				Selected: true,
			},
		)
	}
	slices.SortStableFunc(
		ret.inputs,
		func(a, b SpentInput) int {
			return normalizeRef(a.Ref()).Compare(normalizeRef(b.Ref()))
		},
	)
	// Outputs
	ret.outputs = draft.Outputs
	if sel.Change != nil {
		ret.outputs = append(ret.outputs, *sel.Change)
		tmpChange := cloneOutput(*sel.Change)
		ret.change = &tmpChange
	}
	// Reference inputs
	spent := make(map[common.RefTxIn]bool, len(ret.inputs))
	for _, input := range ret.inputs {
		spent[normalizeRef(input.Ref())] = true
	}
	refs := make([]common.RefTxIn, 0, len(draft.ReferenceInputs))
	for _, ref := range draft.ReferenceInputs {
		refs = append(refs, normalizeRef(ref))
	}
	for _, res := range resolved {
		ref := res.Ref()
		if ref == nil {
			continue
		}
		tmpRef := normalizeRef(*ref)
		// The ledger makes scripts and datums of spent outputs available
		if spent[tmpRef] {
			continue
		}
		refs = append(refs, tmpRef)
	}
	slices.SortFunc(refs, common.RefTxIn.Compare)
	ret.referenceInputs = slices.Compact(refs)
	return ret, nil
}

type inputRequests struct {
	script int
	datum  int
}

// sourceRequests builds the resolver requests for the draft. Input requests
// are indexed by input position and mint requests by mint position
func sourceRequests(
	draft *common.TxBuilderBody,
) ([]resolver.Request, map[int]inputRequests, map[int]int) {
	var reqs []resolver.Request
	inputReqs := make(map[int]inputRequests)
	for idx, input := range draft.Inputs {
		element := common.InputElement(idx, input)
		switch i := input.(type) {
		case common.SimpleScriptTxIn:
			inputReqs[idx] = inputRequests{script: len(reqs), datum: -1}
			reqs = append(reqs, resolver.ScriptRequest(element, i.ScriptSource))
		case common.ScriptTxIn:
			tmpReqs := inputRequests{script: len(reqs), datum: -1}
			reqs = append(reqs, resolver.ScriptRequest(element, i.ScriptSource))
			if i.DatumSource != nil {
				tmpReqs.datum = len(reqs)
				reqs = append(reqs, resolver.DatumRequest(element, i.DatumSource))
			}
			inputReqs[idx] = tmpReqs
		}
	}
	mintReqs := make(map[int]int)
	for idx, item := range draft.Mints {
		if item.ScriptSource == nil {
			continue
		}
		mintReqs[idx] = len(reqs)
		reqs = append(
			reqs,
			resolver.ScriptRequest(common.MintElement(idx, item), item.ScriptSource),
		)
	}
	return reqs, inputReqs, mintReqs
}

// resolveMints pairs each aggregated policy with the resolved script of the
// latest declaration for it that carried a script source
func resolveMints(
	items []common.MintItem,
	policies []mint.MintPolicy,
	mintReqs map[int]int,
	resolved []resolver.Result,
) ([]Mint, error) {
	latest := make(map[string]int)
	for idx, item := range items {
		if _, ok := mintReqs[idx]; ok {
			latest[strings.ToLower(item.PolicyId)] = idx
		}
	}
	ret := make([]Mint, 0, len(policies))
	for _, policy := range policies {
		idx, ok := latest[policy.PolicyId]
		if !ok {
			element := fmt.Sprintf("mint policy %s", policy.PolicyId)
			_, err := resolver.ResolveScript(element, nil)
			return nil, err
		}
		script := resolved[mintReqs[idx]].Script
		if script.Hash != nil &&
			!strings.EqualFold(script.Hash.String(), policy.PolicyId) {
			return nil, common.InvalidMintItemError{
				PolicyId:  policy.PolicyId,
				AssetName: items[idx].AssetName,
				Reason: fmt.Sprintf(
					"minting script hash %s does not match policy ID",
					script.Hash,
				),
			}
		}
		ret = append(
			ret,
			Mint{
				Policy: policy,
				Script: script,
			},
		)
	}
	return ret, nil
}

func normalizeRef(ref common.RefTxIn) common.RefTxIn {
	ref.TxHash = strings.ToLower(ref.TxHash)
	return ref
}
