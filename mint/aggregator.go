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

package mint

import (
	"maps"
	"math/big"
	"slices"
	"strings"

	"github.com/rober-m/mesh/common"
)

// MintAsset is the net quantity of one asset under a policy. Negative quantities burn
type MintAsset struct {
	AssetName string
	Quantity  *big.Int
}

// MintPolicy is the aggregated mint/burn activity of one policy
type MintPolicy struct {
	PolicyId     string
	Kind         common.MintKind
	ScriptSource common.ScriptSource
	Redeemer     *common.Redeemer
	Assets       []MintAsset
}

type policyEntry struct {
	kind         common.MintKind
	scriptSource common.ScriptSource
	redeemer     *common.Redeemer
	assets       map[string]*big.Int
}

// Aggregator merges mint declarations into net quantities per policy and
// asset. An Aggregator is meant to live for a single finalize call
type Aggregator struct {
	policies map[string]*policyEntry
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		policies: make(map[string]*policyEntry),
	}
}

// Add merges one mint declaration. The script source of the latest
// declaration for a policy wins. The first redeemer declared for a policy is
// kept, and a later one that differs fails with ConflictingRedeemerError
func (a *Aggregator) Add(item common.MintItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	qty, err := item.Quantity()
	if err != nil {
		return err
	}
	policyId := strings.ToLower(item.PolicyId)
	assetName := strings.ToLower(item.AssetName)
	entry, ok := a.policies[policyId]
	if !ok {
		entry = &policyEntry{
			kind:   item.Kind,
			assets: make(map[string]*big.Int),
		}
		a.policies[policyId] = entry
	}
	if entry.kind != item.Kind {
		return common.ConflictingMintKindError{PolicyId: policyId}
	}
	if item.Redeemer != nil {
		if entry.redeemer == nil {
			tmpRedeemer := *item.Redeemer
			entry.redeemer = &tmpRedeemer
		} else {
			equal, err := entry.redeemer.Equal(item.Redeemer)
			if err != nil {
				return err
			}
			if !equal {
				return common.ConflictingRedeemerError{
					PolicyId:  policyId,
					AssetName: assetName,
				}
			}
		}
	}
	if item.ScriptSource != nil {
		entry.scriptSource = item.ScriptSource
	}
	existing, ok := entry.assets[assetName]
	if !ok {
		existing = new(big.Int)
	}
	entry.assets[assetName] = new(big.Int).Add(existing, qty)
	return nil
}

// Policies returns the aggregated policies sorted by policy ID, each with its
// assets sorted by name. Assets that net to zero are dropped, as are policies
// left without assets
func (a *Aggregator) Policies() []MintPolicy {
	policyIds := slices.Collect(maps.Keys(a.policies))
	slices.Sort(policyIds)
	ret := make([]MintPolicy, 0, len(policyIds))
	for _, policyId := range policyIds {
		entry := a.policies[policyId]
		assetNames := slices.Collect(maps.Keys(entry.assets))
		slices.Sort(assetNames)
		var assets []MintAsset
		for _, assetName := range assetNames {
			qty := entry.assets[assetName]
			if qty.Sign() == 0 {
				continue
			}
			assets = append(
				assets,
				MintAsset{
					AssetName: assetName,
					Quantity:  new(big.Int).Set(qty),
				},
			)
		}
		if len(assets) == 0 {
			continue
		}
		ret = append(
			ret,
			MintPolicy{
				PolicyId:     policyId,
				Kind:         entry.kind,
				ScriptSource: entry.scriptSource,
				Redeemer:     redeemerCopy(entry.redeemer),
				Assets:       assets,
			},
		)
	}
	return ret
}

// Aggregate merges all mint declarations in order
func Aggregate(items []common.MintItem) ([]MintPolicy, error) {
	a := NewAggregator()
	for _, item := range items {
		if err := a.Add(item); err != nil {
			return nil, err
		}
	}
	return a.Policies(), nil
}

// Value returns the net minted value of the policies, with burns as negative quantities
func Value(policies []MintPolicy) common.Value {
	ret := common.Value{}
	for _, policy := range policies {
		for _, asset := range policy.Assets {
			ret.AddQuantity(policy.PolicyId+asset.AssetName, asset.Quantity)
		}
	}
	return ret
}

func redeemerCopy(r *common.Redeemer) *common.Redeemer {
	if r == nil {
		return nil
	}
	tmpRedeemer := *r
	return &tmpRedeemer
}
