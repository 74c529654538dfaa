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
	"math/big"
	"slices"

	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/mint"
	"github.com/rober-m/mesh/resolver"
)

func cloneTxIn(p common.TxInParameter) common.TxInParameter {
	p.Amount = slices.Clone(p.Amount)
	return p
}

func cloneRedeemer(r *common.Redeemer) *common.Redeemer {
	if r == nil {
		return nil
	}
	tmpRedeemer := *r
	return &tmpRedeemer
}

// cloneInput returns a copy of input stored by value. Nil pointer variants
// become a nil input
func cloneInput(input common.TxInput) common.TxInput {
	switch i := input.(type) {
	case *common.PubKeyTxIn:
		if i == nil {
			return nil
		}
		return cloneInput(*i)
	case *common.SimpleScriptTxIn:
		if i == nil {
			return nil
		}
		return cloneInput(*i)
	case *common.ScriptTxIn:
		if i == nil {
			return nil
		}
		return cloneInput(*i)
	case common.PubKeyTxIn:
		i.TxIn = cloneTxIn(i.TxIn)
		return i
	case common.SimpleScriptTxIn:
		i.TxIn = cloneTxIn(i.TxIn)
		return i
	case common.ScriptTxIn:
		i.TxIn = cloneTxIn(i.TxIn)
		i.Redeemer = cloneRedeemer(i.Redeemer)
		return i
	}
	return input
}

func cloneOutput(o common.Output) common.Output {
	o.Amount = slices.Clone(o.Amount)
	if o.Datum != nil {
		tmpDatum := *o.Datum
		o.Datum = &tmpDatum
	}
	if o.ReferenceScript != nil {
		tmpScript := *o.ReferenceScript
		o.ReferenceScript = &tmpScript
	}
	return o
}

func cloneUtxo(u common.UTxO) common.UTxO {
	u.Output.Amount = slices.Clone(u.Output.Amount)
	if u.Output.ScriptRef != nil {
		tmpScript := *u.Output.ScriptRef
		u.Output.ScriptRef = &tmpScript
	}
	return u
}

func cloneMintItem(item common.MintItem) common.MintItem {
	item.Redeemer = cloneRedeemer(item.Redeemer)
	return item
}

func clonePoolParams(p common.PoolParams) common.PoolParams {
	p.Owners = slices.Clone(p.Owners)
	p.Relays = slices.Clone(p.Relays)
	for idx, relay := range p.Relays {
		if relay.Port != nil {
			tmpPort := *relay.Port
			p.Relays[idx].Port = &tmpPort
		}
	}
	if p.Metadata != nil {
		tmpMetadata := *p.Metadata
		p.Metadata = &tmpMetadata
	}
	return p
}

// cloneCertificate returns a copy of cert stored by value. Nil pointer
// variants become a nil certificate
func cloneCertificate(cert common.Certificate) common.Certificate {
	switch c := cert.(type) {
	case *common.RegisterPool:
		if c == nil {
			return nil
		}
		return cloneCertificate(*c)
	case *common.RegisterStake:
		if c == nil {
			return nil
		}
		return *c
	case *common.DelegateStake:
		if c == nil {
			return nil
		}
		return *c
	case *common.DeregisterStake:
		if c == nil {
			return nil
		}
		return *c
	case *common.RetirePool:
		if c == nil {
			return nil
		}
		return *c
	case common.RegisterPool:
		c.PoolParams = clonePoolParams(c.PoolParams)
		return c
	}
	return cert
}

func cloneValidityRange(v common.ValidityRange) common.ValidityRange {
	if v.InvalidBefore != nil {
		tmp := *v.InvalidBefore
		v.InvalidBefore = &tmp
	}
	if v.InvalidHereafter != nil {
		tmp := *v.InvalidHereafter
		v.InvalidHereafter = &tmp
	}
	return v
}

func cloneResolvedScript(s resolver.ResolvedScript) resolver.ResolvedScript {
	if s.Script != nil {
		tmpScript := *s.Script
		s.Script = &tmpScript
	}
	if s.Hash != nil {
		tmpHash := *s.Hash
		s.Hash = &tmpHash
	}
	if s.Ref != nil {
		tmpRef := *s.Ref
		s.Ref = &tmpRef
	}
	return s
}

func cloneResolvedDatum(d resolver.ResolvedDatum) resolver.ResolvedDatum {
	d.Cbor = slices.Clone(d.Cbor)
	if d.Hash != nil {
		tmpHash := *d.Hash
		d.Hash = &tmpHash
	}
	if d.Ref != nil {
		tmpRef := *d.Ref
		d.Ref = &tmpRef
	}
	return d
}

func cloneSpentInput(i SpentInput) SpentInput {
	i.Input = cloneInput(i.Input)
	if i.Script != nil {
		tmpScript := cloneResolvedScript(*i.Script)
		i.Script = &tmpScript
	}
	if i.Datum != nil {
		tmpDatum := cloneResolvedDatum(*i.Datum)
		i.Datum = &tmpDatum
	}
	return i
}

func cloneMint(m Mint) Mint {
	assets := make([]mint.MintAsset, 0, len(m.Policy.Assets))
	for _, asset := range m.Policy.Assets {
		if asset.Quantity != nil {
			asset.Quantity = new(big.Int).Set(asset.Quantity)
		}
		assets = append(assets, asset)
	}
	m.Policy.Assets = assets
	m.Policy.Redeemer = cloneRedeemer(m.Policy.Redeemer)
	m.Script = cloneResolvedScript(m.Script)
	return m
}

// cloneDraft copies the draft so that neither copy shares mutable state with
// the other
func cloneDraft(d common.TxBuilderBody) common.TxBuilderBody {
	inputs := d.Inputs
	d.Inputs = nil
	for _, input := range inputs {
		d.Inputs = append(d.Inputs, cloneInput(input))
	}
	outputs := d.Outputs
	d.Outputs = nil
	for _, output := range outputs {
		d.Outputs = append(d.Outputs, cloneOutput(output))
	}
	extraInputs := d.ExtraInputs
	d.ExtraInputs = nil
	for _, utxo := range extraInputs {
		d.ExtraInputs = append(d.ExtraInputs, cloneUtxo(utxo))
	}
	collaterals := d.Collaterals
	d.Collaterals = nil
	for _, collateral := range collaterals {
		collateral.TxIn = cloneTxIn(collateral.TxIn)
		d.Collaterals = append(d.Collaterals, collateral)
	}
	mints := d.Mints
	d.Mints = nil
	for _, item := range mints {
		d.Mints = append(d.Mints, cloneMintItem(item))
	}
	certs := d.Certificates
	d.Certificates = nil
	for _, cert := range certs {
		d.Certificates = append(d.Certificates, cloneCertificate(cert))
	}
	d.RequiredSignatures = slices.Clone(d.RequiredSignatures)
	d.ReferenceInputs = slices.Clone(d.ReferenceInputs)
	d.Metadata = slices.Clone(d.Metadata)
	d.ValidityRange = cloneValidityRange(d.ValidityRange)
	d.SigningKeys = slices.Clone(d.SigningKeys)
	return d
}
