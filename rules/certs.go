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
	"errors"
	"fmt"
	"math"

	"github.com/rober-m/mesh/common"
)

// ValidateCertificates checks the identifiers and parameters of every
// certificate. Errors name the certificate index and the offending field
func ValidateCertificates(body *common.TxBuilderBody, _ Params) error {
	for idx, cert := range body.Certificates {
		if err := validateCertificate(idx, cert); err != nil {
			return err
		}
	}
	return nil
}

func validateCertificate(idx int, cert common.Certificate) error {
	certErr := func(field string, reason string) error {
		return common.CertificateError{
			Index:  idx,
			Field:  field,
			Reason: reason,
		}
	}
	switch c := cert.(type) {
	case common.RegisterStake:
		if _, err := parseStakeKeyHash(c.StakeKeyHash); err != nil {
			return certErr("stakeKeyHash", err.Error())
		}
	case common.DeregisterStake:
		if _, err := parseStakeKeyHash(c.StakeKeyHash); err != nil {
			return certErr("stakeKeyHash", err.Error())
		}
	case common.DelegateStake:
		stakeKeyHash, err := parseStakeKeyHash(c.StakeKeyHash)
		if err != nil {
			return certErr("stakeKeyHash", err.Error())
		}
		// A hex pool key hash cannot be told apart from a stake key hash
		poolKeyHash, err := common.ParseBech32PoolId(c.PoolId)
		if err != nil {
			return certErr("poolId", err.Error())
		}
		if poolKeyHash == stakeKeyHash {
			return certErr("poolId", "pool ID is the delegating stake key hash")
		}
	case common.RetirePool:
		if _, err := common.ParsePoolId(c.PoolId); err != nil {
			return certErr("poolId", err.Error())
		}
	case common.RegisterPool:
		return validatePoolParams(c.PoolParams, certErr)
	case nil:
		return certErr("type", "certificate is nil")
	default:
		return certErr("type", fmt.Sprintf("unsupported certificate type %T", cert))
	}
	return nil
}

func parseStakeKeyHash(stakeKeyHash string) (common.KeyHash, error) {
	if stakeKeyHash == "" {
		return common.KeyHash{}, errors.New("stake key hash is empty")
	}
	return common.ParseBlake2b224(stakeKeyHash)
}

func validatePoolParams(
	p common.PoolParams,
	certErr func(string, string) error,
) error {
	if _, err := common.ParsePoolId(p.Operator); err != nil {
		return certErr("operator", err.Error())
	}
	if _, err := common.ParseBlake2b256(p.VrfKeyHash); err != nil {
		return certErr("vrfKeyHash", err.Error())
	}
	if _, err := common.ParseLovelace(p.Pledge); err != nil {
		return certErr("pledge", err.Error())
	}
	if _, err := common.ParseLovelace(p.Cost); err != nil {
		return certErr("cost", err.Error())
	}
	margin, err := p.ParseMargin()
	if err != nil {
		return certErr("margin", err.Error())
	}
	if !margin.Num().IsInt64() || margin.Num().Int64() > math.MaxInt32 ||
		!margin.Denom().IsUint64() || margin.Denom().Uint64() > math.MaxUint32 {
		return certErr("margin", fmt.Sprintf("margin %s is too precise", p.Margin))
	}
	rewardAddr, err := common.ParseAddress(p.RewardAddress)
	if err != nil {
		return certErr("rewardAddress", err.Error())
	}
	if !rewardAddr.IsReward() {
		return certErr("rewardAddress", "not a reward address")
	}
	seenOwners := make(map[common.KeyHash]bool, len(p.Owners))
	for i, owner := range p.Owners {
		ownerHash, err := common.ParseBlake2b224(owner)
		if err != nil {
			return certErr(fmt.Sprintf("owners[%d]", i), err.Error())
		}
		if seenOwners[ownerHash] {
			return certErr(fmt.Sprintf("owners[%d]", i), "duplicate owner")
		}
		seenOwners[ownerHash] = true
	}
	for i, relay := range p.Relays {
		if err := relay.Validate(); err != nil {
			return certErr(fmt.Sprintf("relays[%d]", i), err.Error())
		}
	}
	if p.Metadata != nil {
		if err := p.Metadata.Validate(); err != nil {
			return certErr("metadata", err.Error())
		}
	}
	return nil
}
