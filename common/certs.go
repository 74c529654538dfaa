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
	"math"
	"math/big"
	"net"
	"strconv"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/shopspring/decimal"
	utxorpc "github.com/utxorpc/go-codegen/utxorpc/v1alpha/cardano"
)

const (
	CertificateTypeStakeRegistration   = 0
	CertificateTypeStakeDeregistration = 1
	CertificateTypeStakeDelegation     = 2
	CertificateTypePoolRegistration    = 3
	CertificateTypePoolRetirement      = 4

	PoolIdBech32Prefix = "pool"

	// Pool metadata URLs and relay DNS names are limited to 64 bytes on chain
	maxPoolTextLength = 64
)

// Certificate is one of RegisterPool, RegisterStake, DelegateStake,
// DeregisterStake or RetirePool
type Certificate interface {
	isCertificate()
	Type() uint
	Utxorpc() (*utxorpc.Certificate, error)
}

type RegisterPool struct {
	PoolParams PoolParams
}

type RegisterStake struct {
	StakeKeyHash string
}

type DelegateStake struct {
	StakeKeyHash string
	PoolId       string
}

type DeregisterStake struct {
	StakeKeyHash string
}

type RetirePool struct {
	PoolId string
	Epoch  uint64
}

func (RegisterPool) isCertificate()    {}
func (RegisterStake) isCertificate()   {}
func (DelegateStake) isCertificate()   {}
func (DeregisterStake) isCertificate() {}
func (RetirePool) isCertificate()      {}

func (RegisterPool) Type() uint    { return CertificateTypePoolRegistration }
func (RegisterStake) Type() uint   { return CertificateTypeStakeRegistration }
func (DelegateStake) Type() uint   { return CertificateTypeStakeDelegation }
func (DeregisterStake) Type() uint { return CertificateTypeStakeDeregistration }
func (RetirePool) Type() uint      { return CertificateTypePoolRetirement }

const (
	PoolRelayTypeSingleHostAddress = 0
	PoolRelayTypeSingleHostName    = 1
	PoolRelayTypeMultiHostName     = 2
)

type PoolRelay struct {
	Type       int
	Port       *uint32
	Ipv4       string
	Ipv6       string
	DomainName string
}

// Validate checks the fields required by the relay type
func (p PoolRelay) Validate() error {
	if p.Port != nil && *p.Port > math.MaxUint16 {
		return fmt.Errorf("port %d out of range", *p.Port)
	}
	switch p.Type {
	case PoolRelayTypeSingleHostAddress:
		if p.Ipv4 == "" && p.Ipv6 == "" {
			return errors.New("single host address relay needs an IPv4 or IPv6 address")
		}
		if p.Ipv4 != "" {
			if ip := net.ParseIP(p.Ipv4); ip == nil || ip.To4() == nil {
				return fmt.Errorf("invalid IPv4 address %q", p.Ipv4)
			}
		}
		if p.Ipv6 != "" {
			if ip := net.ParseIP(p.Ipv6); ip == nil || ip.To4() != nil {
				return fmt.Errorf("invalid IPv6 address %q", p.Ipv6)
			}
		}
	case PoolRelayTypeSingleHostName, PoolRelayTypeMultiHostName:
		if p.DomainName == "" {
			return errors.New("host name relay needs a domain name")
		}
		if len(p.DomainName) > maxPoolTextLength {
			return fmt.Errorf("domain name exceeds %d bytes", maxPoolTextLength)
		}
		if p.Type == PoolRelayTypeMultiHostName && p.Port != nil {
			return errors.New("multi host name relay does not take a port")
		}
	default:
		return fmt.Errorf("invalid relay type: %d", p.Type)
	}
	return nil
}

func (p PoolRelay) Utxorpc() (*utxorpc.Relay, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ret := &utxorpc.Relay{}
	if p.Port != nil {
		ret.Port = *p.Port
	}
	if p.Ipv4 != "" {
		ret.IpV4 = []byte(net.ParseIP(p.Ipv4).To4())
	}
	if p.Ipv6 != "" {
		ret.IpV6 = []byte(net.ParseIP(p.Ipv6).To16())
	}
	return ret, nil
}

type PoolMetadata struct {
	Url  string
	Hash string
}

func (p *PoolMetadata) Validate() error {
	if p.Url == "" {
		return errors.New("metadata URL is empty")
	}
	if len(p.Url) > maxPoolTextLength {
		return fmt.Errorf("metadata URL exceeds %d bytes", maxPoolTextLength)
	}
	if _, err := ParseBlake2b256(p.Hash); err != nil {
		return fmt.Errorf("metadata hash: %w", err)
	}
	return nil
}

func (p *PoolMetadata) Utxorpc() (*utxorpc.PoolMetadata, error) {
	if p == nil {
		return nil, nil
	}
	hash, err := ParseBlake2b256(p.Hash)
	if err != nil {
		return nil, err
	}
	return &utxorpc.PoolMetadata{
			Url:  p.Url,
			Hash: hash.Bytes(),
		},
		nil
}

// PoolParams are the registration parameters of a stake pool. Pledge and cost
// are lovelace amounts as decimal text, margin is a decimal fraction such as "0.025"
type PoolParams struct {
	Operator      string
	VrfKeyHash    string
	Pledge        string
	Cost          string
	Margin        string
	RewardAddress string
	Owners        []string
	Relays        []PoolRelay
	Metadata      *PoolMetadata
}

// ParseMargin parses the margin into a rational in [0, 1]
func (p PoolParams) ParseMargin() (*big.Rat, error) {
	tmpMargin, err := decimal.NewFromString(p.Margin)
	if err != nil {
		return nil, fmt.Errorf("invalid margin %q: %w", p.Margin, err)
	}
	if tmpMargin.IsNegative() || tmpMargin.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("margin %s is not between 0 and 1", p.Margin)
	}
	return tmpMargin.Rat(), nil
}

// ParseLovelace parses a lovelace amount given as decimal text
func ParseLovelace(value string) (uint64, error) {
	ret, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lovelace amount %q", value)
	}
	return ret, nil
}

// ParsePoolId accepts a bech32 pool ID ("pool1...") or the 56 character hex pool key hash
func ParsePoolId(poolId string) (PoolKeyHash, error) {
	if len(poolId) == Blake2b224Size*2 {
		if ret, err := ParseBlake2b224(poolId); err == nil {
			return ret, nil
		}
	}
	return ParseBech32PoolId(poolId)
}

// ParseBech32PoolId accepts only the bech32 pool ID form ("pool1...")
func ParseBech32PoolId(poolId string) (PoolKeyHash, error) {
	if poolId == "" {
		return PoolKeyHash{}, errors.New("pool ID is empty")
	}
	hrp, data, err := bech32.DecodeNoLimit(poolId)
	if err != nil {
		return PoolKeyHash{}, fmt.Errorf(
			"pool ID is not bech32: %w",
			err,
		)
	}
	if hrp != PoolIdBech32Prefix {
		return PoolKeyHash{}, fmt.Errorf(
			"bech32 prefix %q is not a pool ID prefix",
			hrp,
		)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return PoolKeyHash{}, err
	}
	if len(decoded) != Blake2b224Size {
		return PoolKeyHash{}, fmt.Errorf(
			"pool ID has %d bytes, expected %d",
			len(decoded),
			Blake2b224Size,
		)
	}
	return NewBlake2b224(decoded), nil
}

func stakeCredential(stakeKeyHash string) (*utxorpc.StakeCredential, error) {
	keyHash, err := ParseBlake2b224(stakeKeyHash)
	if err != nil {
		return nil, fmt.Errorf("stake key hash: %w", err)
	}
	return &utxorpc.StakeCredential{
		StakeCredential: &utxorpc.StakeCredential_AddrKeyHash{
			AddrKeyHash: keyHash.Bytes(),
		},
	}, nil
}

func (c RegisterStake) Utxorpc() (*utxorpc.Certificate, error) {
	stakeCred, err := stakeCredential(c.StakeKeyHash)
	if err != nil {
		return nil, err
	}
	return &utxorpc.Certificate{
		Certificate: &utxorpc.Certificate_StakeRegistration{
			StakeRegistration: stakeCred,
		},
	}, nil
}

func (c DeregisterStake) Utxorpc() (*utxorpc.Certificate, error) {
	stakeCred, err := stakeCredential(c.StakeKeyHash)
	if err != nil {
		return nil, err
	}
	return &utxorpc.Certificate{
		Certificate: &utxorpc.Certificate_StakeDeregistration{
			StakeDeregistration: stakeCred,
		},
	}, nil
}

func (c DelegateStake) Utxorpc() (*utxorpc.Certificate, error) {
	stakeCred, err := stakeCredential(c.StakeKeyHash)
	if err != nil {
		return nil, err
	}
	poolKeyHash, err := ParsePoolId(c.PoolId)
	if err != nil {
		return nil, err
	}
	return &utxorpc.Certificate{
		Certificate: &utxorpc.Certificate_StakeDelegation{
			StakeDelegation: &utxorpc.StakeDelegationCert{
				StakeCredential: stakeCred,
				PoolKeyhash:     poolKeyHash.Bytes(),
			},
		},
	}, nil
}

func (c RetirePool) Utxorpc() (*utxorpc.Certificate, error) {
	poolKeyHash, err := ParsePoolId(c.PoolId)
	if err != nil {
		return nil, err
	}
	return &utxorpc.Certificate{
		Certificate: &utxorpc.Certificate_PoolRetirement{
			PoolRetirement: &utxorpc.PoolRetirementCert{
				PoolKeyhash: poolKeyHash.Bytes(),
				Epoch:       c.Epoch,
			},
		},
	}, nil
}

func (c RegisterPool) Utxorpc() (*utxorpc.Certificate, error) {
	p := c.PoolParams
	operator, err := ParsePoolId(p.Operator)
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}
	vrfKeyHash, err := ParseBlake2b256(p.VrfKeyHash)
	if err != nil {
		return nil, fmt.Errorf("VRF key hash: %w", err)
	}
	pledge, err := ParseLovelace(p.Pledge)
	if err != nil {
		return nil, fmt.Errorf("pledge: %w", err)
	}
	cost, err := ParseLovelace(p.Cost)
	if err != nil {
		return nil, fmt.Errorf("cost: %w", err)
	}
	margin, err := p.ParseMargin()
	if err != nil {
		return nil, err
	}
	if !margin.Num().IsInt64() || margin.Num().Int64() > math.MaxInt32 ||
		!margin.Denom().IsUint64() || margin.Denom().Uint64() > math.MaxUint32 {
		return nil, fmt.Errorf("margin %s is too precise", p.Margin)
	}
	rewardAddr, err := ParseAddress(p.RewardAddress)
	if err != nil {
		return nil, fmt.Errorf("reward address: %w", err)
	}
	tmpPoolOwners := make([][]byte, len(p.Owners))
	for i, owner := range p.Owners {
		ownerHash, err := ParseBlake2b224(owner)
		if err != nil {
			return nil, fmt.Errorf("pool owner %d: %w", i, err)
		}
		tmpPoolOwners[i] = ownerHash.Bytes()
	}
	tmpRelays := make([]*utxorpc.Relay, len(p.Relays))
	for i, relay := range p.Relays {
		relayUtxo, err := relay.Utxorpc()
		if err != nil {
			return nil, fmt.Errorf("failed to convert relay %d: %w", i, err)
		}
		tmpRelays[i] = relayUtxo
	}
	poolMetadata, err := p.Metadata.Utxorpc()
	if err != nil {
		return nil, fmt.Errorf("failed to convert pool metadata: %w", err)
	}
	return &utxorpc.Certificate{
		Certificate: &utxorpc.Certificate_PoolRegistration{
			PoolRegistration: &utxorpc.PoolRegistrationCert{
				Operator:   operator.Bytes(),
				VrfKeyhash: vrfKeyHash.Bytes(),
				Pledge:     pledge,
				Cost:       cost,
				// #nosec G115
				Margin: &utxorpc.RationalNumber{
					Numerator:   int32(margin.Num().Int64()),
					Denominator: uint32(margin.Denom().Uint64()),
				},
				RewardAccount: rewardAddr.Bytes(),
				PoolOwners:    tmpPoolOwners,
				Relays:        tmpRelays,
				PoolMetadata:  poolMetadata,
			},
		},
	}, nil
}
