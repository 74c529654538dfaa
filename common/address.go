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
	"hash/crc32"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/rober-m/mesh/cbor"
)

const (
	AddressHeaderTypeMask    = 0xF0
	AddressHeaderNetworkMask = 0x0F
	AddressHashSize          = 28

	AddressNetworkTestnet = 0
	AddressNetworkMainnet = 1

	AddressTypeKeyKey        = 0b0000
	AddressTypeScriptKey     = 0b0001
	AddressTypeKeyScript     = 0b0010
	AddressTypeScriptScript  = 0b0011
	AddressTypeKeyPointer    = 0b0100
	AddressTypeScriptPointer = 0b0101
	AddressTypeKeyNone       = 0b0110
	AddressTypeScriptNone    = 0b0111
	AddressTypeByron         = 0b1000
	AddressTypeNoneKey       = 0b1110
	AddressTypeNoneScript    = 0b1111

	// Byron address attribute key holding the network magic
	byronAttrNetworkMagic = 2
)

// Address is a decoded payment or reward address
type Address struct {
	raw            string
	bytes          []byte
	addressType    uint8
	networkId      uint8
	paymentHash    []byte
	paymentScript  bool
	stakingHash    []byte
	stakingScript  bool
	byronAttrMagic bool
}

type byronAddress struct {
	cbor.StructAsArray
	Payload  cbor.Tag
	Checksum uint32
}

type byronAddressPayload struct {
	cbor.StructAsArray
	Hash     []byte
	Attr     map[uint64]cbor.RawMessage
	AddrType uint64
}

// ParseAddress decodes a bech32 Shelley address or a base58 Byron address.
// Mixed case input is assumed to be base58
func ParseAddress(addr string) (Address, error) {
	if addr == "" {
		return Address{}, InvalidAddressError{}
	}
	var decoded []byte
	if strings.ToLower(addr) != addr {
		decoded = base58.Decode(addr)
		if len(decoded) == 0 {
			return Address{}, InvalidAddressError{
				Address: addr,
				Err:     errors.New("invalid base58 encoding"),
			}
		}
	} else {
		_, data, err := bech32.DecodeNoLimit(addr)
		if err != nil {
			return Address{}, InvalidAddressError{Address: addr, Err: err}
		}
		decoded, err = bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return Address{}, InvalidAddressError{Address: addr, Err: err}
		}
	}
	a := Address{raw: addr, bytes: decoded}
	if err := a.populateFromBytes(decoded); err != nil {
		return Address{}, InvalidAddressError{Address: addr, Err: err}
	}
	return a, nil
}

func (a *Address) populateFromBytes(data []byte) error {
	if len(data) == 0 {
		return errors.New("address has no content")
	}
	header := data[0]
	a.addressType = (header & AddressHeaderTypeMask) >> 4
	a.networkId = header & AddressHeaderNetworkMask
	if a.addressType == AddressTypeByron {
		return a.populateByron(data)
	}
	payload := data[1:]
	switch a.addressType {
	case AddressTypeKeyKey, AddressTypeKeyScript, AddressTypeKeyPointer, AddressTypeKeyNone:
		if len(payload) < AddressHashSize {
			return errors.New("invalid payment payload: key hash too small")
		}
		a.paymentHash = payload[0:AddressHashSize]
		payload = payload[AddressHashSize:]
	case AddressTypeScriptKey, AddressTypeScriptScript, AddressTypeScriptPointer, AddressTypeScriptNone:
		if len(payload) < AddressHashSize {
			return errors.New("invalid payment payload: script hash too small")
		}
		a.paymentHash = payload[0:AddressHashSize]
		a.paymentScript = true
		payload = payload[AddressHashSize:]
	case AddressTypeNoneKey, AddressTypeNoneScript:
	default:
		return fmt.Errorf("unknown address type %d", a.addressType)
	}
	switch a.addressType {
	case AddressTypeKeyKey, AddressTypeScriptKey, AddressTypeNoneKey:
		if len(payload) < AddressHashSize {
			return errors.New("invalid staking payload: key hash too small")
		}
		a.stakingHash = payload[0:AddressHashSize]
		payload = payload[AddressHashSize:]
	case AddressTypeKeyScript, AddressTypeScriptScript, AddressTypeNoneScript:
		if len(payload) < AddressHashSize {
			return errors.New("invalid staking payload: script hash too small")
		}
		a.stakingHash = payload[0:AddressHashSize]
		a.stakingScript = true
		payload = payload[AddressHashSize:]
	case AddressTypeKeyPointer, AddressTypeScriptPointer:
		// Pointers are variable length; accept whatever remains
		payload = nil
	}
	if len(payload) > 0 {
		return fmt.Errorf("unexpected %d trailing bytes", len(payload))
	}
	return nil
}

func (a *Address) populateByron(data []byte) error {
	var rawAddr byronAddress
	if err := cbor.DecodeFull(data, &rawAddr); err != nil {
		return err
	}
	payloadBytes, ok := rawAddr.Payload.Content.([]byte)
	if !ok || rawAddr.Payload.Number != 24 {
		return errors.New(
			"invalid Byron address data: unexpected payload content",
		)
	}
	if crc32.ChecksumIEEE(payloadBytes) != rawAddr.Checksum {
		return errors.New(
			"invalid Byron address data: checksum does not match",
		)
	}
	var byronAddr byronAddressPayload
	if err := cbor.DecodeFull(payloadBytes, &byronAddr); err != nil {
		return err
	}
	if len(byronAddr.Hash) != AddressHashSize {
		return errors.New(
			"invalid Byron address data: hash is not expected length",
		)
	}
	a.paymentHash = byronAddr.Hash
	// Byron mainnet addresses omit the network magic attribute
	_, a.byronAttrMagic = byronAddr.Attr[byronAttrNetworkMagic]
	if a.byronAttrMagic {
		a.networkId = AddressNetworkTestnet
	} else {
		a.networkId = AddressNetworkMainnet
	}
	return nil
}

func (a Address) String() string {
	return a.raw
}

// Bytes returns the raw address bytes, header included
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

func (a Address) Type() uint8 {
	return a.addressType
}

func (a Address) NetworkId() uint8 {
	return a.networkId
}

func (a Address) IsByron() bool {
	return a.addressType == AddressTypeByron
}

// IsReward reports whether this is a stake (reward) address
func (a Address) IsReward() bool {
	return a.addressType == AddressTypeNoneKey ||
		a.addressType == AddressTypeNoneScript
}

// PaymentKeyHash returns the payment key hash, when payment is key based
func (a Address) PaymentKeyHash() (KeyHash, bool) {
	if a.paymentHash == nil || a.paymentScript {
		return KeyHash{}, false
	}
	return NewBlake2b224(a.paymentHash), true
}

// PaymentScriptHash returns the payment script hash, when payment is script based
func (a Address) PaymentScriptHash() (ScriptHash, bool) {
	if a.paymentHash == nil || !a.paymentScript {
		return ScriptHash{}, false
	}
	return NewBlake2b224(a.paymentHash), true
}

// StakeKeyHash returns the staking key hash, when staking is key based
func (a Address) StakeKeyHash() (KeyHash, bool) {
	if a.stakingHash == nil || a.stakingScript {
		return KeyHash{}, false
	}
	return NewBlake2b224(a.stakingHash), true
}
