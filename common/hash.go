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
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const (
	Blake2b256Size = 32
	Blake2b224Size = 28
)

type Blake2b256 [Blake2b256Size]byte

func NewBlake2b256(data []byte) Blake2b256 {
	b := Blake2b256{}
	copy(b[:], data)
	return b
}

func (b Blake2b256) String() string {
	return hex.EncodeToString(b[:])
}

func (b Blake2b256) Bytes() []byte {
	return b[:]
}

// Blake2b256Hash generates a Blake2b-256 hash from the provided data
func Blake2b256Hash(data []byte) Blake2b256 {
	tmpHash, err := blake2b.New(Blake2b256Size, nil)
	if err != nil {
		panic(
			fmt.Sprintf(
				"unexpected error generating empty blake2b hash: %s",
				err,
			),
		)
	}
	tmpHash.Write(data)
	return Blake2b256(tmpHash.Sum(nil))
}

type Blake2b224 [Blake2b224Size]byte

func NewBlake2b224(data []byte) Blake2b224 {
	b := Blake2b224{}
	copy(b[:], data)
	return b
}

func (b Blake2b224) String() string {
	return hex.EncodeToString(b[:])
}

func (b Blake2b224) Bytes() []byte {
	return b[:]
}

func (b Blake2b224) Bech32(prefix string) string {
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(b[:], 8, 5, true)
	if err != nil {
		panic(
			fmt.Sprintf("unexpected error converting data to base32: %s", err),
		)
	}
	encoded, err := bech32.Encode(prefix, convData)
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding data as bech32: %s", err))
	}
	return encoded
}

// Blake2b224Hash generates a Blake2b-224 hash from the provided data
func Blake2b224Hash(data []byte) Blake2b224 {
	tmpHash, err := blake2b.New(Blake2b224Size, nil)
	if err != nil {
		panic(
			fmt.Sprintf(
				"unexpected error generating empty blake2b hash: %s",
				err,
			),
		)
	}
	tmpHash.Write(data)
	return Blake2b224(tmpHash.Sum(nil))
}

type (
	ScriptHash   = Blake2b224
	KeyHash      = Blake2b224
	PolicyId     = Blake2b224
	DatumHash    = Blake2b256
	TxHash       = Blake2b256
	PoolKeyHash  = Blake2b224
	VrfKeyHash   = Blake2b256
	MetadataHash = Blake2b256
)

// decodeHexHash decodes a hex string that must be exactly size bytes long
func decodeHexHash(value string, size int) ([]byte, error) {
	if len(value) != size*2 {
		return nil, fmt.Errorf(
			"expected %d hex characters, got %d",
			size*2,
			len(value),
		)
	}
	ret, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return ret, nil
}

// ParseBlake2b224 parses a 56 character hex string, as used for key hashes, script hashes and policy IDs
func ParseBlake2b224(value string) (Blake2b224, error) {
	tmpBytes, err := decodeHexHash(value, Blake2b224Size)
	if err != nil {
		return Blake2b224{}, err
	}
	return NewBlake2b224(tmpBytes), nil
}

// ParseBlake2b256 parses a 64 character hex string, as used for transaction IDs and datum hashes
func ParseBlake2b256(value string) (Blake2b256, error) {
	tmpBytes, err := decodeHexHash(value, Blake2b256Size)
	if err != nil {
		return Blake2b256{}, err
	}
	return NewBlake2b256(tmpBytes), nil
}
