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

package test

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Fixed fixtures shared by tests across packages
const (
	// Base address (payment key 0x11..., stake key 0x22...) on mainnet
	MainnetBaseAddress = "addr1qyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyfzyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3qd5sgwv"
	// Same credentials on testnet
	TestnetBaseAddress = "addr_test1qqg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyfzyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3qwzdgzn"
	// Enterprise address with payment key 0x33...
	TestnetEnterpriseAddress = "addr_test1vqenxvenxvenxvenxvenxvenxvenxvenxvenxvenxvenxvc9myyf9"
	// Enterprise address with payment script 0x44...
	TestnetScriptAddress = "addr_test1wpzyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3qa9lxew"
	// Reward address for stake key 0x22...
	TestnetRewardAddress = "stake_test1uq3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zygsw4fsh7"

	PaymentKeyHash = "11111111111111111111111111111111111111111111111111111111"
	StakeKeyHash   = "22222222222222222222222222222222222222222222222222222222"
	PoolKeyHashHex = "55555555555555555555555555555555555555555555555555555555"
	// bech32 form of PoolKeyHashHex
	PoolIdBech32 = "pool1242424242424242424242424242424242424242424242xxqj2t"
	// PoolKeyHashHex encoded with a stake prefix instead of a pool prefix
	NotPoolIdBech32 = "stake1242424242424242424242424242424242424242424242fp2ldu"

	PolicyIdA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	PolicyIdB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	// "token" in hex
	AssetNameToken = "746f6b656e"

	// Native script requiring a signature from key hash 0x33...
	NativeScriptCbor = "8200581c33333333333333333333333333333333333333333333333333333333"
	NativeScriptHash = "c78b7b4b696fffb06ba43034b2ddb692c43a88ea824ddfdf455b9372"
	// Always succeeding Plutus script in text envelope form
	PlutusScriptCbor   = "4e4d01000033222220051200120011"
	PlutusV2ScriptHash = "793f8c8cffba081b2a56462fc219cc8fe652d6a338b62c7b134876e7"
	PlutusV3ScriptHash = "4fff649fb4372ec3c408b6f0468d74e4d319904cde27fd3f00910a52"

	// Constr 0 []
	UnitDatumCbor = "d87980"
	UnitDatumHash = "923918e403bf43c34b4ef6b48eb2ee04babed17320d8d1b9ff9ad086e86f44ec"

	// RFC 8032 test vector 1 seed in cborHex form, and the hash of its public key
	SigningKeyCbor      = "58209d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	SigningKeyPublicKey = "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"
	SigningKeyHash      = "35dedd2982a03cf39e7dce03c839994ffdec2ec6b04f1cf2d40e61a3"
)

// TxHash returns a 64 character transaction hash made of the given hex digit
func TxHash(digit byte) string {
	return strings.Repeat(string(digit), 64)
}

// DecodeHexString is a helper function for tests that decodes hex strings. It doesn't return
// an error value, which makes it usable inline.
func DecodeHexString(hexData string) []byte {
	// Strip off any leading/trailing whitespace in hex string
	hexData = strings.TrimSpace(hexData)
	decoded, err := hex.DecodeString(hexData)
	if err != nil {
		panic(fmt.Sprintf("error decoding hex: %s", err))
	}
	return decoded
}
