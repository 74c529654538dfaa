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
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/rober-m/mesh/cbor"
)

const (
	ed25519SeedSize        = 32
	ed25519ExtendedKeySize = 64
	// Extended private key, public key and chain code
	ed25519BIP32KeySize = 128

	ed25519PublicKeySize = 32
)

// SigningKey is an ed25519 signing key in text envelope cborHex form. Both
// normal (32 byte) and extended (64 or 128 byte) keys are accepted
type SigningKey string

func (k SigningKey) rawKey() ([]byte, error) {
	cborData, err := hex.DecodeString(string(k))
	if err != nil {
		return nil, err
	}
	ret, err := cbor.UnwrapByteString(cborData)
	if err != nil {
		return nil, err
	}
	switch len(ret) {
	case ed25519SeedSize, ed25519ExtendedKeySize, ed25519BIP32KeySize:
	default:
		return nil, fmt.Errorf("unexpected signing key length %d", len(ret))
	}
	return ret, nil
}

// VerificationKey derives the ed25519 public key
func (k SigningKey) VerificationKey() ([]byte, error) {
	rawKey, err := k.rawKey()
	if err != nil {
		return nil, err
	}
	var scalarBytes []byte
	if len(rawKey) == ed25519SeedSize {
		// Derive secret scalar from SHA512(seed)[0:32] with clamping, per RFC 8032
		// #nosec G401 -- SHA-512 is required by RFC 8032
		h := sha512.Sum512(rawKey)
		scalarBytes = h[:32]
	} else {
		// Extended keys carry the already clamped scalar in the first 32 bytes
		scalarBytes = rawKey[:32]
	}
	xScalar := edwards25519.NewScalar()
	if _, err := xScalar.SetBytesWithClamping(scalarBytes); err != nil {
		return nil, err
	}
	Y := (&edwards25519.Point{}).ScalarBaseMult(xScalar)
	publicKey := Y.Bytes()
	if len(rawKey) == ed25519BIP32KeySize {
		embedded := rawKey[ed25519ExtendedKeySize : ed25519ExtendedKeySize+ed25519PublicKeySize]
		if !bytes.Equal(embedded, publicKey) {
			return nil, errors.New("embedded public key does not match private key")
		}
	}
	return publicKey, nil
}

// VerificationKeyHash returns the blake2b-224 hash of the public key, as used
// in required signers and payment credentials
func (k SigningKey) VerificationKeyHash() (KeyHash, error) {
	publicKey, err := k.VerificationKey()
	if err != nil {
		return KeyHash{}, err
	}
	return Blake2b224Hash(publicKey), nil
}
