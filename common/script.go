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
	"errors"
	"fmt"
	"slices"

	"github.com/rober-m/mesh/cbor"
)

// ScriptLanguage values double as the script hash prefix tags
type ScriptLanguage uint8

const (
	ScriptLanguageNative   ScriptLanguage = 0
	ScriptLanguagePlutusV1 ScriptLanguage = 1
	ScriptLanguagePlutusV2 ScriptLanguage = 2
	ScriptLanguagePlutusV3 ScriptLanguage = 3
)

func (l ScriptLanguage) String() string {
	switch l {
	case ScriptLanguageNative:
		return "Native"
	case ScriptLanguagePlutusV1:
		return "PlutusV1"
	case ScriptLanguagePlutusV2:
		return "PlutusV2"
	case ScriptLanguagePlutusV3:
		return "PlutusV3"
	default:
		return fmt.Sprintf("ScriptLanguage(%d)", uint8(l))
	}
}

func (l ScriptLanguage) IsPlutus() bool {
	return l >= ScriptLanguagePlutusV1 && l <= ScriptLanguagePlutusV3
}

func (l ScriptLanguage) Valid() bool {
	return l <= ScriptLanguagePlutusV3
}

// Script holds script code as CBOR hex. Plutus scripts use the text envelope
// "cborHex" form, native scripts use the native script CBOR
type Script struct {
	Language ScriptLanguage
	Code     string
}

// Bytes returns the script bytes as they are hashed and placed in the witness set
func (s Script) Bytes() ([]byte, error) {
	if !s.Language.Valid() {
		return nil, InvalidScriptError{
			Language: s.Language,
			Err:      errors.New("unknown script language"),
		}
	}
	if s.Code == "" {
		return nil, InvalidScriptError{
			Language: s.Language,
			Err:      errors.New("script code is empty"),
		}
	}
	rawCode, err := hex.DecodeString(s.Code)
	if err != nil {
		return nil, InvalidScriptError{Language: s.Language, Err: err}
	}
	if s.Language == ScriptLanguageNative {
		var tmpScript NativeScript
		if err := cbor.DecodeFull(rawCode, &tmpScript); err != nil {
			return nil, InvalidScriptError{Language: s.Language, Err: err}
		}
		return rawCode, nil
	}
	inner, err := cbor.UnwrapByteString(rawCode)
	if err != nil {
		return nil, InvalidScriptError{Language: s.Language, Err: err}
	}
	// Text envelopes double-wrap the flat program. When only a single layer
	// is present, the code already is the ledger form
	if cbor.MajorType(inner) == cbor.CborTypeByteString {
		return inner, nil
	}
	return rawCode, nil
}

// Hash returns the script hash, blake2b-224 over the language tag and the script bytes
func (s Script) Hash() (ScriptHash, error) {
	scriptBytes, err := s.Bytes()
	if err != nil {
		return ScriptHash{}, err
	}
	return Blake2b224Hash(
		slices.Concat(
			[]byte{byte(s.Language)},
			scriptBytes,
		),
	), nil
}

// Size returns the length of the script bytes, as counted against reference script fees
func (s Script) Size() (int, error) {
	scriptBytes, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	return len(scriptBytes), nil
}

// RefTxIn identifies a transaction output by (txHash, txIndex)
type RefTxIn struct {
	TxHash  string
	TxIndex uint32
}

func (r RefTxIn) String() string {
	return fmt.Sprintf("%s#%d", r.TxHash, r.TxIndex)
}

// Validate checks that the transaction hash is 64 hex characters
func (r RefTxIn) Validate() error {
	if _, err := ParseBlake2b256(r.TxHash); err != nil {
		return InvalidTxInputError{
			TxHash:  r.TxHash,
			TxIndex: int(r.TxIndex),
			Reason:  err.Error(),
		}
	}
	return nil
}

// Compare orders references by transaction hash, then by output index
func (r RefTxIn) Compare(other RefTxIn) int {
	if r.TxHash < other.TxHash {
		return -1
	}
	if r.TxHash > other.TxHash {
		return 1
	}
	switch {
	case r.TxIndex < other.TxIndex:
		return -1
	case r.TxIndex > other.TxIndex:
		return 1
	}
	return 0
}

// ScriptSource is either script code provided with the transaction or a
// reference to a script already stored in a UTxO
type ScriptSource interface {
	isScriptSource()
}

type ProvidedScriptSource struct {
	Script Script
}

type InlineScriptSource struct {
	TxHash             string
	TxIndex            uint32
	Language           ScriptLanguage
	SpendingScriptHash string
	ScriptSize         uint64
}

func (ProvidedScriptSource) isScriptSource() {}
func (InlineScriptSource) isScriptSource()   {}

func (s InlineScriptSource) Ref() RefTxIn {
	return RefTxIn{TxHash: s.TxHash, TxIndex: s.TxIndex}
}

// ScriptSourceLanguage returns the declared language of a script source
func ScriptSourceLanguage(source ScriptSource) (ScriptLanguage, bool) {
	switch s := source.(type) {
	case ProvidedScriptSource:
		return s.Script.Language, true
	case *ProvidedScriptSource:
		if s == nil {
			return 0, false
		}
		return s.Script.Language, true
	case InlineScriptSource:
		return s.Language, true
	case *InlineScriptSource:
		if s == nil {
			return 0, false
		}
		return s.Language, true
	}
	return 0, false
}
