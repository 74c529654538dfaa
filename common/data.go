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
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/plutigo/data"
	"github.com/rober-m/mesh/cbor"
)

const (
	BuilderDataFormatMesh = "Mesh"
	BuilderDataFormatJSON = "JSON"
	BuilderDataFormatCBOR = "CBOR"
)

// BuilderData is datum or redeemer content in one of the accepted input forms
type BuilderData interface {
	isBuilderData()
	Format() string
	PlutusData() (data.PlutusData, error)
	Cbor() ([]byte, error)
}

// MeshData holds Plutus data built directly in Go
type MeshData struct {
	Content data.PlutusData
}

// JSONData holds Plutus data in the detailed JSON schema used by cardano-cli
type JSONData struct {
	Content string
}

// CBORData holds Plutus data as CBOR hex. The original bytes are kept as-is
// for hashing
type CBORData struct {
	Content string
}

func (MeshData) isBuilderData() {}
func (JSONData) isBuilderData() {}
func (CBORData) isBuilderData() {}

func (MeshData) Format() string { return BuilderDataFormatMesh }
func (JSONData) Format() string { return BuilderDataFormatJSON }
func (CBORData) Format() string { return BuilderDataFormatCBOR }

func (d MeshData) PlutusData() (data.PlutusData, error) {
	if d.Content == nil {
		return nil, InvalidDataError{
			Format: d.Format(),
			Err:    errors.New("content is empty"),
		}
	}
	return d.Content, nil
}

func (d MeshData) Cbor() ([]byte, error) {
	pd, err := d.PlutusData()
	if err != nil {
		return nil, err
	}
	ret, err := data.Encode(pd)
	if err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	return ret, nil
}

func (d JSONData) PlutusData() (data.PlutusData, error) {
	pd, err := ParseJSONData(d.Content)
	if err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	return pd, nil
}

func (d JSONData) Cbor() ([]byte, error) {
	pd, err := d.PlutusData()
	if err != nil {
		return nil, err
	}
	ret, err := data.Encode(pd)
	if err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	return ret, nil
}

func (d CBORData) PlutusData() (data.PlutusData, error) {
	cborData, err := d.Cbor()
	if err != nil {
		return nil, err
	}
	pd, err := data.Decode(cborData)
	if err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	return pd, nil
}

func (d CBORData) Cbor() ([]byte, error) {
	if d.Content == "" {
		return nil, InvalidDataError{
			Format: d.Format(),
			Err:    errors.New("content is empty"),
		}
	}
	ret, err := hex.DecodeString(d.Content)
	if err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	if err := cbor.Wellformed(ret); err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	return ret, nil
}

// DataHash returns the datum hash of the builder data, blake2b-256 over its CBOR
func DataHash(d BuilderData) (DatumHash, error) {
	cborData, err := d.Cbor()
	if err != nil {
		return DatumHash{}, err
	}
	return Blake2b256Hash(cborData), nil
}

// NormalizeData checks that the builder data decodes to Plutus data and returns its CBOR
func NormalizeData(d BuilderData) ([]byte, error) {
	if d == nil {
		return nil, InvalidDataError{
			Format: "unknown",
			Err:    errors.New("no data"),
		}
	}
	// Decoding the CBOR form catches malformed CBOR hex as well
	if _, err := d.PlutusData(); err != nil {
		return nil, err
	}
	return d.Cbor()
}

// ParseJSONData parses the detailed JSON schema for Plutus data:
// {"constructor": n, "fields": [...]}, {"map": [{"k": ..., "v": ...}]},
// {"list": [...]}, {"int": n} and {"bytes": "hex"}
func ParseJSONData(content string) (data.PlutusData, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.UseNumber()
	var tmpData any
	if err := dec.Decode(&tmpData); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected trailing data after JSON value")
	}
	return jsonToPlutusData(tmpData)
}

func jsonToPlutusData(value any) (data.PlutusData, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", value)
	}
	if constrVal, ok := obj["constructor"]; ok {
		if len(obj) != 2 {
			return nil, errors.New("constructor object must have exactly constructor and fields keys")
		}
		tag, err := jsonUint(constrVal)
		if err != nil {
			return nil, fmt.Errorf("constructor: %w", err)
		}
		fieldsVal, ok := obj["fields"].([]any)
		if !ok {
			return nil, errors.New("constructor fields must be a list")
		}
		fields := make([]data.PlutusData, 0, len(fieldsVal))
		for _, fieldVal := range fieldsVal {
			field, err := jsonToPlutusData(fieldVal)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		return data.NewConstr(tag, fields...), nil
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("expected a single key object, got %d keys", len(obj))
	}
	for key, val := range obj {
		switch key {
		case "int":
			num, ok := val.(json.Number)
			if !ok {
				return nil, fmt.Errorf("int value must be a number, got %T", val)
			}
			tmpInt, ok := new(big.Int).SetString(num.String(), 10)
			if !ok {
				return nil, fmt.Errorf("invalid integer: %s", num.String())
			}
			return data.NewInteger(tmpInt), nil
		case "bytes":
			str, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("bytes value must be a string, got %T", val)
			}
			tmpBytes, err := hex.DecodeString(str)
			if err != nil {
				return nil, fmt.Errorf("bytes: %w", err)
			}
			return data.NewByteString(tmpBytes), nil
		case "list":
			items, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("list value must be a list, got %T", val)
			}
			tmpItems := make([]data.PlutusData, 0, len(items))
			for _, item := range items {
				tmpItem, err := jsonToPlutusData(item)
				if err != nil {
					return nil, err
				}
				tmpItems = append(tmpItems, tmpItem)
			}
			return data.NewList(tmpItems...), nil
		case "map":
			pairs, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("map value must be a list, got %T", val)
			}
			tmpPairs := make([][2]data.PlutusData, 0, len(pairs))
			for _, pair := range pairs {
				pairObj, ok := pair.(map[string]any)
				if !ok || len(pairObj) != 2 {
					return nil, errors.New("map entries must be objects with k and v keys")
				}
				k, err := jsonToPlutusData(pairObj["k"])
				if err != nil {
					return nil, err
				}
				v, err := jsonToPlutusData(pairObj["v"])
				if err != nil {
					return nil, err
				}
				tmpPairs = append(tmpPairs, [2]data.PlutusData{k, v})
			}
			return data.NewMap(tmpPairs), nil
		default:
			return nil, fmt.Errorf("unknown Plutus data key %q", key)
		}
	}
	// Unreachable, the object has exactly one key
	return nil, errors.New("empty JSON object")
}

func jsonUint(value any) (uint, error) {
	num, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
	tmpInt, ok := new(big.Int).SetString(num.String(), 10)
	if !ok || tmpInt.Sign() < 0 || !tmpInt.IsUint64() {
		return 0, fmt.Errorf("expected a non-negative integer, got %s", num.String())
	}
	return uint(tmpInt.Uint64()), nil
}

// Budget is the execution unit estimate for a script invocation
type Budget struct {
	Mem   uint64
	Steps uint64
}

// Redeemer is the argument passed to a Plutus script, with its execution budget
type Redeemer struct {
	Data    BuilderData
	ExUnits Budget
}

// Equal reports whether both redeemers carry the same data and budget. Data is
// compared by its re-encoded CBOR, so the same value given in different forms
// compares equal
func (r *Redeemer) Equal(other *Redeemer) (bool, error) {
	if r == nil || other == nil {
		return r == other, nil
	}
	if r.ExUnits != other.ExUnits {
		return false, nil
	}
	rCbor, err := canonicalCbor(r.Data)
	if err != nil {
		return false, err
	}
	otherCbor, err := canonicalCbor(other.Data)
	if err != nil {
		return false, err
	}
	return bytes.Equal(rCbor, otherCbor), nil
}

func canonicalCbor(d BuilderData) ([]byte, error) {
	if d == nil {
		return nil, InvalidDataError{
			Format: "unknown",
			Err:    errors.New("no data"),
		}
	}
	pd, err := d.PlutusData()
	if err != nil {
		return nil, err
	}
	ret, err := data.Encode(pd)
	if err != nil {
		return nil, InvalidDataError{Format: d.Format(), Err: err}
	}
	return ret, nil
}

// DatumSource is either datum content provided with the transaction or a
// reference to an inline datum stored in a UTxO
type DatumSource interface {
	isDatumSource()
}

type ProvidedDatumSource struct {
	Data BuilderData
}

type InlineDatumSource struct {
	TxHash  string
	TxIndex uint32
}

func (ProvidedDatumSource) isDatumSource() {}
func (InlineDatumSource) isDatumSource()   {}

func (s InlineDatumSource) Ref() RefTxIn {
	return RefTxIn{TxHash: s.TxHash, TxIndex: s.TxIndex}
}
