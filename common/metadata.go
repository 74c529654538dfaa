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
	"math/big"
	"slices"
	"strconv"
	"unicode/utf8"
)

const (
	maxMetadataDepth      = 64
	maxMetadataTextLength = 64
)

// Metadata is one transaction metadata entry. The tag is a decimal uint64 label
type Metadata struct {
	Tag      string
	Metadata any
}

// Label parses the tag into its numeric label
func (m Metadata) Label() (uint64, error) {
	ret, err := strconv.ParseUint(m.Tag, 10, 64)
	if err != nil {
		return 0, InvalidMetadataError{
			Tag:    m.Tag,
			Reason: "tag is not an unsigned 64-bit integer",
		}
	}
	return ret, nil
}

// Metadatum converts the metadata value into its ledger form
func (m Metadata) Metadatum() (TransactionMetadatum, error) {
	ret, err := toMetadatum(m.Metadata, 0)
	if err != nil {
		return nil, InvalidMetadataError{Tag: m.Tag, Reason: err.Error()}
	}
	return ret, nil
}

type TransactionMetadatum interface {
	isTransactionMetadatum()
	TypeName() string
}

type MetaInt struct{ Value *big.Int }

type MetaBytes struct{ Value []byte }

type MetaText struct{ Value string }

type MetaList struct {
	Items []TransactionMetadatum
}

type MetaPair struct {
	Key   TransactionMetadatum
	Value TransactionMetadatum
}

type MetaMap struct {
	Pairs []MetaPair
}

func (MetaInt) isTransactionMetadatum()   {}
func (MetaBytes) isTransactionMetadatum() {}
func (MetaText) isTransactionMetadatum()  {}
func (MetaList) isTransactionMetadatum()  {}
func (MetaMap) isTransactionMetadatum()   {}

func (m MetaInt) TypeName() string   { return "int" }
func (m MetaBytes) TypeName() string { return "bytes" }
func (m MetaText) TypeName() string  { return "text" }
func (m MetaList) TypeName() string  { return "list" }
func (m MetaMap) TypeName() string   { return "map" }

func toMetadatum(value any, depth int) (TransactionMetadatum, error) {
	if depth >= maxMetadataDepth {
		return nil, errors.New("metadata nesting depth exceeds maximum")
	}
	switch v := value.(type) {
	case nil:
		return nil, errors.New("metadata contains a null value")
	case TransactionMetadatum:
		return v, nil
	case string:
		if !utf8.ValidString(v) {
			return nil, errors.New("metadata contains invalid UTF-8 text")
		}
		if len(v) > maxMetadataTextLength {
			return nil, fmt.Errorf(
				"metadata text exceeds %d byte limit: %d bytes",
				maxMetadataTextLength,
				len(v),
			)
		}
		return MetaText{Value: v}, nil
	case []byte:
		if len(v) > maxMetadataTextLength {
			return nil, fmt.Errorf(
				"metadata byte string exceeds %d byte limit: %d bytes",
				maxMetadataTextLength,
				len(v),
			)
		}
		return MetaBytes{Value: slices.Clone(v)}, nil
	case int:
		return MetaInt{Value: big.NewInt(int64(v))}, nil
	case int32:
		return MetaInt{Value: big.NewInt(int64(v))}, nil
	case int64:
		return MetaInt{Value: big.NewInt(v)}, nil
	case uint:
		return MetaInt{Value: new(big.Int).SetUint64(uint64(v))}, nil
	case uint32:
		return MetaInt{Value: new(big.Int).SetUint64(uint64(v))}, nil
	case uint64:
		return MetaInt{Value: new(big.Int).SetUint64(v)}, nil
	case *big.Int:
		if v == nil {
			return nil, errors.New("metadata contains nil integer value")
		}
		return MetaInt{Value: new(big.Int).Set(v)}, nil
	case []any:
		ret := MetaList{Items: make([]TransactionMetadatum, 0, len(v))}
		for _, item := range v {
			tmpItem, err := toMetadatum(item, depth+1)
			if err != nil {
				return nil, err
			}
			ret.Items = append(ret.Items, tmpItem)
		}
		return ret, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		// Go maps are unordered, so keys are sorted for a stable result
		slices.Sort(keys)
		ret := MetaMap{Pairs: make([]MetaPair, 0, len(v))}
		for _, key := range keys {
			tmpKey, err := toMetadatum(key, depth+1)
			if err != nil {
				return nil, err
			}
			tmpValue, err := toMetadatum(v[key], depth+1)
			if err != nil {
				return nil, err
			}
			ret.Pairs = append(ret.Pairs, MetaPair{Key: tmpKey, Value: tmpValue})
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("unsupported metadata value type %T", value)
	}
}
