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
	"math/big"
	"testing"

	"github.com/blinklabs-io/plutigo/data"
	"github.com/rober-m/mesh/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDataForms(t *testing.T) {
	meshData := MeshData{
		Content: data.NewConstr(
			1,
			data.NewInteger(big.NewInt(42)),
			data.NewByteString([]byte{0xde, 0xad}),
			data.NewList(data.NewInteger(big.NewInt(-1))),
			data.NewMap(
				[][2]data.PlutusData{
					{
						data.NewByteString(nil),
						data.NewInteger(big.NewInt(7)),
					},
				},
			),
		),
	}
	jsonData := JSONData{
		Content: `{"constructor": 1, "fields": [
			{"int": 42},
			{"bytes": "dead"},
			{"list": [{"int": -1}]},
			{"map": [{"k": {"bytes": ""}, "v": {"int": 7}}]}
		]}`,
	}
	meshCbor, err := meshData.Cbor()
	require.NoError(t, err)
	jsonCbor, err := jsonData.Cbor()
	require.NoError(t, err)
	assert.Equal(t, meshCbor, jsonCbor)
	cborData := CBORData{Content: hex.EncodeToString(meshCbor)}
	cborHash, err := DataHash(cborData)
	require.NoError(t, err)
	meshHash, err := DataHash(meshData)
	require.NoError(t, err)
	assert.Equal(t, meshHash, cborHash)
}

func TestDataHashUsesProvidedCbor(t *testing.T) {
	hash, err := DataHash(CBORData{Content: test.UnitDatumCbor})
	require.NoError(t, err)
	assert.Equal(t, test.UnitDatumHash, hash.String())
}

func TestBigIntegerJSON(t *testing.T) {
	pd, err := ParseJSONData(`{"int": 123456789012345678901234567890}`)
	require.NoError(t, err)
	expected, err := data.Encode(
		data.NewInteger(
			func() *big.Int {
				ret, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
				return ret
			}(),
		),
	)
	require.NoError(t, err)
	actual, err := data.Encode(pd)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestDataHashRejectsMalformedCbor(t *testing.T) {
	// Truncated constructor tag
	_, err := DataHash(CBORData{Content: "d879"})
	var dataErr InvalidDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, BuilderDataFormatCBOR, dataErr.Format)
	// Trailing bytes after the first item
	_, err = DataHash(CBORData{Content: test.UnitDatumCbor + "00"})
	require.ErrorAs(t, err, &dataErr)
}

func TestInvalidBuilderData(t *testing.T) {
	testCases := []struct {
		name string
		data BuilderData
	}{
		{name: "EmptyMesh", data: MeshData{}},
		{name: "EmptyCBOR", data: CBORData{}},
		{name: "BadHexCBOR", data: CBORData{Content: "xyz"}},
		{name: "TruncatedCBOR", data: CBORData{Content: "d879"}},
		{name: "BadJSON", data: JSONData{Content: `{"int": }`}},
		{name: "UnknownJSONKey", data: JSONData{Content: `{"float": 1.5}`}},
		{name: "NegativeConstructor", data: JSONData{Content: `{"constructor": -1, "fields": []}`}},
		{name: "MissingFields", data: JSONData{Content: `{"constructor": 0, "other": []}`}},
		{name: "JSONTrailingData", data: JSONData{Content: `{"int": 1} {"int": 2}`}},
		{name: "BadBytes", data: JSONData{Content: `{"bytes": "0g"}`}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeData(tc.data)
			var dataErr InvalidDataError
			assert.True(t, errors.As(err, &dataErr), "unexpected error: %v", err)
		})
	}
}

func TestRedeemerEqual(t *testing.T) {
	a := &Redeemer{
		Data:    JSONData{Content: `{"int": 42}`},
		ExUnits: Budget{Mem: 1000, Steps: 2000},
	}
	b := &Redeemer{
		Data:    MeshData{Content: data.NewInteger(big.NewInt(42))},
		ExUnits: Budget{Mem: 1000, Steps: 2000},
	}
	c := &Redeemer{
		Data:    MeshData{Content: data.NewInteger(big.NewInt(43))},
		ExUnits: Budget{Mem: 1000, Steps: 2000},
	}
	d := &Redeemer{
		Data:    MeshData{Content: data.NewInteger(big.NewInt(42))},
		ExUnits: Budget{Mem: 1, Steps: 2000},
	}
	equal, err := a.Equal(b)
	require.NoError(t, err)
	assert.True(t, equal)
	equal, err = a.Equal(c)
	require.NoError(t, err)
	assert.False(t, equal)
	equal, err = b.Equal(d)
	require.NoError(t, err)
	assert.False(t, equal)
	var nilRedeemer *Redeemer
	equal, err = nilRedeemer.Equal(nil)
	require.NoError(t, err)
	assert.True(t, equal)
	equal, err = nilRedeemer.Equal(a)
	require.NoError(t, err)
	assert.False(t, equal)
}
