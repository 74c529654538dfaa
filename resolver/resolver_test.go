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

package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/internal/test"
	test_provider "github.com/rober-m/mesh/internal/test/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var (
	nativeScript = common.Script{
		Language: common.ScriptLanguageNative,
		Code:     test.NativeScriptCbor,
	}
	plutusV2Script = common.Script{
		Language: common.ScriptLanguagePlutusV2,
		Code:     test.PlutusScriptCbor,
	}
)

func TestResolveScript(t *testing.T) {
	var nilProvided *common.ProvidedScriptSource
	var nilInline *common.InlineScriptSource
	testCases := []struct {
		name       string
		source     common.ScriptSource
		origin     Origin
		hash       string
		wantErrAs  any
		wantNoHash bool
	}{
		{
			name:   "ProvidedNative",
			source: common.ProvidedScriptSource{Script: nativeScript},
			origin: OriginProvided,
			hash:   test.NativeScriptHash,
		},
		{
			name:   "ProvidedPlutusPointer",
			source: &common.ProvidedScriptSource{Script: plutusV2Script},
			origin: OriginProvided,
			hash:   test.PlutusV2ScriptHash,
		},
		{
			name: "Inline",
			source: common.InlineScriptSource{
				TxHash:   test.TxHash('a'),
				TxIndex:  1,
				Language: common.ScriptLanguagePlutusV2,
			},
			origin:     OriginInline,
			wantNoHash: true,
		},
		{
			name: "InlineWithSpendingHash",
			source: common.InlineScriptSource{
				TxHash:             test.TxHash('a'),
				Language:           common.ScriptLanguagePlutusV2,
				SpendingScriptHash: test.PlutusV2ScriptHash,
			},
			origin: OriginInline,
			hash:   test.PlutusV2ScriptHash,
		},
		{
			name:      "Nil",
			source:    nil,
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "NilProvidedPointer",
			source:    nilProvided,
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "NilInlinePointer",
			source:    nilInline,
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "ProvidedWithoutCode",
			source:    common.ProvidedScriptSource{},
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "InlineWithoutReference",
			source:    common.InlineScriptSource{Language: common.ScriptLanguagePlutusV2},
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "InlineBadHash",
			source:    common.InlineScriptSource{TxHash: "abcd"},
			wantErrAs: &common.InvalidTxInputError{},
		},
		{
			name: "InlineUnknownLanguage",
			source: common.InlineScriptSource{
				TxHash:   test.TxHash('a'),
				Language: common.ScriptLanguage(9),
			},
			wantErrAs: &common.ScriptLanguageError{},
		},
		{
			name: "InlineBadSpendingHash",
			source: common.InlineScriptSource{
				TxHash:             test.TxHash('a'),
				Language:           common.ScriptLanguagePlutusV2,
				SpendingScriptHash: "abcd",
			},
			wantErrAs: &common.InvalidScriptError{},
		},
		{
			name: "ProvidedGarbage",
			source: common.ProvidedScriptSource{
				Script: common.Script{Language: common.ScriptLanguageNative, Code: "zz"},
			},
			wantErrAs: &common.InvalidScriptError{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved, err := ResolveScript("test", tc.source)
			if tc.wantErrAs != nil {
				require.Error(t, err)
				assert.ErrorAs(t, err, tc.wantErrAs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.origin, resolved.Origin)
			if tc.origin == OriginProvided {
				assert.NotNil(t, resolved.Script)
				assert.Nil(t, resolved.Ref)
				assert.NotZero(t, resolved.Size)
			} else {
				assert.Nil(t, resolved.Script)
				require.NotNil(t, resolved.Ref)
				assert.Equal(t, test.TxHash('a'), resolved.Ref.TxHash)
			}
			if tc.wantNoHash {
				assert.Nil(t, resolved.Hash)
			} else {
				require.NotNil(t, resolved.Hash)
				assert.Equal(t, tc.hash, resolved.Hash.String())
			}
		})
	}
}

func TestResolveDatum(t *testing.T) {
	var nilInline *common.InlineDatumSource
	testCases := []struct {
		name      string
		source    common.DatumSource
		origin    Origin
		wantErrAs any
	}{
		{
			name: "ProvidedCbor",
			source: common.ProvidedDatumSource{
				Data: common.CBORData{Content: test.UnitDatumCbor},
			},
			origin: OriginProvided,
		},
		{
			name: "ProvidedPointer",
			source: &common.ProvidedDatumSource{
				Data: common.CBORData{Content: test.UnitDatumCbor},
			},
			origin: OriginProvided,
		},
		{
			name:   "Inline",
			source: common.InlineDatumSource{TxHash: test.TxHash('b'), TxIndex: 2},
			origin: OriginInline,
		},
		{
			name:      "Nil",
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "NilInlinePointer",
			source:    nilInline,
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "ProvidedWithoutData",
			source:    common.ProvidedDatumSource{},
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name:      "InlineWithoutReference",
			source:    common.InlineDatumSource{},
			wantErrAs: &common.AmbiguousSourceError{},
		},
		{
			name: "ProvidedInvalidCbor",
			source: common.ProvidedDatumSource{
				Data: common.CBORData{Content: "ff"},
			},
			wantErrAs: &common.InvalidDataError{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved, err := ResolveDatum("test", tc.source)
			if tc.wantErrAs != nil {
				require.Error(t, err)
				assert.ErrorAs(t, err, tc.wantErrAs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.origin, resolved.Origin)
			if tc.origin == OriginProvided {
				require.NotNil(t, resolved.Hash)
				assert.Equal(t, test.UnitDatumHash, resolved.Hash.String())
				assert.Equal(t, test.DecodeHexString(test.UnitDatumCbor), resolved.Cbor)
				assert.Nil(t, resolved.Ref)
			} else {
				assert.Nil(t, resolved.Hash)
				require.NotNil(t, resolved.Ref)
				assert.Equal(t, uint32(2), resolved.Ref.TxIndex)
			}
		})
	}
}

func inlineRequests() []Request {
	scriptRef := common.InlineScriptSource{
		TxHash:   test.TxHash('a'),
		TxIndex:  0,
		Language: common.ScriptLanguagePlutusV2,
	}
	return []Request{
		ScriptRequest("input 0", scriptRef),
		DatumRequest("input 0", common.InlineDatumSource{TxHash: test.TxHash('b')}),
		ScriptRequest("input 1", scriptRef),
		ScriptRequest("mint 0", common.ProvidedScriptSource{Script: nativeScript}),
	}
}

func newMockProvider() *test_provider.MockChainStateProvider {
	return &test_provider.MockChainStateProvider{
		Scripts: map[common.RefTxIn]common.Script{
			{TxHash: test.TxHash('a')}: plutusV2Script,
		},
		Datums: map[common.RefTxIn]common.BuilderData{
			{TxHash: test.TxHash('b')}: common.CBORData{Content: test.UnitDatumCbor},
		},
	}
}

func TestResolverWithoutProvider(t *testing.T) {
	results, err := New().Resolve(context.Background(), inlineRequests())
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Nil(t, results[0].Script.Script)
	assert.Equal(t, OriginInline, results[0].Script.Origin)
	assert.Nil(t, results[1].Datum.Data)
	assert.Equal(t, OriginProvided, results[3].Script.Origin)
}

func TestResolverFetch(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("Parallelism%d", parallelism), func(t *testing.T) {
			defer goleak.VerifyNone(t)
			provider := newMockProvider()
			r := New(
				WithChainStateProvider(provider),
				WithParallelism(parallelism),
			)
			results, err := r.Resolve(context.Background(), inlineRequests())
			require.NoError(t, err)
			require.Len(t, results, 4)
			for _, idx := range []int{0, 2} {
				res := results[idx].Script
				assert.Equal(t, OriginInline, res.Origin)
				require.NotNil(t, res.Script)
				require.NotNil(t, res.Hash)
				assert.Equal(t, test.PlutusV2ScriptHash, res.Hash.String())
			}
			datum := results[1].Datum
			assert.Equal(t, OriginInline, datum.Origin)
			require.NotNil(t, datum.Hash)
			assert.Equal(t, test.UnitDatumHash, datum.Hash.String())
			// Each distinct reference is fetched once
			assert.Equal(t, 1, provider.Calls("script", common.RefTxIn{TxHash: test.TxHash('a')}))
			assert.Equal(t, 1, provider.Calls("datum", common.RefTxIn{TxHash: test.TxHash('b')}))
			assert.Equal(t, 2, provider.TotalCalls())
		})
	}
}

func TestResolverProviderErrors(t *testing.T) {
	cause := errors.New("connection refused")
	unavailable := common.ProviderUnavailableError{Err: cause}
	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("Parallelism%d", parallelism), func(t *testing.T) {
			defer goleak.VerifyNone(t)
			t.Run("Unavailable", func(t *testing.T) {
				provider := newMockProvider()
				provider.ScriptByRefFunc = func(context.Context, common.RefTxIn) (common.Script, error) {
					return common.Script{}, unavailable
				}
				_, err := New(
					WithChainStateProvider(provider),
					WithParallelism(parallelism),
				).Resolve(context.Background(), inlineRequests())
				assert.Equal(t, unavailable, err)
				assert.ErrorIs(t, err, common.ErrProviderUnavailable)
			})
			t.Run("NotFound", func(t *testing.T) {
				provider := &test_provider.MockChainStateProvider{}
				_, err := New(
					WithChainStateProvider(provider),
					WithParallelism(parallelism),
				).Resolve(context.Background(), inlineRequests())
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrNotFound)
				// The earliest reference is reported
				var notFound common.NotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, "script", notFound.Kind)
				assert.Equal(t, test.TxHash('a'), notFound.TxHash)
			})
		})
	}
}

func TestResolverFetchedContentChecks(t *testing.T) {
	t.Run("LanguageMismatch", func(t *testing.T) {
		provider := newMockProvider()
		provider.Scripts[common.RefTxIn{TxHash: test.TxHash('a')}] = nativeScript
		_, err := New(WithChainStateProvider(provider)).
			Resolve(context.Background(), inlineRequests())
		var langErr common.ScriptLanguageError
		require.ErrorAs(t, err, &langErr)
		assert.Equal(t, "input 0", langErr.Element)
	})
	t.Run("HashMismatch", func(t *testing.T) {
		reqs := []Request{
			ScriptRequest("input 0", common.InlineScriptSource{
				TxHash:             test.TxHash('a'),
				Language:           common.ScriptLanguagePlutusV2,
				SpendingScriptHash: test.PlutusV3ScriptHash,
			}),
		}
		_, err := New(WithChainStateProvider(newMockProvider())).
			Resolve(context.Background(), reqs)
		var scriptErr common.InvalidScriptError
		assert.ErrorAs(t, err, &scriptErr)
	})
	t.Run("NilDatum", func(t *testing.T) {
		provider := newMockProvider()
		provider.DatumByRefFunc = func(context.Context, common.RefTxIn) (common.BuilderData, error) {
			return nil, nil
		}
		_, err := New(WithChainStateProvider(provider)).
			Resolve(context.Background(), inlineRequests())
		var dataErr common.InvalidDataError
		assert.ErrorAs(t, err, &dataErr)
	})
}

func TestResolverNormalizationFailsBeforeFetch(t *testing.T) {
	provider := newMockProvider()
	reqs := append(inlineRequests(), DatumRequest("input 2", nil))
	_, err := New(WithChainStateProvider(provider)).Resolve(context.Background(), reqs)
	var ambiguous common.AmbiguousSourceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "input 2", ambiguous.Element)
	assert.Equal(t, 0, provider.TotalCalls())
}

func TestResolverCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := newMockProvider()
	_, err := New(WithChainStateProvider(provider)).Resolve(ctx, inlineRequests())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.TotalCalls())
}
