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
	"errors"
	"fmt"

	"github.com/rober-m/mesh/common"
)

type Origin uint8

const (
	OriginProvided Origin = 0
	OriginInline   Origin = 1
)

func (o Origin) String() string {
	switch o {
	case OriginProvided:
		return "Provided"
	case OriginInline:
		return "Inline"
	default:
		return fmt.Sprintf("Origin(%d)", uint8(o))
	}
}

// ResolvedScript is a normalized script source. Provided scripts always carry
// Script and Hash. Inline scripts always carry Ref, plus Script once fetched
// from a chain-state provider
type ResolvedScript struct {
	Origin   Origin
	Language common.ScriptLanguage
	Script   *common.Script
	Hash     *common.ScriptHash
	Ref      *common.RefTxIn
	Size     uint64
}

// ResolvedDatum is a normalized datum source. Provided datums always carry
// Data, Cbor and Hash. Inline datums always carry Ref, plus the datum content
// once fetched from a chain-state provider
type ResolvedDatum struct {
	Origin Origin
	Data   common.BuilderData
	Cbor   []byte
	Hash   *common.DatumHash
	Ref    *common.RefTxIn
}

// ResolveScript normalizes a script source without consulting chain state.
// A missing source or one without content or reference fails with
// AmbiguousSourceError
func ResolveScript(
	element string,
	source common.ScriptSource,
) (ResolvedScript, error) {
	switch s := source.(type) {
	case common.ProvidedScriptSource:
		return resolveProvidedScript(element, s)
	case *common.ProvidedScriptSource:
		if s == nil {
			return ResolvedScript{}, noSourceError(element, "script")
		}
		return resolveProvidedScript(element, *s)
	case common.InlineScriptSource:
		return resolveInlineScript(element, s)
	case *common.InlineScriptSource:
		if s == nil {
			return ResolvedScript{}, noSourceError(element, "script")
		}
		return resolveInlineScript(element, *s)
	case nil:
		return ResolvedScript{}, noSourceError(element, "script")
	default:
		return ResolvedScript{}, common.AmbiguousSourceError{
			Element: element,
			Reason:  fmt.Sprintf("unknown script source type %T", source),
		}
	}
}

func resolveProvidedScript(
	element string,
	s common.ProvidedScriptSource,
) (ResolvedScript, error) {
	if s.Script.Code == "" {
		return ResolvedScript{}, common.AmbiguousSourceError{
			Element: element,
			Reason:  "provided script source has no script code",
		}
	}
	hash, err := s.Script.Hash()
	if err != nil {
		return ResolvedScript{}, err
	}
	size, err := s.Script.Size()
	if err != nil {
		return ResolvedScript{}, err
	}
	tmpScript := s.Script
	return ResolvedScript{
		Origin:   OriginProvided,
		Language: s.Script.Language,
		Script:   &tmpScript,
		Hash:     &hash,
		Size:     uint64(size), // #nosec G115
	}, nil
}

func resolveInlineScript(
	element string,
	s common.InlineScriptSource,
) (ResolvedScript, error) {
	if s.TxHash == "" {
		return ResolvedScript{}, common.AmbiguousSourceError{
			Element: element,
			Reason:  "inline script source has no transaction reference",
		}
	}
	ref := s.Ref()
	if err := ref.Validate(); err != nil {
		return ResolvedScript{}, err
	}
	if !s.Language.Valid() {
		return ResolvedScript{}, common.ScriptLanguageError{
			Element:  element,
			Language: s.Language,
			Reason:   "unknown script language",
		}
	}
	ret := ResolvedScript{
		Origin:   OriginInline,
		Language: s.Language,
		Ref:      &ref,
		Size:     s.ScriptSize,
	}
	if s.SpendingScriptHash != "" {
		hash, err := common.ParseBlake2b224(s.SpendingScriptHash)
		if err != nil {
			return ResolvedScript{}, common.InvalidScriptError{
				Language: s.Language,
				Err:      fmt.Errorf("spending script hash: %w", err),
			}
		}
		ret.Hash = &hash
	}
	return ret, nil
}

// ResolveDatum normalizes a datum source without consulting chain state.
// A missing source or one without content or reference fails with
// AmbiguousSourceError
func ResolveDatum(
	element string,
	source common.DatumSource,
) (ResolvedDatum, error) {
	switch s := source.(type) {
	case common.ProvidedDatumSource:
		return resolveProvidedDatum(element, s)
	case *common.ProvidedDatumSource:
		if s == nil {
			return ResolvedDatum{}, noSourceError(element, "datum")
		}
		return resolveProvidedDatum(element, *s)
	case common.InlineDatumSource:
		return resolveInlineDatum(element, s)
	case *common.InlineDatumSource:
		if s == nil {
			return ResolvedDatum{}, noSourceError(element, "datum")
		}
		return resolveInlineDatum(element, *s)
	case nil:
		return ResolvedDatum{}, noSourceError(element, "datum")
	default:
		return ResolvedDatum{}, common.AmbiguousSourceError{
			Element: element,
			Reason:  fmt.Sprintf("unknown datum source type %T", source),
		}
	}
}

func resolveProvidedDatum(
	element string,
	s common.ProvidedDatumSource,
) (ResolvedDatum, error) {
	if s.Data == nil {
		return ResolvedDatum{}, common.AmbiguousSourceError{
			Element: element,
			Reason:  "provided datum source has no data",
		}
	}
	return normalizeDatum(OriginProvided, s.Data, nil)
}

func resolveInlineDatum(
	element string,
	s common.InlineDatumSource,
) (ResolvedDatum, error) {
	if s.TxHash == "" {
		return ResolvedDatum{}, common.AmbiguousSourceError{
			Element: element,
			Reason:  "inline datum source has no transaction reference",
		}
	}
	ref := s.Ref()
	if err := ref.Validate(); err != nil {
		return ResolvedDatum{}, err
	}
	return ResolvedDatum{
		Origin: OriginInline,
		Ref:    &ref,
	}, nil
}

func normalizeDatum(
	origin Origin,
	d common.BuilderData,
	ref *common.RefTxIn,
) (ResolvedDatum, error) {
	cborData, err := common.NormalizeData(d)
	if err != nil {
		return ResolvedDatum{}, err
	}
	hash := common.Blake2b256Hash(cborData)
	return ResolvedDatum{
		Origin: origin,
		Data:   d,
		Cbor:   cborData,
		Hash:   &hash,
		Ref:    ref,
	}, nil
}

func noSourceError(element string, kind string) error {
	return common.AmbiguousSourceError{
		Element: element,
		Reason:  "no " + kind + " source: neither provided content nor inline reference",
	}
}

var errNilResult = errors.New("chain-state provider returned no data")
