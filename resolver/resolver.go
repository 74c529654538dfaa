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
	"log/slog"

	"github.com/rober-m/mesh/common"
	"golang.org/x/sync/errgroup"
)

type RequestKind uint8

const (
	RequestKindScript RequestKind = 0
	RequestKindDatum  RequestKind = 1
)

func (k RequestKind) String() string {
	switch k {
	case RequestKindScript:
		return "script"
	case RequestKindDatum:
		return "datum"
	default:
		return fmt.Sprintf("RequestKind(%d)", uint8(k))
	}
}

// Request asks for one script or datum source to be resolved. Element names
// the declaration the source belongs to and is used in errors
type Request struct {
	Kind    RequestKind
	Element string
	Script  common.ScriptSource
	Datum   common.DatumSource
}

// ScriptRequest builds a script resolution request
func ScriptRequest(element string, source common.ScriptSource) Request {
	return Request{
		Kind:    RequestKindScript,
		Element: element,
		Script:  source,
	}
}

// DatumRequest builds a datum resolution request
func DatumRequest(element string, source common.DatumSource) Request {
	return Request{
		Kind:    RequestKindDatum,
		Element: element,
		Datum:   source,
	}
}

// Result holds the resolved form of the Request at the same index
type Result struct {
	Kind   RequestKind
	Script ResolvedScript
	Datum  ResolvedDatum
}

// Ref returns the inline reference of the result, if any
func (r Result) Ref() *common.RefTxIn {
	if r.Kind == RequestKindScript {
		return r.Script.Ref
	}
	return r.Datum.Ref
}

// Resolver normalizes sources and, when a chain-state provider is configured,
// fetches the content behind inline references
type Resolver struct {
	provider    common.ChainStateProvider
	parallelism int
	logger      *slog.Logger
}

// ResolverOptionFunc is a type that represents functions that modify the Resolver config
type ResolverOptionFunc func(*Resolver)

// WithChainStateProvider specifies the provider used to fetch inline references.
// Without one, inline references are left unresolved
func WithChainStateProvider(provider common.ChainStateProvider) ResolverOptionFunc {
	return func(r *Resolver) {
		r.provider = provider
	}
}

// WithParallelism specifies the maximum number of concurrent provider lookups.
// Values below 2 make lookups sequential, which is the default
func WithParallelism(parallelism int) ResolverOptionFunc {
	return func(r *Resolver) {
		r.parallelism = parallelism
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ResolverOptionFunc {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(opts ...ResolverOptionFunc) *Resolver {
	r := &Resolver{
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

type fetchKey struct {
	kind RequestKind
	ref  common.RefTxIn
}

type fetchResult struct {
	script common.Script
	datum  common.BuilderData
}

// Resolve normalizes every request and fetches each distinct inline reference
// once. Results are returned in request order. The first failure aborts
// resolution and no results are returned. Provider errors are returned unchanged
func (r *Resolver) Resolve(ctx context.Context, reqs []Request) ([]Result, error) {
	ret := make([]Result, len(reqs))
	for idx, req := range reqs {
		res, err := normalize(req)
		if err != nil {
			return nil, err
		}
		ret[idx] = res
	}
	if r.provider == nil {
		return ret, nil
	}
	// Distinct references in order of first appearance
	var keys []fetchKey
	seen := make(map[fetchKey]bool)
	for _, res := range ret {
		ref := res.Ref()
		if ref == nil {
			continue
		}
		key := fetchKey{kind: res.Kind, ref: *ref}
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ret, nil
	}
	r.logger.Debug(
		"resolving inline references",
		"component", "resolver",
		"count", len(keys),
		"parallelism", r.parallelism,
	)
	fetched, err := r.fetchAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	// Apply fetched content in request order so the first error is deterministic
	for idx, res := range ret {
		ref := res.Ref()
		if ref == nil {
			continue
		}
		tmpFetched := fetched[fetchKey{kind: res.Kind, ref: *ref}]
		switch res.Kind {
		case RequestKindScript:
			script, err := applyScript(reqs[idx].Element, res.Script, tmpFetched.script)
			if err != nil {
				return nil, err
			}
			ret[idx].Script = script
		case RequestKindDatum:
			datum, err := applyDatum(res.Datum, tmpFetched.datum)
			if err != nil {
				return nil, err
			}
			ret[idx].Datum = datum
		}
	}
	return ret, nil
}

func normalize(req Request) (Result, error) {
	switch req.Kind {
	case RequestKindScript:
		script, err := ResolveScript(req.Element, req.Script)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: req.Kind, Script: script}, nil
	case RequestKindDatum:
		datum, err := ResolveDatum(req.Element, req.Datum)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: req.Kind, Datum: datum}, nil
	default:
		return Result{}, fmt.Errorf("%s: unknown request kind %s", req.Element, req.Kind)
	}
}

func (r *Resolver) fetchAll(
	ctx context.Context,
	keys []fetchKey,
) (map[fetchKey]fetchResult, error) {
	results := make([]fetchResult, len(keys))
	if r.parallelism < 2 {
		for idx, key := range keys {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := r.fetch(ctx, key)
			if err != nil {
				return nil, err
			}
			results[idx] = res
		}
	} else {
		errs := make([]error, len(keys))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.parallelism)
		for idx, key := range keys {
			g.Go(func() error {
				res, err := r.fetch(gctx, key)
				if err != nil {
					errs[idx] = err
					return err
				}
				results[idx] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, firstError(errs, err)
		}
	}
	ret := make(map[fetchKey]fetchResult, len(keys))
	for idx, key := range keys {
		ret[key] = results[idx]
	}
	return ret, nil
}

// firstError picks the failure of the earliest reference, preferring real
// failures over cancellations caused by a sibling failing first
func firstError(errs []error, fallback error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if canceled == nil {
				canceled = err
			}
			continue
		}
		return err
	}
	if canceled != nil {
		return canceled
	}
	return fallback
}

func (r *Resolver) fetch(ctx context.Context, key fetchKey) (fetchResult, error) {
	switch key.kind {
	case RequestKindScript:
		script, err := r.provider.ScriptByRef(ctx, key.ref)
		if err != nil {
			return fetchResult{}, err
		}
		return fetchResult{script: script}, nil
	case RequestKindDatum:
		datum, err := r.provider.DatumByRef(ctx, key.ref)
		if err != nil {
			return fetchResult{}, err
		}
		return fetchResult{datum: datum}, nil
	default:
		return fetchResult{}, fmt.Errorf("unknown request kind %s", key.kind)
	}
}

func applyScript(
	element string,
	resolved ResolvedScript,
	script common.Script,
) (ResolvedScript, error) {
	if script.Language != resolved.Language {
		return ResolvedScript{}, common.ScriptLanguageError{
			Element:  element,
			Language: script.Language,
			Reason: fmt.Sprintf(
				"referenced script at %s is %s but %s was declared",
				resolved.Ref,
				script.Language,
				resolved.Language,
			),
		}
	}
	hash, err := script.Hash()
	if err != nil {
		return ResolvedScript{}, err
	}
	if resolved.Hash != nil && *resolved.Hash != hash {
		return ResolvedScript{}, common.InvalidScriptError{
			Language: script.Language,
			Err: fmt.Errorf(
				"referenced script hash %s does not match declared hash %s",
				hash,
				resolved.Hash,
			),
		}
	}
	size, err := script.Size()
	if err != nil {
		return ResolvedScript{}, err
	}
	resolved.Script = &script
	resolved.Hash = &hash
	resolved.Size = uint64(size) // #nosec G115
	return resolved, nil
}

func applyDatum(resolved ResolvedDatum, datum common.BuilderData) (ResolvedDatum, error) {
	if datum == nil {
		return ResolvedDatum{}, common.InvalidDataError{
			Format: "inline datum",
			Err:    fmt.Errorf("%s: %w", resolved.Ref, errNilResult),
		}
	}
	return normalizeDatum(OriginInline, datum, resolved.Ref)
}
