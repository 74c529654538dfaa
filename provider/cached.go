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

package provider

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/rober-m/mesh/cbor"
	"github.com/rober-m/mesh/common"
)

const (
	DefaultLifeWindow   = 10 * time.Minute
	DefaultCleanWindow  = 5 * time.Minute
	DefaultShards       = 64
	DefaultMaxEntrySize = 16 * 1024
)

// Compile-time check
var _ common.ChainStateProvider = (*CachedProvider)(nil)

// CachedProvider keeps successful lookups of a wrapped ChainStateProvider in
// a bigcache instance. Errors are never cached. Close must be called to stop
// the cache cleanup goroutine
type CachedProvider struct {
	provider     common.ChainStateProvider
	cache        *bigcache.BigCache
	logger       *slog.Logger
	lifeWindow   time.Duration
	cleanWindow  time.Duration
	shards       int
	maxEntrySize int
}

// CachedProviderOptionFunc is a type that represents functions that modify the CachedProvider config
type CachedProviderOptionFunc func(*CachedProvider)

// WithLifeWindow specifies how long an entry stays cached
func WithLifeWindow(lifeWindow time.Duration) CachedProviderOptionFunc {
	return func(p *CachedProvider) {
		p.lifeWindow = lifeWindow
	}
}

// WithCleanWindow specifies how often expired entries are evicted
func WithCleanWindow(cleanWindow time.Duration) CachedProviderOptionFunc {
	return func(p *CachedProvider) {
		p.cleanWindow = cleanWindow
	}
}

// WithShards specifies the number of cache shards. It must be a power of two
func WithShards(shards int) CachedProviderOptionFunc {
	return func(p *CachedProvider) {
		p.shards = shards
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) CachedProviderOptionFunc {
	return func(p *CachedProvider) {
		p.logger = logger
	}
}

// NewCachedProvider wraps provider with a cache
func NewCachedProvider(
	provider common.ChainStateProvider,
	opts ...CachedProviderOptionFunc,
) (*CachedProvider, error) {
	if provider == nil {
		return nil, errors.New("no chain-state provider to wrap")
	}
	p := &CachedProvider{
		provider:     provider,
		lifeWindow:   DefaultLifeWindow,
		cleanWindow:  DefaultCleanWindow,
		shards:       DefaultShards,
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	cacheConfig := bigcache.DefaultConfig(p.lifeWindow)
	cacheConfig.CleanWindow = p.cleanWindow
	cacheConfig.Shards = p.shards
	cacheConfig.MaxEntrySize = p.maxEntrySize
	cacheConfig.Verbose = false
	cache, err := bigcache.New(context.Background(), cacheConfig)
	if err != nil {
		return nil, err
	}
	p.cache = cache
	return p, nil
}

// Close releases the cache
func (p *CachedProvider) Close() error {
	return p.cache.Close()
}

// Len returns the number of cached entries
func (p *CachedProvider) Len() int {
	return p.cache.Len()
}

func (p *CachedProvider) UtxoByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.UTxO, error) {
	key := cacheKey("utxo", ref)
	if entry, ok := p.get(key); ok {
		return entry.Utxo(), nil
	}
	utxo, err := p.provider.UtxoByRef(ctx, ref)
	if err != nil {
		return common.UTxO{}, err
	}
	p.set(key, newUtxoEntry(utxo))
	return utxo, nil
}

func (p *CachedProvider) ScriptByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.Script, error) {
	key := cacheKey("script", ref)
	if entry, ok := p.get(key); ok && entry.Script != nil {
		return entry.Script.Script(), nil
	}
	script, err := p.provider.ScriptByRef(ctx, ref)
	if err != nil {
		return common.Script{}, err
	}
	tmpScript := newScriptEntry(script)
	p.set(key, &cacheEntry{Script: &tmpScript})
	return script, nil
}

func (p *CachedProvider) DatumByRef(
	ctx context.Context,
	ref common.RefTxIn,
) (common.BuilderData, error) {
	key := cacheKey("datum", ref)
	if entry, ok := p.get(key); ok && len(entry.Datum) > 0 {
		return entry.BuilderData(), nil
	}
	datum, err := p.provider.DatumByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	entry, err := newDatumEntry(datum)
	if err != nil {
		// Not cacheable
		return datum, nil
	}
	p.set(key, entry)
	return datum, nil
}

func (p *CachedProvider) get(key string) (*cacheEntry, bool) {
	data, err := p.cache.Get(key)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			p.logger.Warn(
				"failed to read cache entry",
				"component", "provider",
				"key", key,
				"error", err,
			)
		}
		return nil, false
	}
	var entry cacheEntry
	if _, err := cbor.Decode(data, &entry); err != nil {
		p.logger.Warn(
			"dropping undecodable cache entry",
			"component", "provider",
			"key", key,
			"error", err,
		)
		_ = p.cache.Delete(key)
		return nil, false
	}
	return &entry, true
}

func (p *CachedProvider) set(key string, entry *cacheEntry) {
	data, err := cbor.Encode(entry)
	if err == nil {
		err = p.cache.Set(key, data)
	}
	if err != nil {
		p.logger.Warn(
			"failed to cache lookup",
			"component", "provider",
			"key", key,
			"error", err,
		)
	}
}

func cacheKey(kind string, ref common.RefTxIn) string {
	ref.TxHash = strings.ToLower(ref.TxHash)
	return kind + ":" + ref.String()
}
