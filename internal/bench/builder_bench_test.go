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

package bench

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rober-m/mesh"
	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/internal/test"
	"github.com/rober-m/mesh/provider"
	"github.com/rober-m/mesh/resolver"
	"github.com/rober-m/mesh/selection"
)

// benchSink prevents compiler dead-code elimination in benchmarks.
var benchSink any

var poolSizes = []int{16, 256, 4096}

// BenchmarkSelect benchmarks balancing against candidate pools of increasing size.
func BenchmarkSelect(b *testing.B) {
	for _, size := range poolSizes {
		pool := CandidatePool(size)
		req := selection.Request{
			Inputs: []common.TxInput{
				common.PubKeyTxIn{
					TxIn: common.TxInParameter{
						TxHash: test.TxHash('a'),
						Amount: []common.Asset{common.Lovelace(1_000_000)},
					},
				},
			},
			Outputs: []common.Output{
				{
					Address: test.TestnetBaseAddress,
					Amount: []common.Asset{
						common.Lovelace(40_000_000),
						{Unit: test.PolicyIdA + test.AssetNameToken, Quantity: "30"},
					},
				},
			},
			ExtraInputs:   pool,
			Threshold:     1_000_000_000_000,
			Fee:           200_000,
			ChangeAddress: test.TestnetEnterpriseAddress,
		}
		b.Run(fmt.Sprintf("Pool_%d", size), func(b *testing.B) {
			// Pre-validate that selection succeeds before measuring
			if _, err := selection.Select(context.Background(), req, nil); err != nil {
				b.Fatalf("Select failed: %v", err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				benchSink, _ = selection.Select(context.Background(), req, nil)
			}
		})
	}
}

// BenchmarkFinalize benchmarks finalizing each draft scenario.
func BenchmarkFinalize(b *testing.B) {
	pool := CandidatePool(256)
	stateProvider := BenchProvider(pool)
	for _, scenario := range ScenarioNames() {
		b.Run("Scenario_"+scenario, func(b *testing.B) {
			opts := []mesh.TxBuilderOptionFunc{
				mesh.WithChainStateProvider(stateProvider),
				mesh.WithFeeEstimator(common.StaticFee(200_000)),
			}
			if _, err := MustNewDraft(scenario, pool, opts...).Finalize(context.Background()); err != nil {
				b.Fatalf("Finalize failed for %s: %v", scenario, err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				builder := MustNewDraft(scenario, pool, opts...)
				b.StartTimer()
				benchSink, _ = builder.Finalize(context.Background())
			}
		})
	}
}

// slowProvider adds a fixed latency to every lookup
type slowProvider struct {
	common.ChainStateProvider
	latency time.Duration
}

func (p slowProvider) ScriptByRef(ctx context.Context, ref common.RefTxIn) (common.Script, error) {
	time.Sleep(p.latency)
	return p.ChainStateProvider.ScriptByRef(ctx, ref)
}

func (p slowProvider) DatumByRef(ctx context.Context, ref common.RefTxIn) (common.BuilderData, error) {
	time.Sleep(p.latency)
	return p.ChainStateProvider.DatumByRef(ctx, ref)
}

// BenchmarkResolve benchmarks inline reference resolution against a provider
// with lookup latency, sequentially and in parallel.
func BenchmarkResolve(b *testing.B) {
	pool := CandidatePool(32)
	for idx := range pool {
		pool[idx].Output.PlutusData = test.UnitDatumCbor
	}
	stateProvider := slowProvider{
		ChainStateProvider: provider.NewStaticProvider(pool...),
		latency:            100 * time.Microsecond,
	}
	var reqs []resolver.Request
	for idx, utxo := range pool {
		reqs = append(
			reqs,
			resolver.DatumRequest(
				fmt.Sprintf("input %d", idx),
				common.InlineDatumSource{TxHash: utxo.Input.TxHash, TxIndex: utxo.Input.TxIndex},
			),
		)
	}
	for _, parallelism := range []int{1, 4, 16} {
		r := resolver.New(
			resolver.WithChainStateProvider(stateProvider),
			resolver.WithParallelism(parallelism),
		)
		b.Run(fmt.Sprintf("Parallelism_%d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				benchSink, _ = r.Resolve(context.Background(), reqs)
			}
		})
	}
}

// BenchmarkCachedProvider benchmarks repeated UTxO lookups through the cache.
func BenchmarkCachedProvider(b *testing.B) {
	pool := CandidatePool(256)
	p, err := provider.NewCachedProvider(provider.NewStaticProvider(pool...))
	if err != nil {
		b.Fatalf("NewCachedProvider failed: %v", err)
	}
	defer p.Close()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchSink, _ = p.UtxoByRef(context.Background(), pool[i%len(pool)].Input)
	}
}
