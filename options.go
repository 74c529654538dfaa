// Copyright 2023 Blink Labs Software
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

package mesh

import (
	"log/slog"

	"github.com/rober-m/mesh/common"
	"github.com/rober-m/mesh/rules"
)

// TxBuilderOptionFunc is a type that represents functions that modify the TxBuilder config
type TxBuilderOptionFunc func(*TxBuilder)

// WithLogger specifies the logger to use. If none is provided, slog.Default() is used
func WithLogger(logger *slog.Logger) TxBuilderOptionFunc {
	return func(b *TxBuilder) {
		b.logger = logger
	}
}

// WithChainStateProvider specifies the provider used to look up inline
// script and datum references and the value of unhinted inputs. Without one,
// inline references are left for the ledger to resolve
func WithChainStateProvider(provider common.ChainStateProvider) TxBuilderOptionFunc {
	return func(b *TxBuilder) {
		b.provider = provider
	}
}

// WithFeeEstimator specifies the source of the fee that balancing must cover.
// The default is a zero fee
func WithFeeEstimator(feeEstimator common.FeeEstimator) TxBuilderOptionFunc {
	return func(b *TxBuilder) {
		b.feeEstimator = feeEstimator
	}
}

// WithNetwork specifies the network. Output, change and reward addresses are
// checked against it when set
func WithNetwork(network Network) TxBuilderOptionFunc {
	return func(b *TxBuilder) {
		b.network = &network
	}
}

// WithResolverParallelism specifies the maximum number of concurrent
// chain-state lookups. Lookups are sequential by default
func WithResolverParallelism(parallelism int) TxBuilderOptionFunc {
	return func(b *TxBuilder) {
		b.resolverParallelism = parallelism
	}
}

// WithValidationRules replaces the rules run at the start of Finalize
func WithValidationRules(validationRules []rules.RuleFunc) TxBuilderOptionFunc {
	return func(b *TxBuilder) {
		b.validationRules = validationRules
	}
}
