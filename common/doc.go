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

// Package common contains the value types shared by the transaction builder
// packages: inputs, outputs, scripts and their sources, datums, redeemers,
// mint declarations, certificates, metadata, addresses and the error types
// returned while finalizing a transaction body.
//
// Sum types (TxInput, ScriptSource, DatumSource, BuilderData, Certificate)
// are sealed interfaces. Code consuming them switches over every variant.
package common
