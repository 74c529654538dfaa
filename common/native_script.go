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
	"fmt"

	"github.com/rober-m/mesh/cbor"
)

const (
	NativeScriptTypePubkey           = 0
	NativeScriptTypeAll              = 1
	NativeScriptTypeAny              = 2
	NativeScriptTypeNofK             = 3
	NativeScriptTypeInvalidBefore    = 4
	NativeScriptTypeInvalidHereafter = 5
)

type NativeScript struct {
	item any
}

func (n *NativeScript) Item() any {
	return n.item
}

func (n *NativeScript) UnmarshalCBOR(data []byte) error {
	id, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return err
	}
	var tmpData any
	switch id {
	case NativeScriptTypePubkey:
		tmpData = &NativeScriptPubkey{}
	case NativeScriptTypeAll:
		tmpData = &NativeScriptAll{}
	case NativeScriptTypeAny:
		tmpData = &NativeScriptAny{}
	case NativeScriptTypeNofK:
		tmpData = &NativeScriptNofK{}
	case NativeScriptTypeInvalidBefore:
		tmpData = &NativeScriptInvalidBefore{}
	case NativeScriptTypeInvalidHereafter:
		tmpData = &NativeScriptInvalidHereafter{}
	default:
		return fmt.Errorf("unknown native script type %d", id)
	}
	if _, err := cbor.Decode(data, tmpData); err != nil {
		return err
	}
	n.item = tmpData
	return nil
}

// KeyHashes returns every key hash referenced anywhere in the script, in script order
func (n *NativeScript) KeyHashes() []KeyHash {
	var ret []KeyHash
	switch item := n.item.(type) {
	case *NativeScriptPubkey:
		ret = append(ret, NewBlake2b224(item.Hash))
	case *NativeScriptAll:
		for i := range item.Scripts {
			ret = append(ret, item.Scripts[i].KeyHashes()...)
		}
	case *NativeScriptAny:
		for i := range item.Scripts {
			ret = append(ret, item.Scripts[i].KeyHashes()...)
		}
	case *NativeScriptNofK:
		for i := range item.Scripts {
			ret = append(ret, item.Scripts[i].KeyHashes()...)
		}
	}
	return ret
}

type NativeScriptPubkey struct {
	cbor.StructAsArray
	Type uint
	Hash []byte
}

type NativeScriptAll struct {
	cbor.StructAsArray
	Type    uint
	Scripts []NativeScript
}

type NativeScriptAny struct {
	cbor.StructAsArray
	Type    uint
	Scripts []NativeScript
}

type NativeScriptNofK struct {
	cbor.StructAsArray
	Type    uint
	N       uint
	Scripts []NativeScript
}

type NativeScriptInvalidBefore struct {
	cbor.StructAsArray
	Type uint
	Slot uint64
}

type NativeScriptInvalidHereafter struct {
	cbor.StructAsArray
	Type uint
	Slot uint64
}
