// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binaryxml

import (
	"bytes"

	"github.com/google/binaryxml/core/data/binary"
)

type xmlAttributeList []xmlAttribute

func (l xmlAttributeList) forName(s stringPoolRef) (*xmlAttribute, bool) {
	for idx, at := range l {
		if at.name.stringPoolIndex() == s.stringPoolIndex() {
			return &l[idx], true
		}
	}
	return nil, false
}

func (l xmlAttributeList) xml(ctx *xmlContext) string {
	b := bytes.Buffer{}
	for _, a := range l {
		b.WriteRune('\n')
		b.WriteString(ctx.margin(2))
		b.WriteString(a.xml(ctx))
	}
	return b.String()
}

type xmlAttribute struct {
	namespace  stringPoolRef
	name       stringPoolRef
	rawValue   stringPoolRef
	typedValue typedValue
}

// text returns the value of the attribute as it would appear in textual XML.
func (a xmlAttribute) text() string {
	if s, err := a.typedValue.resolve(); err == nil {
		return s
	}
	return a.rawValue.get()
}

func (a xmlAttribute) xml(ctx *xmlContext) string {
	return ctx.qualify(a.namespace, a.name) + `="` + escape(a.text()) + `"`
}

const xmlAttributeSize = 20

func (a *xmlAttribute) decode(r binary.Reader, root *xmlTree) error {
	a.namespace = root.decodeString(r)
	a.name = root.decodeString(r)
	a.rawValue = root.decodeString(r)
	if err := r.Error(); err != nil {
		return err
	}
	typedValue, err := decodeValue(r, root)
	a.typedValue = typedValue
	return err
}

func (a *xmlAttribute) encode(w binary.Writer) {
	a.namespace.encode(w)
	a.name.encode(w)
	a.rawValue.encode(w)
	a.typedValue.encode(w)
}

// resourceID returns the resource id mapped to the attribute name, or
// 0xffffffff if it has none.
func (a *xmlAttribute) resourceID(xml *xmlTree) uint32 {
	if id, ok := xml.resourceMap.idAt(a.name.stringPoolIndex()); ok {
		return id
	}
	return 0xffffffff
}

// less orders attributes the way aapt2 does: by resource id, then by name.
func (a *xmlAttribute) less(b *xmlAttribute, xml *xmlTree) bool {
	r1, r2 := a.resourceID(xml), b.resourceID(xml)
	return r1 < r2 || ((r1 == r2) && a.name.get() < b.name.get())
}
