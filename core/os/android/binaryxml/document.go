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
	"context"
	"io"
	"io/ioutil"
	"strconv"

	"github.com/google/binaryxml/core/log"
	"github.com/pkg/errors"
)

const (
	platformBuildVersionCodeAttr = "platformBuildVersionCode"
	platformBuildVersionNameAttr = "platformBuildVersionName"
)

// Document is a decoded binary XML document. A Document is not safe for
// concurrent use.
type Document struct {
	tree  *xmlTree
	attrs *AttributeTable

	// PlatformBuildVersionCode and PlatformBuildVersionName are the values of
	// the attributes of the same name on the root element, empty if absent.
	PlatformBuildVersionCode string
	PlatformBuildVersionName string
}

// Read decodes the binary XML document produced by r. trace, if not nil, is
// called for every chunk in stream order.
func Read(ctx context.Context, r io.Reader, trace ChunkTracer) (*Document, error) {
	return ReadWith(ctx, r, trace, AndroidAttributes)
}

// ReadWith is Read using attrs to identify attributes by resource id.
func ReadWith(ctx context.Context, r io.Reader, trace ChunkTracer, attrs *AttributeTable) (*Document, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, log.Err(ctx, err, "Reading binary XML")
	}
	return parse(ctx, data, trace, attrs)
}

// Parse decodes the binary XML document held in data.
func Parse(ctx context.Context, data []byte, trace ChunkTracer) (*Document, error) {
	return parse(ctx, data, trace, AndroidAttributes)
}

func parse(ctx context.Context, data []byte, trace ChunkTracer, attrs *AttributeTable) (*Document, error) {
	tree, err := decodeXmlTree(ctx, data, trace)
	if err != nil {
		return nil, log.Err(ctx, err, "Decoding binary XML")
	}
	d := &Document{tree: tree, attrs: attrs}
	d.refresh()
	return d, nil
}

// refresh derives the platform build version from the root element.
func (d *Document) refresh() {
	d.PlatformBuildVersionCode, d.PlatformBuildVersionName = "", ""
	se, ok := d.tree.rootElement()
	if !ok {
		return
	}
	get := func(name string) string {
		id, _ := d.attrs.ID(name)
		if at, ok := se.attribute(name, id); ok {
			return at.text()
		}
		return ""
	}
	d.PlatformBuildVersionCode = get(platformBuildVersionCodeAttr)
	d.PlatformBuildVersionName = get(platformBuildVersionNameAttr)
}

// Strings returns the string pool in pool order.
func (d *Document) Strings() []string {
	if d.tree.strings == nil {
		return []string{}
	}
	return append([]string{}, d.tree.strings.strings...)
}

// Resources returns the resource ids of the resource map.
func (d *Document) Resources() []uint32 {
	if d.tree.resourceMap == nil {
		return []uint32{}
	}
	return append([]uint32{}, d.tree.resourceMap.ids...)
}

// Root returns the root element of the document, or nil if it has none. The
// returned tree is a copy.
func (d *Document) Root() *Element {
	return buildElements(d.tree)
}

// XML returns the document as indented textual XML.
func (d *Document) XML() string {
	return d.tree.toXmlString()
}

// Encode returns the binary form of the document. trace, if not nil, is called
// for every chunk in output order.
func (d *Document) Encode(trace ChunkTracer) []byte {
	return d.tree.encodeTraced(trace)
}

// Write writes the binary form of the document to w.
func (d *Document) Write(ctx context.Context, w io.Writer, trace ChunkTracer) error {
	if _, err := w.Write(d.Encode(trace)); err != nil {
		return log.Err(ctx, err, "Writing binary XML")
	}
	return nil
}

// Resolve returns the text form of v. String values index the document's
// string pool.
func (d *Document) Resolve(v Value) (string, error) {
	return resolveValue(v, d.tree.strings)
}

// Materialize converts text to a value of the hinted type. String values are
// added to the document's string pool if not already present.
func (d *Document) Materialize(text string, hint ValueType) (Value, error) {
	return materializeValue(text, hint, d.tree.pool())
}

// SetRootAttribute sets the attribute namespace:name of the root element to
// text converted to hint, adding the attribute if the element does not have
// it. Android attributes found in the document's AttributeTable are mapped to
// their resource id.
func (d *Document) SetRootAttribute(namespace, name, text string, hint ValueType) error {
	se, ok := d.tree.rootElement()
	if !ok {
		return errors.Wrap(ErrElementNotFound, "document has no root element")
	}
	return d.editElement(se.name.get(), func(ctx *xmlContext, se *xmlStartElement) error {
		return d.setAttribute(ctx, se, namespace, name, text, hint)
	})
}

// SetPlatformBuildVersion sets the platform build version attributes of the
// root element. Existing attributes keep their value type.
func (d *Document) SetPlatformBuildVersion(code int, name string) error {
	se, ok := d.tree.rootElement()
	if !ok {
		return errors.Wrap(ErrElementNotFound, "document has no root element")
	}
	hint := func(attr string, def ValueType) ValueType {
		if at, ok := se.attribute(attr, 0); ok {
			return at.typedValue.ty
		}
		return def
	}
	codeHint := hint(platformBuildVersionCodeAttr, TypeIntDec)
	nameHint := hint(platformBuildVersionNameAttr, TypeString)
	if err := d.SetRootAttribute("", platformBuildVersionCodeAttr, strconv.Itoa(code), codeHint); err != nil {
		return err
	}
	return d.SetRootAttribute("", platformBuildVersionNameAttr, name, nameHint)
}

// editElement calls edit with the first element at path, in the context
// the element opens.
func (d *Document) editElement(path string, edit func(*xmlContext, *xmlStartElement) error) error {
	found := false
	var err error
	d.tree.visit(startElementVisitor(path, func(ctx *xmlContext, se *xmlStartElement) {
		if found {
			return
		}
		found = true
		err = edit(ctx, se)
	}))
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(ErrElementNotFound, "no element at %s", path)
	}
	d.refresh()
	return nil
}

func (d *Document) setAttribute(ctx *xmlContext, se *xmlStartElement, namespace, name, text string, hint ValueType) error {
	pool := d.tree.pool()
	nsRef := invalidStringPoolRef
	if namespace != "" {
		if _, ok := ctx.prefixFor(namespace); !ok {
			return errors.Wrapf(ErrUnboundNamespace, "attribute %s of <%s> uses namespace %q",
				name, se.name.get(), namespace)
		}
		nsRef = pool.ref(namespace)
	}

	tv, err := newTypedValue(d.tree, text, hint)
	if err != nil {
		return err
	}

	for i := range se.attributes {
		at := &se.attributes[i]
		if at.namespace.get() == namespace && at.name.get() == name {
			if hint == TypeString || at.rawValue.isValid() {
				at.rawValue = pool.ref(text)
			}
			at.typedValue = tv
			return nil
		}
	}

	var nameRef stringPoolRef
	if id, ok := d.attrs.ID(name); ok && namespace == AndroidNamespace {
		if nameRef, err = d.tree.ensureAttributeNameMapsToResource(id, name); err != nil {
			return err
		}
	} else {
		nameRef = d.tree.unmappedRef(name)
	}
	rawValue := invalidStringPoolRef
	if hint == TypeString {
		rawValue = pool.ref(text)
	}
	se.addAttribute(&xmlAttribute{
		namespace:  nsRef,
		name:       nameRef,
		rawValue:   rawValue,
		typedValue: tv,
	})
	return nil
}
