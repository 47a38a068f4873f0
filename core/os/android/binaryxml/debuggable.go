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

	"github.com/google/binaryxml/core/log"
	"github.com/pkg/errors"
)

func startElementVisitor(path string, f func(*xmlContext, *xmlStartElement)) chunkVisitor {
	return func(ctx *xmlContext, c chunk, when int) {
		xse, ok := c.(*xmlStartElement)
		if ok && when == afterContextChange && ctx.path() == path {
			f(ctx, xse)
		}
	}
}

// SetApplicationDebuggable sets android:debuggable="true" under the
// <application/> element of the manifest. It fails with ErrElementNotFound if
// the manifest has no application element.
func (d *Document) SetApplicationDebuggable() error {
	id, ok := d.attrs.ID("debuggable")
	if !ok {
		id, _ = AndroidAttributes.ID("debuggable")
	}
	return d.editElement("manifest/application", func(ctx *xmlContext, xse *xmlStartElement) error {
		if _, ok := ctx.prefixFor(AndroidNamespace); !ok {
			return errors.Wrap(ErrUnboundNamespace, "manifest does not declare the android namespace")
		}
		refDebuggable, err := d.tree.ensureAttributeNameMapsToResource(id, "debuggable")
		if err != nil {
			return err
		}

		debuggable := typedValue{ty: TypeIntBoolean, data: boolTrue, str: invalidStringPoolRef}
		if at, ok := xse.attributes.forName(refDebuggable); ok {
			at.typedValue = debuggable
			if at.rawValue.isValid() {
				at.rawValue = d.tree.pool().ref("true")
			}
		} else {
			xse.addAttribute(&xmlAttribute{
				namespace:  d.tree.pool().ref(AndroidNamespace),
				name:       refDebuggable,
				rawValue:   invalidStringPoolRef,
				typedValue: debuggable,
			})
		}
		return nil
	})
}

// SetDebuggableFlag takes a Reader that produces a manifest binary xml,
// modifies it to set android:debuggable="true" under the <application/> element
// and writes it to the provided Writer.
func SetDebuggableFlag(ctx context.Context, r io.Reader, w io.Writer) error {
	doc, err := Read(ctx, r, nil)
	if err != nil {
		return err
	}
	if err := doc.SetApplicationDebuggable(); err != nil {
		return log.Err(ctx, err, "Modifying manifest")
	}
	return doc.Write(ctx, w, nil)
}
