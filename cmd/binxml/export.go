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

package main

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/binaryxml/core/os/android/binaryxml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The export model mirrors binaryxml's document tree with serialization tags.

type exportDocument struct {
	PlatformBuildVersionCode string         `yaml:"platformBuildVersionCode,omitempty" cbor:"platformBuildVersionCode,omitempty"`
	PlatformBuildVersionName string         `yaml:"platformBuildVersionName,omitempty" cbor:"platformBuildVersionName,omitempty"`
	Strings                  []string       `yaml:"strings" cbor:"strings"`
	Resources                []uint32       `yaml:"resources,flow" cbor:"resources"`
	Root                     *exportElement `yaml:"root,omitempty" cbor:"root,omitempty"`
}

type exportNamespace struct {
	Prefix string `yaml:"prefix" cbor:"prefix"`
	URI    string `yaml:"uri" cbor:"uri"`
}

type exportAttribute struct {
	Namespace  string `yaml:"namespace,omitempty" cbor:"namespace,omitempty"`
	Name       string `yaml:"name" cbor:"name"`
	ResourceID uint32 `yaml:"resourceId,omitempty" cbor:"resourceId,omitempty"`
	Type       string `yaml:"type" cbor:"type"`
	Data       uint32 `yaml:"data" cbor:"data"`
	Raw        string `yaml:"raw,omitempty" cbor:"raw,omitempty"`
	Text       string `yaml:"text" cbor:"text"`
}

type exportNode struct {
	Element *exportElement `yaml:"element,omitempty" cbor:"element,omitempty"`
	Text    *string        `yaml:"text,omitempty" cbor:"text,omitempty"`
}

type exportElement struct {
	Namespace  string            `yaml:"namespace,omitempty" cbor:"namespace,omitempty"`
	Name       string            `yaml:"name" cbor:"name"`
	Line       uint32            `yaml:"line" cbor:"line"`
	Comment    string            `yaml:"comment,omitempty" cbor:"comment,omitempty"`
	Namespaces []exportNamespace `yaml:"namespaces,omitempty" cbor:"namespaces,omitempty"`
	Attributes []exportAttribute `yaml:"attributes,omitempty" cbor:"attributes,omitempty"`
	Children   []exportNode      `yaml:"children,omitempty" cbor:"children,omitempty"`
}

func newExport(doc *binaryxml.Document) *exportDocument {
	out := &exportDocument{
		PlatformBuildVersionCode: doc.PlatformBuildVersionCode,
		PlatformBuildVersionName: doc.PlatformBuildVersionName,
		Strings:                  doc.Strings(),
		Resources:                doc.Resources(),
	}
	if root := doc.Root(); root != nil {
		out.Root = newExportElement(root)
	}
	return out
}

func newExportElement(e *binaryxml.Element) *exportElement {
	out := &exportElement{
		Namespace: e.Namespace,
		Name:      e.Name,
		Line:      e.Line,
		Comment:   e.Comment,
	}
	for _, ns := range e.Namespaces {
		out.Namespaces = append(out.Namespaces, exportNamespace{ns.Prefix, ns.URI})
	}
	for _, a := range e.Attributes {
		out.Attributes = append(out.Attributes, exportAttribute{
			Namespace:  a.Namespace,
			Name:       a.Name,
			ResourceID: a.ResourceID,
			Type:       a.Value.Type.String(),
			Data:       a.Value.Data,
			Raw:        a.Raw,
			Text:       a.Text,
		})
	}
	for _, n := range e.Children {
		switch n := n.(type) {
		case *binaryxml.Element:
			out.Children = append(out.Children, exportNode{Element: newExportElement(n)})
		case *binaryxml.Text:
			text := n.Data
			out.Children = append(out.Children, exportNode{Text: &text})
		}
	}
	return out
}

var cborMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("binxml: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}()

func encodeExport(doc *exportDocument, format string) ([]byte, error) {
	switch format {
	case "yaml":
		buf := bytes.Buffer{}
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "cbor":
		return cborMode.Marshal(doc)
	default:
		return nil, errors.Errorf("unknown export format %q", format)
	}
}
