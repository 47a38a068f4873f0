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

// Node is an Element or a Text.
type Node interface {
	isNode()
}

// Namespace is a prefix binding declared on an element.
type Namespace struct {
	Prefix string
	URI    string
}

// Attribute is an attribute of an element with its value resolved.
type Attribute struct {
	Namespace  string
	Name       string
	ResourceID uint32 // 0 if the name is not mapped to a resource.
	Raw        string // The raw string value, empty if absent.
	Value      Value
	Text       string // The value as it appears in textual XML.
}

// Element is an element of the decoded document.
type Element struct {
	Namespace  string
	Name       string
	Line       uint32
	Comment    string
	Namespaces []Namespace
	Attributes []Attribute
	Children   []Node
}

// Text is character data inside an element.
type Text struct {
	Line uint32
	Data string
}

func (*Element) isNode() {}
func (*Text) isNode()    {}

// Attribute returns the attribute with the given namespace and name.
func (e *Element) Attribute(namespace, name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Namespace == namespace && a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Elements returns the child elements with the given name.
func (e *Element) Elements(name string) []*Element {
	out := []*Element{}
	for _, n := range e.Children {
		if c, ok := n.(*Element); ok && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// buildElements reconstructs the element tree from the flat chunk list. The
// first top level element is returned.
func buildElements(x *xmlTree) *Element {
	var root *Element
	stack := []*Element{}
	pending := []Namespace{}
	for _, c := range x.chunks {
		switch c := c.(type) {
		case *xmlStartNamespace:
			pending = append(pending, Namespace{c.namespacePrefix.get(), c.namespaceURI.get()})
		case *xmlStartElement:
			e := newElement(x, c, pending)
			pending = []Namespace{}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, e)
			} else if root == nil {
				root = e
			}
			stack = append(stack, e)
		case *xmlEndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case *xmlCData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, &Text{Line: c.lineNumber, Data: c.text()})
			}
		}
	}
	return root
}

func newElement(x *xmlTree, c *xmlStartElement, namespaces []Namespace) *Element {
	e := &Element{
		Namespace:  c.namespace.get(),
		Name:       c.name.get(),
		Line:       c.lineNumber,
		Comment:    c.comment.get(),
		Namespaces: namespaces,
		Attributes: make([]Attribute, len(c.attributes)),
		Children:   []Node{},
	}
	for i, at := range c.attributes {
		id, ok := x.resourceMap.idAt(at.name.stringPoolIndex())
		if !ok {
			id = 0
		}
		e.Attributes[i] = Attribute{
			Namespace:  at.namespace.get(),
			Name:       at.name.get(),
			ResourceID: id,
			Raw:        at.rawValue.get(),
			Value:      at.typedValue.value(),
			Text:       at.text(),
		}
	}
	return e
}
