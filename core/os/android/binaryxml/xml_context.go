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
	"strings"
)

type xmlContext struct {
	strings *stringPool
	stack   stack
	// pending holds the namespaces started since the last element start. They
	// are declared on the next element.
	pending []*xmlStartNamespace
	indent  int
	tab     string
}

func newXmlContext(strings *stringPool) *xmlContext {
	return &xmlContext{strings: strings, tab: "  "}
}

type stack []chunk

func (s *stack) push(c chunk) {
	*s = append(*s, c)
}
func (s *stack) pop() {
	if len(*s) > 0 {
		*s = (*s)[:len(*s)-1]
	}
}
func (s *stack) head() chunk {
	if len(*s) == 0 {
		return nil
	}
	return (*s)[len(*s)-1]
}

func (c *xmlContext) path() string {
	elems := []string{}
	for _, sc := range c.stack {
		se, ok := sc.(*xmlStartElement)
		if ok {
			elems = append(elems, se.name.get())
		}
	}
	return strings.Join(elems, "/")
}

// prefixFor returns the prefix of the innermost open namespace bound to uri.
func (c *xmlContext) prefixFor(uri string) (string, bool) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if ns, ok := c.stack[i].(*xmlStartNamespace); ok && ns.namespaceURI.get() == uri {
			return ns.namespacePrefix.get(), true
		}
	}
	return "", false
}

// isBound returns true if ref is missing or names the URI of an open namespace.
func (c *xmlContext) isBound(ref stringPoolRef) bool {
	if !ref.isValid() {
		return true
	}
	_, ok := c.prefixFor(ref.get())
	return ok
}

// qualify prefixes name with the prefix bound to the namespace ns.
func (c *xmlContext) qualify(ns, name stringPoolRef) string {
	if !ns.isValid() {
		return name.get()
	}
	if prefix, ok := c.prefixFor(ns.get()); ok && prefix != "" {
		return prefix + ":" + name.get()
	}
	return name.get()
}

func (c *xmlContext) margin(extra int) string {
	return strings.Repeat(c.tab, c.indent+extra)
}

var xmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

func escape(s string) string { return xmlEscaper.Replace(s) }
