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

import "github.com/google/binaryxml/core/fault"

// Errors returned by the codec. Returned errors carry context; compare
// against these with errors.Cause.
const (
	// ErrTruncatedStream is returned when a length field promises more bytes
	// than are available.
	ErrTruncatedStream = fault.Const("Truncated stream")
	// ErrInvalidChunkHeader is returned for a malformed chunk envelope.
	ErrInvalidChunkHeader = fault.Const("Invalid chunk header")
	// ErrStringIndexOutOfRange is returned when a string pool offset or a
	// string reference falls outside the pool.
	ErrStringIndexOutOfRange = fault.Const("String index out of range")
	// ErrUnboundNamespace is returned when an element or attribute uses a
	// namespace URI that no open namespace declares.
	ErrUnboundNamespace = fault.Const("Unbound namespace")
	// ErrUnbalancedTag is returned when an end chunk does not match the
	// innermost open element or namespace.
	ErrUnbalancedTag = fault.Const("Unbalanced tag")
	// ErrUnterminatedDocument is returned when the document ends with open
	// elements or namespaces.
	ErrUnterminatedDocument = fault.Const("Unterminated document")
	// ErrUnknownRootChunk is returned when the outermost chunk is not an XML
	// document chunk.
	ErrUnknownRootChunk = fault.Const("Unknown root chunk")
	// ErrUnsupportedValueType is returned when a typed value cannot be
	// converted to or from its text form.
	ErrUnsupportedValueType = fault.Const("Unsupported value type")
	// ErrElementNotFound is returned when an edit targets an element the
	// document does not contain.
	ErrElementNotFound = fault.Const("Element not found")
)
