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

package log

import (
	"bytes"
)

// Style provides customization for printing messages.
type Style struct {
	// Name of the style.
	Name string
	// Timestamp prefixes the message with its time.
	Timestamp bool
	// Tag prints the message tag, if any.
	Tag bool
	// Severity prints the short form of the message severity.
	Severity bool
}

var (
	// Brief prints only the message text.
	Brief = Style{Name: "brief"}

	// Normal prints the severity, tag and message text.
	Normal = Style{Name: "normal", Tag: true, Severity: true}

	// Detailed prints everything Normal does with a leading timestamp.
	Detailed = Style{Name: "detailed", Timestamp: true, Tag: true, Severity: true}
)

// Print returns the message m printed using the style s.
func (s Style) Print(m *Message) string {
	b := bytes.Buffer{}
	if s.Timestamp {
		b.WriteString(m.Time.Format("15:04:05.000"))
		b.WriteRune(' ')
	}
	if s.Severity {
		b.WriteString(m.Severity.Short())
		b.WriteString(": ")
	}
	if s.Tag && m.Tag != "" {
		b.WriteRune('[')
		b.WriteString(m.Tag)
		b.WriteString("] ")
	}
	b.WriteString(m.Text)
	return b.String()
}

func (s Style) String() string { return s.Name }
