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

import "time"

// Message is a single log record.
type Message struct {
	// Text is the message text.
	Text string
	// Time is the time the message was logged.
	Time time.Time
	// Severity is the severity of the message.
	Severity Severity
	// StopProcess is true if the message indicates the process should stop.
	StopProcess bool
	// Tag is the optional tag of the logger that produced the message.
	Tag string
}
