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

package assert_test

import (
	"fmt"
	"testing"

	"github.com/google/binaryxml/core/assert"
	"github.com/pkg/errors"
)

type capture struct{ errors, logs []string }

func (c *capture) Fatal(args ...interface{}) { c.errors = append(c.errors, fmt.Sprint(args...)) }
func (c *capture) Error(args ...interface{}) { c.errors = append(c.errors, fmt.Sprint(args...)) }
func (c *capture) Log(args ...interface{})   { c.logs = append(c.logs, fmt.Sprint(args...)) }

func TestPassingAssertionsAreSilent(t *testing.T) {
	c := &capture{}
	a := assert.To(c)
	a.For("string").ThatString("manifest").Equals("manifest")
	a.For("int").ThatInteger(3).Equals(3)
	a.For("slice").ThatSlice([]uint32{1, 2}).Equals([]uint32{1, 2})
	a.For("bool").ThatBoolean(true).IsTrue()
	a.For("error").ThatError(nil).Succeeded()
	a.For("value").That(uint16(8)).Equals(uint16(8))
	if len(c.errors) != 0 {
		t.Errorf("Unexpected failures: %v", c.errors)
	}
}

func TestFailingAssertionsReport(t *testing.T) {
	c := &capture{}
	a := assert.To(c)
	a.For("string").ThatString("manifest").Equals("manifesto")
	a.For("slice").ThatSlice([]uint32{1}).Equals([]uint32{1, 2})
	a.For("cause").ThatError(errors.Wrap(errors.New("inner"), "outer")).HasCause(nil)
	if len(c.errors) != 3 {
		t.Errorf("Expected 3 failures, got %d: %v", len(c.errors), c.errors)
	}
}
