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
	"testing"

	"github.com/google/binaryxml/core/assert"
	"github.com/google/binaryxml/core/log"
)

func TestSettingDebuggableFlag(t *testing.T) {
	ctx := log.Testing(t)
	assert := assert.To(t)
	for _, utf8 := range []bool{false, true} {
		originalData := manifest(utf8)

		doc, err := Parse(ctx, originalData, nil)
		assert.For("err").ThatError(err).Succeeded()
		assert.For("xml").ThatString(doc.XML()).DoesNotContain(`android:debuggable="true"`)

		out := bytes.Buffer{}
		err = SetDebuggableFlag(ctx, bytes.NewReader(originalData), &out)
		assert.For("err").ThatError(err).Succeeded()

		// Make sure we haven't broken the binary representation and that it still parses after the change.
		again, err := Parse(ctx, out.Bytes(), nil)
		assert.For("err").ThatError(err).Succeeded()
		assert.For("xml").ThatString(again.XML()).Contains(`android:debuggable="true"`)
		assert.For("resources").ThatSlice(again.Resources()).Equals(append(append([]uint32{}, manifestResources...), 0x0101000f))
		assert.For("platformBuildVersionName").ThatString(again.PlatformBuildVersionName).Equals("8.1.0")

		app := again.Root().Elements("application")[0]
		debuggable, ok := app.Attribute(AndroidNamespace, "debuggable")
		assert.For("debuggable").ThatBoolean(ok).IsTrue()
		assert.For("value").That(debuggable.Value).Equals(Value{TypeIntBoolean, 0xffffffff})
		assert.For("id").That(debuggable.ResourceID).Equals(uint32(0x0101000f))
		// The resource id of debuggable is above those of label and theme.
		assert.For("last").ThatString(app.Attributes[2].Name).Equals("debuggable")
		theme, _ := app.Attribute(AndroidNamespace, "theme")
		assert.For("theme").ThatString(theme.Text).Equals("MainTheme")

		// Setting the flag again leaves the document unchanged.
		err = again.SetApplicationDebuggable()
		assert.For("err").ThatError(err).Succeeded()
		assert.For("idempotent").ThatSlice(again.Encode(nil)).Equals(out.Bytes())
	}
}

func TestSettingDebuggableFlagNeedsApplication(t *testing.T) {
	ctx := log.Testing(t)
	nodes := manifestNodes()
	noApp := append(append([][]byte{}, nodes[:4]...), nodes[len(nodes)-2:]...)
	doc, err := Parse(ctx, manifestWith(false, noApp), nil)
	assert.For(t, "err").ThatError(err).Succeeded()
	err = doc.SetApplicationDebuggable()
	assert.For(t, "err").ThatError(err).HasCause(ErrElementNotFound)
}
