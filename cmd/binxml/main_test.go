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
	eb "encoding/binary"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/binaryxml/core/assert"
	"github.com/google/binaryxml/core/log"
	"github.com/google/binaryxml/core/os/android/binaryxml"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

const none = 0xffffffff

func le(values ...interface{}) []byte {
	buf := bytes.Buffer{}
	for _, v := range values {
		eb.Write(&buf, eb.LittleEndian, v)
	}
	return buf.Bytes()
}

func chunk(ty uint16, header, payload []byte) []byte {
	return append(le(ty, uint16(8+len(header)), uint32(8+len(header)+len(payload))), append(header, payload...)...)
}

func node(ty uint16, line uint32, body ...interface{}) []byte {
	return chunk(ty, le(line, uint32(none)), le(body...))
}

func element(line, name uint32, attrs ...[]byte) []byte {
	body := le(uint32(none), name, uint16(20), uint16(20), uint16(len(attrs)), uint16(0), uint16(0), uint16(0))
	return chunk(0x0102, le(line, uint32(none)), append(body, bytes.Join(attrs, nil)...))
}

func stringAttr(ns, name, value uint32) []byte {
	return le(ns, name, value, uint16(8), uint8(0), uint8(3), value)
}

// testManifest is
//
//	<manifest xmlns:android="..." platformBuildVersionName="8.1.0">
//	  <application android:label="Demo"/>
//	</manifest>
func testManifest() []byte {
	strs := []string{"label", "android", binaryxml.AndroidNamespace, "manifest", "application", "Demo",
		"platformBuildVersionName", "8.1.0"}
	offsets, data := []byte{}, []byte{}
	for _, s := range strs {
		offsets = append(offsets, le(uint32(len(data)))...)
		units := utf16.Encode([]rune(s))
		data = append(data, le(uint16(len(units)), units, uint16(0))...)
	}
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	pool := chunk(0x0001, le(uint32(len(strs)), uint32(0), uint32(0), uint32(28+4*len(strs)), uint32(0)),
		append(offsets, data...))
	return chunk(0x0003, nil, bytes.Join([][]byte{
		pool,
		chunk(0x0180, nil, le(uint32(0x01010001))),
		node(0x0100, 1, uint32(1), uint32(2)),
		element(1, 3, stringAttr(none, 6, 7)),
		element(2, 4, stringAttr(2, 0, 5)),
		node(0x0103, 2, uint32(none), uint32(4)),
		node(0x0103, 3, uint32(none), uint32(3)),
		node(0x0101, 3, uint32(1), uint32(2)),
	}, nil))
}

func writeManifest(t *testing.T) (string, []byte) {
	data := testManifest()
	path := filepath.Join(t.TempDir(), "AndroidManifest.xml")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func TestDump(t *testing.T) {
	ctx := log.Testing(t)
	path, _ := writeManifest(t)
	out := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"dump", path}, &out)).Succeeded()
	assert.For(t, "xml").ThatString(out.String()).Contains(`android:label="Demo"`)
}

func TestTrace(t *testing.T) {
	ctx := log.Testing(t)
	path, data := writeManifest(t)
	out := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"trace", path}, &out)).Succeeded()
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.For(t, "lines").ThatSlice(lines).IsLength(9)
	assert.For(t, "outer").ThatString(lines[0]).Equals(fmt.Sprintf("Xml, chunkSize: %d, position: 0", len(data)))
	assert.For(t, "pool").ThatString(lines[1]).HasPrefix("StringPool, chunkSize: ")
	assert.For(t, "pool").ThatString(lines[1]).Contains(", position: 8")
}

func TestRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	path, data := writeManifest(t)
	target := filepath.Join(t.TempDir(), "out.xml")
	out := bytes.Buffer{}
	err := run(ctx, []string{"roundtrip", "--out", target, path}, &out)
	assert.For(t, "err").ThatError(err).Succeeded()

	written, err := ioutil.ReadFile(target)
	assert.For(t, "err").ThatError(err).Succeeded()
	assert.For(t, "output").ThatSlice(written).Equals(data)
	digest := fmt.Sprintf("%x", blake3.Sum256(data))
	assert.For(t, "digests").ThatInteger(strings.Count(out.String(), digest)).Equals(2)
}

func TestExport(t *testing.T) {
	ctx := log.Testing(t)
	path, _ := writeManifest(t)

	yamlOut := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"export", path}, &yamlOut)).Succeeded()
	fromYAML := exportDocument{}
	assert.For(t, "yaml").ThatError(yaml.Unmarshal(yamlOut.Bytes(), &fromYAML)).Succeeded()

	cborOut := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"export", "--format", "cbor", path}, &cborOut)).Succeeded()
	fromCBOR := exportDocument{}
	assert.For(t, "cbor").ThatError(cbor.Unmarshal(cborOut.Bytes(), &fromCBOR)).Succeeded()

	for _, doc := range []exportDocument{fromYAML, fromCBOR} {
		assert.For(t, "name").ThatString(doc.PlatformBuildVersionName).Equals("8.1.0")
		assert.For(t, "resources").ThatSlice(doc.Resources).Equals([]uint32{0x01010001})
		assert.For(t, "root").ThatString(doc.Root.Name).Equals("manifest")
		assert.For(t, "namespaces").ThatSlice(doc.Root.Namespaces).Equals([]exportNamespace{{"android", binaryxml.AndroidNamespace}})
		assert.For(t, "children").ThatSlice(doc.Root.Children).IsLength(1)
		app := doc.Root.Children[0].Element
		assert.For(t, "application").ThatString(app.Name).Equals("application")
		assert.For(t, "label").That(app.Attributes[0]).Equals(exportAttribute{
			Namespace:  binaryxml.AndroidNamespace,
			Name:       "label",
			ResourceID: 0x01010001,
			Type:       "String",
			Data:       5,
			Raw:        "Demo",
			Text:       "Demo",
		})
	}

	again := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"export", "--format=cbor", path}, &again)).Succeeded()
	assert.For(t, "deterministic").ThatSlice(again.Bytes()).Equals(cborOut.Bytes())

	err := run(ctx, []string{"export", "--format", "json", path}, &bytes.Buffer{})
	assert.For(t, "bad format").ThatError(err).Failed()
}

func TestDebuggable(t *testing.T) {
	ctx := log.Testing(t)
	path, _ := writeManifest(t)
	target := filepath.Join(t.TempDir(), "debuggable.xml")
	err := run(ctx, []string{"debuggable", path, target}, &bytes.Buffer{})
	assert.For(t, "err").ThatError(err).Succeeded()

	out := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"dump", target}, &out)).Succeeded()
	assert.For(t, "xml").ThatString(out.String()).Contains(`android:debuggable="true"`)
}

func TestInfo(t *testing.T) {
	ctx := log.Testing(t)
	path, _ := writeManifest(t)
	out := bytes.Buffer{}
	assert.For(t, "err").ThatError(run(ctx, []string{"info", path}, &out)).Succeeded()
	assert.For(t, "info").ThatString(out.String()).Contains("debuggable:  false")

	target := filepath.Join(t.TempDir(), "debuggable.xml")
	assert.For(t, "err").ThatError(run(ctx, []string{"debuggable", path, target}, &bytes.Buffer{})).Succeeded()
	out.Reset()
	assert.For(t, "err").ThatError(run(ctx, []string{"info", target}, &out)).Succeeded()
	assert.For(t, "info").ThatString(out.String()).Contains("debuggable:  true")
}

func TestInvocationErrorMessages(t *testing.T) {
	ctx := log.Testing(t)
	path, _ := writeManifest(t)
	for _, test := range []struct {
		args []string
		msg  string
	}{
		{[]string{}, "no verb given"},
		{[]string{"frobnicate"}, `unknown verb "frobnicate"`},
		{[]string{"debuggable", path}, "debuggable takes 2 argument(s), got 1"},
		{[]string{"export", "--format", "json", path}, "Exporting document\n   Cause: unknown export format \"json\""},
	} {
		err := run(ctx, test.args, &bytes.Buffer{})
		assert.For(t, "%v", test.args).ThatError(err).HasMessage(test.msg)
	}
}

func TestBadInvocations(t *testing.T) {
	ctx := log.Testing(t)
	path, _ := writeManifest(t)
	for _, args := range [][]string{
		{},
		{"frobnicate"},
		{"dump"},
		{"debuggable", path},
		{"dump", filepath.Join(t.TempDir(), "missing.xml")},
	} {
		err := run(ctx, args, &bytes.Buffer{})
		assert.For(t, "%v", args).ThatError(err).Failed()
	}
}
