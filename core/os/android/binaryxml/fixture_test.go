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
	eb "encoding/binary"
	"unicode/utf16"
)

// The helpers below assemble binary XML byte by byte, independently of the
// encoder, in the layout aapt2 produces.

const none = 0xffffffff

type bytesOut struct{ bytes.Buffer }

func (b *bytesOut) u8(v uint8) *bytesOut { b.WriteByte(v); return b }
func (b *bytesOut) u16(v uint16) *bytesOut {
	var tmp [2]byte
	eb.LittleEndian.PutUint16(tmp[:], v)
	b.Write(tmp[:])
	return b
}
func (b *bytesOut) u32(v uint32) *bytesOut {
	var tmp [4]byte
	eb.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
	return b
}
func (b *bytesOut) raw(p ...[]byte) *bytesOut {
	for _, d := range p {
		b.Write(d)
	}
	return b
}

func rawChunk(ty uint16, header, payload []byte) []byte {
	b := &bytesOut{}
	b.u16(ty).u16(uint16(8 + len(header))).u32(uint32(8 + len(header) + len(payload)))
	return b.raw(header, payload).Bytes()
}

func poolChunk(utf8 bool, strs ...string) []byte {
	data := &bytesOut{}
	offsets := &bytesOut{}
	for _, s := range strs {
		offsets.u32(uint32(data.Len()))
		if utf8 {
			data.u8(uint8(len(utf16.Encode([]rune(s))))).u8(uint8(len(s))).raw([]byte(s)).u8(0)
		} else {
			units := utf16.Encode([]rune(s))
			data.u16(uint16(len(units)))
			for _, u := range units {
				data.u16(u)
			}
			data.u16(0)
		}
	}
	for data.Len()%4 != 0 {
		data.u8(0)
	}
	flags := uint32(0)
	if utf8 {
		flags = 0x100
	}
	header := (&bytesOut{}).u32(uint32(len(strs))).u32(0).u32(flags).u32(uint32(28 + 4*len(strs))).u32(0)
	return rawChunk(0x0001, header.Bytes(), append(offsets.Bytes(), data.Bytes()...))
}

func resourceMapChunk(ids ...uint32) []byte {
	b := &bytesOut{}
	for _, id := range ids {
		b.u32(id)
	}
	return rawChunk(0x0180, nil, b.Bytes())
}

func nodeHeader(line uint32) []byte {
	return (&bytesOut{}).u32(line).u32(none).Bytes()
}

func startNamespaceChunk(line, prefix, uri uint32) []byte {
	return rawChunk(0x0100, nodeHeader(line), (&bytesOut{}).u32(prefix).u32(uri).Bytes())
}

func endNamespaceChunk(line, prefix, uri uint32) []byte {
	return rawChunk(0x0101, nodeHeader(line), (&bytesOut{}).u32(prefix).u32(uri).Bytes())
}

func attr(ns, name, raw uint32, ty uint8, data uint32) []byte {
	return (&bytesOut{}).u32(ns).u32(name).u32(raw).u16(8).u8(0).u8(ty).u32(data).Bytes()
}

func startElementChunk(line, ns, name uint32, attrs ...[]byte) []byte {
	b := &bytesOut{}
	b.u32(ns).u32(name).u16(20).u16(20).u16(uint16(len(attrs))).u16(0).u16(0).u16(0)
	b.raw(attrs...)
	return rawChunk(0x0102, nodeHeader(line), b.Bytes())
}

func endElementChunk(line, ns, name uint32) []byte {
	return rawChunk(0x0103, nodeHeader(line), (&bytesOut{}).u32(ns).u32(name).Bytes())
}

func cdataChunk(line, text uint32) []byte {
	return rawChunk(0x0104, nodeHeader(line), (&bytesOut{}).u32(text).u16(8).u8(0).u8(0).u32(0).Bytes())
}

func xmlChunk(children ...[]byte) []byte {
	return rawChunk(0x0003, nil, bytes.Join(children, nil))
}

// Indices into manifestStrings.
const (
	sVersionCode = iota
	sVersionName
	sMinSdkVersion
	sLabel
	sTheme
	sConfigChanges
	sAndroid
	sAndroidURI
	sPackage
	sPlatformBuildVersionCode
	sPlatformBuildVersionName
	sManifest
	sPackageName
	sVersionNameValue
	sCodeValue
	sNameValue
	sUsesSdk
	sApplication
	sMainTheme
	sActivity
	sExample
)

var manifestStrings = []string{
	"versionCode",
	"versionName",
	"minSdkVersion",
	"label",
	"theme",
	"configChanges",
	"android",
	"http://schemas.android.com/apk/res/android",
	"package",
	"platformBuildVersionCode",
	"platformBuildVersionName",
	"manifest",
	"com.example.app",
	"1.0",
	"27",
	"8.1.0",
	"uses-sdk",
	"application",
	"MainTheme",
	"activity",
	"Example",
}

var manifestResources = []uint32{
	0x0101021b, 0x0101021c, 0x0101020c, 0x01010001, 0x01010000, 0x0101001f,
}

// manifestNodes returns the node chunks of the test manifest:
//
//	<manifest xmlns:android="..." android:versionCode="1" android:versionName="1.0"
//	    package="com.example.app" platformBuildVersionCode="27" platformBuildVersionName="8.1.0">
//	  <uses-sdk android:minSdkVersion="21"/>
//	  <application android:label="Example" android:theme="MainTheme">
//	    <activity android:theme="MainTheme" android:configChanges="orientation|screenSize"/>
//	  </application>
//	</manifest>
func manifestNodes() [][]byte {
	return [][]byte{
		startNamespaceChunk(1, sAndroid, sAndroidURI),
		startElementChunk(1, none, sManifest,
			attr(sAndroidURI, sVersionCode, none, 0x10, 1),
			attr(sAndroidURI, sVersionName, sVersionNameValue, 0x03, sVersionNameValue),
			attr(none, sPackage, sPackageName, 0x03, sPackageName),
			attr(none, sPlatformBuildVersionCode, sCodeValue, 0x03, sCodeValue),
			attr(none, sPlatformBuildVersionName, sNameValue, 0x03, sNameValue),
		),
		startElementChunk(2, none, sUsesSdk, attr(sAndroidURI, sMinSdkVersion, none, 0x10, 21)),
		endElementChunk(2, none, sUsesSdk),
		startElementChunk(3, none, sApplication,
			attr(sAndroidURI, sLabel, sExample, 0x03, sExample),
			attr(sAndroidURI, sTheme, sMainTheme, 0x03, sMainTheme),
		),
		startElementChunk(4, none, sActivity,
			attr(sAndroidURI, sTheme, sMainTheme, 0x03, sMainTheme),
			attr(sAndroidURI, sConfigChanges, none, 0x11, 1152),
		),
		endElementChunk(4, none, sActivity),
		endElementChunk(5, none, sApplication),
		endElementChunk(6, none, sManifest),
		endNamespaceChunk(6, sAndroid, sAndroidURI),
	}
}

func manifestWith(utf8 bool, nodes [][]byte) []byte {
	children := [][]byte{
		poolChunk(utf8, manifestStrings...),
		resourceMapChunk(manifestResources...),
	}
	return xmlChunk(append(children, nodes...)...)
}

func manifest(utf8 bool) []byte {
	return manifestWith(utf8, manifestNodes())
}

type traceEntry struct {
	Type     string
	Size     uint32
	Position int64
}

func recorder(entries *[]traceEntry) ChunkTracer {
	return func(ty string, size uint32, position int64) {
		*entries = append(*entries, traceEntry{ty, size, position})
	}
}
