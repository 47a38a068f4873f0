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

// AndroidNamespace is the URI bound to the android: prefix.
const AndroidNamespace = "http://schemas.android.com/apk/res/android"

// AttributeTable maps well-known attribute names to their resource ids. A
// table is immutable once built.
type AttributeTable struct {
	byName map[string]uint32
	byID   map[uint32]string
}

// NewAttributeTable builds a table from a name to resource id map.
func NewAttributeTable(ids map[string]uint32) *AttributeTable {
	t := &AttributeTable{
		byName: make(map[string]uint32, len(ids)),
		byID:   make(map[uint32]string, len(ids)),
	}
	for name, id := range ids {
		t.byName[name] = id
		t.byID[id] = name
	}
	return t
}

// ID returns the resource id of the attribute name.
func (t *AttributeTable) ID(name string) (uint32, bool) {
	if t == nil {
		return 0, false
	}
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the attribute name of the resource id.
func (t *AttributeTable) Name(id uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.byID[id]
	return name, ok
}

// AndroidAttributes holds the framework attributes commonly found in
// manifests. The ids are from android.R.attr.
var AndroidAttributes = NewAttributeTable(map[string]uint32{
	"theme":                     0x01010000,
	"label":                     0x01010001,
	"icon":                      0x01010002,
	"name":                      0x01010003,
	"permission":                0x01010006,
	"debuggable":                0x0101000f,
	"exported":                  0x01010010,
	"screenOrientation":         0x0101001e,
	"configChanges":             0x0101001f,
	"value":                     0x01010024,
	"resource":                  0x01010025,
	"minSdkVersion":             0x0101020c,
	"versionCode":               0x0101021b,
	"versionName":               0x0101021c,
	"targetSdkVersion":          0x01010270,
	"allowBackup":               0x01010280,
	"compileSdkVersion":         0x01010572,
	"compileSdkVersionCodename": 0x01010573,
})
