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

// Package manifest extracts the application model from a decoded
// AndroidManifest.xml document.
package manifest

import (
	"context"
	"strconv"

	"github.com/google/binaryxml/core/fault"
	"github.com/google/binaryxml/core/log"
	"github.com/google/binaryxml/core/os/android/binaryxml"
)

const (
	// ActionMain is the action treated as the main entry point, which does not
	// expect to receive data.
	ActionMain = "android.intent.action.MAIN"

	// CategoryInfo provides information about the package it is in; typically
	// used if a package does not contain a CATEGORY_LAUNCHER to provide a
	// front-door to the user without having to be shown in the all apps list.
	CategoryInfo = "android.intent.category.INFO"

	// CategoryLauncher means the action should be displayed in the top-level
	// launcher.
	CategoryLauncher = "android.intent.category.LAUNCHER"

	ErrNoActivityFound = fault.Const("No suitable activity found")
	ErrNotAManifest    = fault.Const("Root element is not <manifest>")
)

// Manifest represents an APK's AndroidManifest.xml file.
type Manifest struct {
	Package     string
	VersionCode int
	VersionName string
	Application Application
	Features    []Feature
	Permissions []Permission
}

// Application represents an application declared in an APK.
type Application struct {
	Activities []Activity
	Debuggable bool
}

// Activity represents an activity declared in an Application.
type Activity struct {
	Name          string
	IntentFilters []IntentFilter
}

// IntentFilter represents an intent filter declared in an Activity.
type IntentFilter struct {
	Action     Action
	Categories []Category
}

// Action represents an action of an IntentFilter.
type Action struct {
	Name string
}

// Category represents the category of an IntentFilter.
type Category struct {
	Name string
}

// Feature represents a feature used by an APK.
type Feature struct {
	Name        string
	Required    bool
	GlEsVersion string
}

// Permission represents a permission used by an APK.
type Permission struct {
	Name string
}

// FromDocument builds the manifest model from a decoded document.
func FromDocument(ctx context.Context, doc *binaryxml.Document) (Manifest, error) {
	return FromElement(ctx, doc.Root())
}

// FromElement builds the manifest model from the <manifest> element.
func FromElement(ctx context.Context, root *binaryxml.Element) (Manifest, error) {
	if root == nil || root.Name != "manifest" {
		return Manifest{}, log.Err(ctx, ErrNotAManifest, "Reading manifest")
	}
	m := Manifest{
		Package:     text(root, "", "package"),
		VersionName: android(root, "versionName"),
	}
	if a, ok := root.Attribute(binaryxml.AndroidNamespace, "versionCode"); ok {
		code, err := integer(a)
		if err != nil {
			return Manifest{}, log.Err(ctx, err, "Reading versionCode")
		}
		m.VersionCode = code
	}
	for _, app := range root.Elements("application") {
		m.Application.Debuggable = android(app, "debuggable") == "true"
		for _, act := range app.Elements("activity") {
			activity := Activity{Name: android(act, "name")}
			for _, f := range act.Elements("intent-filter") {
				filter := IntentFilter{}
				if actions := f.Elements("action"); len(actions) > 0 {
					filter.Action.Name = android(actions[0], "name")
				}
				for _, c := range f.Elements("category") {
					filter.Categories = append(filter.Categories, Category{Name: android(c, "name")})
				}
				activity.IntentFilters = append(activity.IntentFilters, filter)
			}
			m.Application.Activities = append(m.Application.Activities, activity)
		}
	}
	for _, f := range root.Elements("uses-feature") {
		m.Features = append(m.Features, Feature{
			Name:        android(f, "name"),
			Required:    android(f, "required") == "true",
			GlEsVersion: android(f, "glEsVersion"),
		})
	}
	for _, p := range root.Elements("uses-permission") {
		m.Permissions = append(m.Permissions, Permission{Name: android(p, "name")})
	}
	return m, nil
}

func text(e *binaryxml.Element, namespace, name string) string {
	a, _ := e.Attribute(namespace, name)
	return a.Text
}

func android(e *binaryxml.Element, name string) string {
	return text(e, binaryxml.AndroidNamespace, name)
}

// integer returns the value of a, reading the typed data for integer types
// and parsing the text for everything else.
func integer(a binaryxml.Attribute) (int, error) {
	switch a.Value.Type {
	case binaryxml.TypeIntDec, binaryxml.TypeIntHex:
		return int(int32(a.Value.Data)), nil
	}
	return strconv.Atoi(a.Text)
}

// MainActivity returns the activity and action to launch the application with.
func (m Manifest) MainActivity(ctx context.Context) (activity, action string, err error) {
	search := func(category string) (activity, action string, ok bool) {
		for _, a := range m.Application.Activities {
			for _, i := range a.IntentFilters {
				if i.Action.Name == ActionMain {
					for _, c := range i.Categories {
						if c.Name == category {
							return a.Name, i.Action.Name, true
						}
					}
				}
			}
		}
		return "", "", false
	}

	var ok bool
	if activity, action, ok = search(CategoryInfo); ok {
		return
	}
	if activity, action, ok = search(CategoryLauncher); ok {
		return
	}
	return "", "", log.Err(ctx, ErrNoActivityFound, "")
}
