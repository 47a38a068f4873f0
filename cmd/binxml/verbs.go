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
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"reflect"

	"github.com/google/binaryxml/core/log"
	"github.com/google/binaryxml/core/os/android/binaryxml"
	"github.com/google/binaryxml/core/os/android/manifest"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
)

var (
	roundTripOut string
	exportFormat string
	exportOut    string
)

func init() {
	addVerb(&verb{
		name: "dump",
		args: "FILE",
		help: "print the document as textual XML",
		run:  dump,
	})
	addVerb(&verb{
		name: "trace",
		args: "FILE",
		help: "print the chunks of the document in stream order",
		run:  trace,
	})
	addVerb(&verb{
		name: "roundtrip",
		args: "FILE",
		help: "decode and re-encode the document and compare the results",
		flags: func(f *pflag.FlagSet) {
			f.StringVar(&roundTripOut, "out", "", "write the re-encoded document to this file")
		},
		run: roundTrip,
	})
	addVerb(&verb{
		name: "export",
		args: "FILE",
		help: "write the decoded document model as YAML or CBOR",
		flags: func(f *pflag.FlagSet) {
			f.StringVar(&exportFormat, "format", "yaml", "output format: yaml or cbor")
			f.StringVar(&exportOut, "out", "", "write to this file instead of stdout")
		},
		run: export,
	})
	addVerb(&verb{
		name: "info",
		args: "FILE",
		help: "print the package, version and launch activity of a manifest",
		run:  info,
	})
	addVerb(&verb{
		name: "debuggable",
		args: "IN OUT",
		help: `set android:debuggable="true" on the application element`,
		run:  debuggable,
	})
}

func readDocument(ctx context.Context, path string, trace binaryxml.ChunkTracer) (*binaryxml.Document, []byte, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, nil, log.Errf(ctx, err, "Reading %s", path)
	}
	doc, err := binaryxml.Parse(ctx, data, trace)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

func dump(ctx context.Context, args []string, out io.Writer) error {
	doc, _, err := readDocument(ctx, args[0], nil)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, doc.XML())
	return err
}

type chunkEntry struct {
	ty       string
	size     uint32
	position int64
}

func (e chunkEntry) String() string {
	return fmt.Sprintf("%s, chunkSize: %d, position: %d", e.ty, e.size, e.position)
}

func recordChunks(entries *[]chunkEntry) binaryxml.ChunkTracer {
	return func(ty string, size uint32, position int64) {
		*entries = append(*entries, chunkEntry{ty, size, position})
	}
}

func trace(ctx context.Context, args []string, out io.Writer) error {
	entries := []chunkEntry{}
	if _, _, err := readDocument(ctx, args[0], recordChunks(&entries)); err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(out, e)
	}
	return nil
}

func roundTrip(ctx context.Context, args []string, out io.Writer) error {
	decoded := []chunkEntry{}
	doc, data, err := readDocument(ctx, args[0], recordChunks(&decoded))
	if err != nil {
		return err
	}
	encoded := []chunkEntry{}
	output := doc.Encode(recordChunks(&encoded))

	fmt.Fprintf(out, "input:  %d bytes, %d chunks, blake3 %x\n", len(data), len(decoded), blake3.Sum256(data))
	fmt.Fprintf(out, "output: %d bytes, %d chunks, blake3 %x\n", len(output), len(encoded), blake3.Sum256(output))

	if roundTripOut != "" {
		if err := ioutil.WriteFile(roundTripOut, output, 0644); err != nil {
			return log.Errf(ctx, err, "Writing %s", roundTripOut)
		}
	}

	switch {
	case len(output) != len(data):
		return log.Errf(ctx, nil, "re-encoded document is %d bytes, input is %d", len(output), len(data))
	case !reflect.DeepEqual(encoded, decoded):
		return log.Errf(ctx, nil, "re-encoded chunk trace differs from the input")
	case !bytes.Equal(output, data):
		log.W(ctx, "Re-encoded document has the same layout but different bytes")
	default:
		log.I(ctx, "Round trip is identical")
	}
	return nil
}

func export(ctx context.Context, args []string, out io.Writer) error {
	doc, _, err := readDocument(ctx, args[0], nil)
	if err != nil {
		return err
	}
	data, err := encodeExport(newExport(doc), exportFormat)
	if err != nil {
		return log.Err(ctx, err, "Exporting document")
	}
	if exportOut != "" {
		if err := ioutil.WriteFile(exportOut, data, 0644); err != nil {
			return log.Errf(ctx, err, "Writing %s", exportOut)
		}
		return nil
	}
	_, err = out.Write(data)
	return err
}

func info(ctx context.Context, args []string, out io.Writer) error {
	doc, _, err := readDocument(ctx, args[0], nil)
	if err != nil {
		return err
	}
	m, err := manifest.FromDocument(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "package:     %s\n", m.Package)
	fmt.Fprintf(out, "versionCode: %d\n", m.VersionCode)
	fmt.Fprintf(out, "versionName: %s\n", m.VersionName)
	fmt.Fprintf(out, "debuggable:  %v\n", m.Application.Debuggable)
	if activity, action, err := m.MainActivity(ctx); err == nil {
		fmt.Fprintf(out, "launch:      %s (%s)\n", activity, action)
	}
	for _, p := range m.Permissions {
		fmt.Fprintf(out, "permission:  %s\n", p.Name)
	}
	return nil
}

func debuggable(ctx context.Context, args []string, out io.Writer) error {
	in, err := os.Open(args[0])
	if err != nil {
		return log.Errf(ctx, err, "Opening %s", args[0])
	}
	defer in.Close()

	result := bytes.Buffer{}
	if err := binaryxml.SetDebuggableFlag(ctx, in, &result); err != nil {
		return err
	}
	if err := ioutil.WriteFile(args[1], result.Bytes(), 0644); err != nil {
		return log.Errf(ctx, err, "Writing %s", args[1])
	}
	log.I(ctx, "Wrote %s", args[1])
	return nil
}
