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

// binxml inspects and rewrites Android binary XML files such as the
// AndroidManifest.xml of an APK.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/binaryxml/core/log"
	"github.com/spf13/pflag"
)

// verb is a binxml subcommand.
type verb struct {
	name  string
	args  string
	help  string
	flags func(*pflag.FlagSet)
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var verbs = map[string]*verb{}

func addVerb(v *verb) { verbs[v.name] = v }

func main() {
	ctx := log.PutHandler(context.Background(), log.Stdio(log.Brief))
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: binxml <verb> [flags] args...")
	names := make([]string, 0, len(verbs))
	for name := range verbs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := verbs[name]
		fmt.Fprintf(w, "  %-12s %s\n", v.name+" "+v.args, v.help)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return log.Errf(ctx, nil, "no verb given")
	}
	v, ok := verbs[args[0]]
	if !ok {
		usage(out)
		return log.Errf(ctx, nil, "unknown verb %q", args[0])
	}

	flagSet := pflag.NewFlagSet("binxml "+v.name, pflag.ContinueOnError)
	flagSet.SetOutput(out)
	verbose := flagSet.BoolP("verbose", "v", false, "log debug messages")
	if v.flags != nil {
		v.flags(flagSet)
	}
	flagSet.Usage = func() {
		fmt.Fprintf(out, "Usage: binxml %s [flags] %s\n\n%s\n\n", v.name, v.args, v.help)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args[1:]); err != nil {
		return err
	}
	if want := strings.Count(v.args, " ") + 1; flagSet.NArg() != want {
		flagSet.Usage()
		return log.Errf(ctx, nil, "%s takes %d argument(s), got %d", v.name, want, flagSet.NArg())
	}

	severity := log.Info
	if *verbose {
		severity = log.Debug
	}
	ctx = log.PutFilter(ctx, log.SeverityFilter(severity))
	ctx = log.PutTag(ctx, v.name)
	return v.run(ctx, flagSet.Args(), out)
}
