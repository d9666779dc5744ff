// Copyright 2021 Google LLC
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
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/maruel/jamninja/internal/value"
)

// options collects every command-line flag, mirroring the teacher's
// own options struct in cmd/nin/ninja.go.
type options struct {
	inputFile   string
	outputFile  string
	workingDir  string
	overrides   map[string]value.List
	dryRun      bool
	debugKeys   []string
	jobsHint    int
	diffAgainst string
}

// kvFlag implements flag.Value for repeated `-e K=V` overrides
// (spec.md §6), accumulating into a map the way the teacher's own
// repeated `-d`/`-w` flags accumulate into a single string instead
// (generalized here since `-e` genuinely needs key/value pairs).
type kvFlag struct{ m map[string]value.List }

func (k *kvFlag) String() string { return "" }

func (k *kvFlag) Set(s string) error {
	name, val, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("-e expects K=V, got %q", s)
	}
	k.m[name] = value.List{val}
	return nil
}

// readFlags parses os.Args into an options struct. It returns a
// non-negative exit code when jamninja should stop immediately (0 after
// '-d list', 2 for an unknown -d key) and -1 when Main should continue.
func readFlags() (options, int) {
	var opts options
	opts.overrides = map[string]value.List{}

	flag.StringVar(&opts.inputFile, "f", "Jamfile", "specify input Jamfile")
	flag.StringVar(&opts.outputFile, "o", "build.ninja", "specify output Ninja file")
	flag.StringVar(&opts.workingDir, "C", "", "change to DIR before doing anything else")
	flag.BoolVar(&opts.dryRun, "n", false, "dry run: print the generated build.ninja to stdout instead of writing -o")
	dbg := flag.String("d", "", "enable debug keys, comma-separated (use '-d list' to list them)")
	flag.IntVar(&opts.jobsHint, "j", guessParallelism(), "jobs hint, accepted for parity with ninja -j and otherwise unused; jamninja itself never runs a build")
	flag.StringVar(&opts.diffAgainst, "diff-against", "", "diff the generated manifest against an existing build.ninja on disk instead of writing it")
	overrides := &kvFlag{m: opts.overrides}
	flag.Var(overrides, "e", "override a variable: -e NAME=VALUE (repeatable)")

	flag.Usage = usage
	flag.Parse()

	if *dbg == "list" {
		fmt.Println("debug keys: parse, rules, search, bind")
		return opts, 0
	}
	if *dbg != "" {
		for _, key := range strings.Split(*dbg, ",") {
			key = strings.TrimSpace(key)
			if !knownDebugKeys[key] {
				errorf("unknown debug key %q (use '-d list' to list them)", key)
				return opts, 2
			}
			opts.debugKeys = append(opts.debugKeys, key)
		}
	}

	return opts, -1
}

// guessParallelism mirrors the teacher's own -j default heuristic
// (cmd/nin/ninja.go); jamninja never schedules jobs itself, but the
// flag is accepted for command-line parity with ninja.
func guessParallelism() int {
	switch processors := runtime.NumCPU(); processors {
	case 0, 1:
		return 2
	case 2:
		return 3
	default:
		return processors + 2
	}
}
