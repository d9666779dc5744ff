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

// Command jamninja reads a Jamfile and emits the build.ninja it
// describes, grounded on the teacher's cmd/nin/main.go: os.Exit(Main())
// at the top, flag parsing and working-directory handling split into
// the "real" entry point below.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	os.Exit(Main())
}

func fatalf(msg string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, "jamninja: fatal: ")
	fmt.Fprintf(os.Stderr, msg, s...)
	fmt.Fprintf(os.Stderr, "\n")
}

func errorf(msg string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, "jamninja: error: ")
	fmt.Fprintf(os.Stderr, msg, s...)
	fmt.Fprintf(os.Stderr, "\n")
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: jamninja [options]\n\n")
	fmt.Fprintf(os.Stderr, "reads a Jamfile and writes the build.ninja it describes.\n\n")
	flag.PrintDefaults()
}

var knownDebugKeys = map[string]bool{
	"parse":  true,
	"rules":  true,
	"search": true,
	"bind":   true,
}

// Main parses flags, runs the pipeline, and returns a process exit
// code (spec.md §6 "Process exits"): 0 on success, 1 on any pipeline
// error, 2 on a command-line usage error.
func Main() int {
	opts, code := readFlags()
	if code >= 0 {
		return code
	}
	return run(opts)
}
