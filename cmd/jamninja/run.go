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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/maruel/jamninja/internal/emit"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/jam"
)

// diskFiles is the real, process-wide graph.FileProvider: the only
// place in this module allowed to call into os for Jamfile/include
// reads, per spec.md §6's disk-interface split.
type diskFiles struct{}

func (diskFiles) Read(path string) ([]byte, error) { return os.ReadFile(path) }

func (diskFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (diskFiles) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (diskFiles) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// diskSink wraps emit.TextWriter with the VMS response-file side
// channel (spec.md §4.9 step 3): response files land next to the
// output manifest.
type diskSink struct {
	*emit.TextWriter
	dir string
}

func (d *diskSink) WriteResponseFile(name, content string) error {
	return os.WriteFile(filepath.Join(d.dir, name), []byte(content), 0o644)
}

// run executes the pipeline for opts and returns a process exit code.
func run(opts options) int {
	if opts.workingDir != "" {
		if err := os.Chdir(opts.workingDir); err != nil {
			fatalf("can't chdir to %q: %v", opts.workingDir, err)
			return 1
		}
	}

	src, err := os.ReadFile(opts.inputFile)
	if err != nil {
		fatalf("can't read %q: %v", opts.inputFile, err)
		return 1
	}

	cfg := jam.Config{
		Jamfile:   []string{opts.inputFile},
		Overrides: opts.overrides,
	}

	host := platform.NewHost()
	files := diskFiles{}

	if opts.dryRun || opts.diffAgainst != "" {
		var buf bytes.Buffer
		sink := &diskSink{TextWriter: emit.NewTextWriter(&buf), dir: filepath.Dir(opts.outputFile)}
		if err := jam.Run(cfg, string(src), host, files, sink); err != nil {
			errorf("%v", err)
			return 1
		}
		if opts.diffAgainst != "" {
			return diffAgainst(opts.diffAgainst, buf.String())
		}
		fmt.Print(buf.String())
		return 0
	}

	out, err := os.Create(opts.outputFile)
	if err != nil {
		fatalf("can't create %q: %v", opts.outputFile, err)
		return 1
	}
	defer out.Close()

	sink := &diskSink{TextWriter: emit.NewTextWriter(out), dir: filepath.Dir(opts.outputFile)}
	if err := jam.Run(cfg, string(src), host, files, sink); err != nil {
		errorf("%v", err)
		return 1
	}
	glog.Infof("wrote %s", opts.outputFile)
	return 0
}

// diffAgainst implements the optional `--diff-against` flag from
// SPEC_FULL.md's DOMAIN STACK table: compare freshly generated text
// against an existing build.ninja on disk with a unified diff instead
// of a raw byte mismatch.
func diffAgainst(existingPath, generated string) int {
	existing, err := os.ReadFile(existingPath)
	if err != nil {
		fatalf("can't read %q: %v", existingPath, err)
		return 1
	}
	if string(existing) == generated {
		fmt.Println("no differences")
		return 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(existing), generated, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	fmt.Print(dmp.DiffPrettyText(diffs))
	if !strings.HasSuffix(generated, "\n") {
		fmt.Println()
	}
	return 1
}
