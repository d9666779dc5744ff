// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jam is the small public façade over the whole pipeline:
// parse, compile, evaluate, bind, scan, and emit. It mirrors the
// teacher's ninjaMain/RealNinjaMain/realMain split in cmd/nin/ninja.go:
// Run is the "real main" that takes every external collaborator as an
// argument so cmd/jamninja only has to wire flags to it.
package jam

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/maruel/jamninja/internal/builtins"
	"github.com/maruel/jamninja/internal/compile"
	"github.com/maruel/jamninja/internal/emit"
	"github.com/maruel/jamninja/internal/eval"
	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/parse"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/scan"
	"github.com/maruel/jamninja/internal/value"
)

// Platform, FileProvider and NinjaSink are the three external
// collaborators spec.md §6 names, re-exported at the façade so callers
// never need to reach into internal/ packages directly.
type (
	Platform     = platform.Bridge
	FileProvider = graph.FileProvider
	NinjaSink    = emit.Sink
)

// Config collects the preset variables spec.md §6 lists (JAMFILE,
// NINJA_ROOTDIR, SUBDIR_ROOT, -e overrides), mirroring Blueprint's
// Config interface{} seam (other_examples context.go) concretized since
// this module's config shape is fixed.
type Config struct {
	// Jamfile is the preset JAMFILE variable: the name(s) evaluated as
	// the project's entry point, normally "Jamfile".
	Jamfile value.List
	// NinjaRootdir is the preset NINJA_ROOTDIR variable.
	NinjaRootdir value.List
	// SubdirRoot is the preset SUBDIR_ROOT variable, also used as the
	// header scanner's out-of-root boundary (scan.New's root).
	SubdirRoot value.List
	// Overrides are -e K=V command-line variable overrides, applied to
	// the global scope before the Jamfile is evaluated. Per
	// SPEC_FULL.md's supplemented feature 1, an ordinary Jamfile-level
	// assignment of the same name still shadows these afterwards.
	Overrides map[string]value.List
}

// Run wires the whole pipeline: parse src, compile it, evaluate it
// under cfg's presets against platform and files, bind and scan the
// resulting graph, then emit it to sink. It returns the first error
// from any stage, already wrapped with the source position that
// produced it where applicable (spec.md §7).
func Run(cfg Config, src string, platform Platform, files FileProvider, sink NinjaSink) error {
	block, err := parse.Parse("Jamfile", src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	prog, err := compile.Compile(block)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	g := graph.New(platform, files)
	ev := eval.New(g, platform, files)
	builtins.Install(ev)

	// Preset variables are installed before Jamfile evaluation begins,
	// so a Jamfile-level assignment of the same name still shadows them
	// per ordinary Jam scope rules (SPEC_FULL.md supplemented feature 1).
	if len(cfg.Jamfile) > 0 {
		ev.SetPreset("JAMFILE", cfg.Jamfile)
	}
	if len(cfg.NinjaRootdir) > 0 {
		ev.SetPreset("NINJA_ROOTDIR", cfg.NinjaRootdir)
	}
	if len(cfg.SubdirRoot) > 0 {
		ev.SetPreset("SUBDIR_ROOT", cfg.SubdirRoot)
	}
	for name, v := range cfg.Overrides {
		ev.SetPreset(name, v)
	}

	if err := ev.Run(prog); err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	// spec.md §4.6: bind (non-strict), scan headers, bind again
	// (strict), then search for dependency cycles.
	g.BindAll(false)

	root := cfg.SubdirRoot.Join(" ")
	if root == "" {
		root = cfg.NinjaRootdir.Join(" ")
	}
	scanner := scan.New(g, files, platform, ev.InvokeRule, root)
	if err := scanner.ScanAll(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	g.BindAll(true)

	for _, dropped := range g.SearchForCycles() {
		glog.Infof("dropped include edge to break cycle: %s", dropped)
	}

	var rsp emit.ResponseFileWriter
	if w, ok := sink.(emit.ResponseFileWriter); ok {
		rsp = w
	}
	emitter := emit.New(sink, platform, ev, rsp)
	if err := emitter.Emit(g); err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	return nil
}
