// Copyright 2012 Google Inc. All Rights Reserved.
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

// Package builtins implements the standard Jambase rules (spec.md §4.4,
// §4.7): DEPENDS/INCLUDES graph edges, the NOTFILE/ALWAYS/TEMPORARY
// family of target-flag setters, LOCATE/SEARCH path hints, MATCH regex
// extraction, and ECHO. Registers into an *eval.Evaluator through
// RegisterBuiltin instead of internal/eval importing this package,
// avoiding the import cycle a direct dependency would create (these
// builtins need the Evaluator's Graph and target context to do their
// work).
package builtins

import (
	"fmt"
	"regexp"

	"github.com/golang/glog"

	"github.com/maruel/jamninja/internal/eval"
	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/value"
)

// Install registers every builtin rule this package implements onto ev.
func Install(ev *eval.Evaluator) {
	ev.RegisterBuiltin("DEPENDS", depends)
	ev.RegisterBuiltin("INCLUDES", includes)
	ev.RegisterBuiltin("NOTFILE", notfile)
	ev.RegisterBuiltin("ALWAYS", always)
	ev.RegisterBuiltin("TEMPORARY", temporary)
	ev.RegisterBuiltin("NOUPDATE", temporary) // original_source: NOUPDATE behaves like TEMPORARY's "don't rebuild" marker
	ev.RegisterBuiltin("NOCARE", nocare)
	ev.RegisterBuiltin("FAIL_EXPECTED", nocare) // original_source: accepted no-op, same shape as NOCARE
	ev.RegisterBuiltin("LOCATE", setPathVar("LOCATE"))
	ev.RegisterBuiltin("SEARCH", setPathVar("SEARCH"))
	ev.RegisterBuiltin("ECHO", echo)
	ev.RegisterBuiltin("MATCH", match)
	ev.RegisterBuiltin("HDRRULE", hdrrule)
}

func targetsOf(g *graph.Graph, names value.List) []*graph.Target {
	out := make([]*graph.Target, len(names))
	for i, n := range names {
		out[i] = g.GetOrCreate(n)
	}
	return out
}

// depends implements `DEPENDS targets : sources ;` (spec.md §3 Target's
// depends set): every source is added to every target's Depends set.
func depends(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	g := ev.Graph()
	targets := targetsOf(g, args.At(0))
	sources := targetsOf(g, args.At(1))
	for _, t := range targets {
		for _, s := range sources {
			t.Depends[s.ID] = true
		}
	}
	return nil, nil
}

// includes implements `INCLUDES targets : headers ;` (spec.md §4.7: the
// standard HDRRULE calls this to populate includes discovered by the
// header scanner).
func includes(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	g := ev.Graph()
	targets := targetsOf(g, args.At(0))
	headers := targetsOf(g, args.At(1))
	for _, t := range targets {
		for _, h := range headers {
			t.Includes[h.ID] = true
		}
	}
	return nil, nil
}

// notfile implements `NOTFILE targets ;`: mark each target phony.
func notfile(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	for _, t := range targetsOf(ev.Graph(), args.At(0)) {
		t.NotFile = true
	}
	return nil, nil
}

// always implements `ALWAYS targets ;` by setting Target.Always.
// internal/graph.Schedule reads the flag only to clear Restat, which is
// already false, so the emitted manifest does not change.
func always(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	for _, t := range targetsOf(ev.Graph(), args.At(0)) {
		t.Always = true
	}
	return nil, nil
}

// temporary implements `TEMPORARY targets ;`: the target may vanish
// after the build without being considered an error.
func temporary(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	for _, t := range targetsOf(ev.Graph(), args.At(0)) {
		t.Temporary = true
	}
	return nil, nil
}

// nocare implements the original_source-supplemented `NOCARE targets ;`
// (SPEC_FULL.md supplemented feature 2): accept a missing target
// silently rather than treating it as an error.
func nocare(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	for _, t := range targetsOf(ev.Graph(), args.At(0)) {
		t.NoCare = true
	}
	return nil, nil
}

// setPathVar implements `LOCATE`/`SEARCH targets : paths ;`: both set a
// per-target variable the binder consults (internal/graph/bind.go).
func setPathVar(name string) eval.BuiltinFunc {
	return func(ev *eval.Evaluator, args value.LoL) (value.List, error) {
		paths := args.At(1)
		for _, t := range targetsOf(ev.Graph(), args.At(0)) {
			t.SetVar(name, append(t.Var(name).Clone(), paths...))
		}
		return nil, nil
	}
}

// echo implements `ECHO args ;`: print the expanded args, space-joined,
// to the log at Info level (spec.md names ECHO as a builtin without
// specifying a sink; glog.Info matches the ambient logging policy used
// for every other diagnostic this module emits).
func echo(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	var all value.List
	for _, col := range args {
		all = append(all, col...)
	}
	glog.Infof("%s", all.Join(" "))
	return nil, nil
}

// match implements `MATCH patterns : strings ;`: apply every pattern as
// a regular expression to every string, returning the concatenation of
// all capture groups across all matches, the way spec.md §4.7 describes
// HDRSCAN regex extraction using the same primitive.
func match(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	patterns := args.At(0)
	strs := args.At(1)
	var out value.List
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("MATCH: %w", err)
		}
		for _, s := range strs {
			for _, m := range re.FindAllStringSubmatch(s, -1) {
				out = append(out, m[1:]...)
			}
		}
	}
	return out, nil
}

// hdrrule is the standard Jambase HDRRULE: given `[[target], [headers]]`
// (spec.md §4.7), record each header as both a dependency and an
// include of target — the header scanner invokes this (or a
// user-overridden HDRRULE of the same name) once per scanned file.
func hdrrule(ev *eval.Evaluator, args value.LoL) (value.List, error) {
	g := ev.Graph()
	targets := targetsOf(g, args.At(0))
	headers := targetsOf(g, args.At(1))
	for _, t := range targets {
		for _, h := range headers {
			t.Depends[h.ID] = true
			t.Includes[h.ID] = true
		}
	}
	return nil, nil
}
