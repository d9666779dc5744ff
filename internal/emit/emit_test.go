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

package emit

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/value"
)

// fakeFiles is the minimal graph.FileProvider a test graph needs: every
// path "exists" so SEARCH/bind resolution never falls through to the
// bare-name fallback in ways that would surprise these tests.
type fakeFiles struct{}

func (fakeFiles) Read(string) ([]byte, error) { return nil, nil }
func (fakeFiles) Exists(string) bool          { return true }
func (fakeFiles) IsDir(path string) bool      { return path == "somedir" }
func (fakeFiles) IsFile(string) bool          { return true }

// fakeSink records every call for assertion, mirroring the teacher's
// own in-memory test doubles (disk_interface_test.go's VirtualFileSystem
// idea, generalized to the Ninja sink instead of the filesystem).
type fakeSink struct {
	rules    []RuleSpec
	builds   []BuildSpec
	defaults []string
}

func (f *fakeSink) Rule(spec RuleSpec) error {
	f.rules = append(f.rules, spec)
	return nil
}

func (f *fakeSink) Build(spec BuildSpec) error {
	f.builds = append(f.builds, spec)
	return nil
}

func (f *fakeSink) Default(names []string) error {
	f.defaults = append(f.defaults, names...)
	return nil
}

func newAction(name, commands string) *graph.Action {
	return &graph.Action{Name: name, Commands: commands}
}

// TestEmit_SimpleCopy is spec.md §8 scenario 1: a single alone step
// gets one rule whose command is the concatenated, $-escaped command
// line, and one build statement naming it.
func TestEmit_SimpleCopy(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})

	src := g.GetOrCreate("test.h")
	dst := g.GetOrCreate("test.c")
	g.BindAll(false)

	action := newAction("cp", "cp $(2) $(1)")
	step := g.Schedule(action, []graph.ID{dst.ID}, []graph.ID{src.ID}, value.LoL{{dst.Name}, {src.Name}})
	if step == nil {
		t.Fatal("Schedule returned nil")
	}

	sink := &fakeSink{}
	e := New(sink, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}

	if len(sink.rules) != 1 {
		t.Fatalf("got %d rules, want 1: %+v", len(sink.rules), sink.rules)
	}
	if want := "cp test.h test.c"; sink.rules[0].Command != want {
		t.Errorf("command = %q, want %q", sink.rules[0].Command, want)
	}
	if sink.rules[0].Name != "cp0" {
		t.Errorf("rule name = %q, want cp0", sink.rules[0].Name)
	}

	var found bool
	for _, b := range sink.builds {
		if len(b.Outputs) == 1 && b.Outputs[0] == "test.c" {
			found = true
			if b.Rule != "cp0" {
				t.Errorf("build rule = %q, want cp0", b.Rule)
			}
			if diff := cmp.Diff([]string{"test.h"}, b.Inputs); diff != "" {
				t.Errorf("inputs mismatch (-want +got):\n%s", diff)
			}
		}
	}
	if !found {
		t.Errorf("no build statement for test.c: %+v", sink.builds)
	}

	if diff := cmp.Diff([]string{"all"}, sink.defaults); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}
}

// TestEmit_RuleDedup is spec.md §8 invariant 4 and §4.9 step 2: two
// alone steps of the same action whose expanded commands differ do not
// share a rule.
func TestEmit_RuleDedup(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})

	a1, a2 := g.GetOrCreate("a.o"), g.GetOrCreate("b.o")
	s1, s2 := g.GetOrCreate("a.c"), g.GetOrCreate("b.c")
	g.BindAll(false)

	action := newAction("cc", "cc -c $(2) -o $(1)")
	g.Schedule(action, []graph.ID{a1.ID}, []graph.ID{s1.ID}, value.LoL{{a1.Name}, {s1.Name}})
	g.Schedule(action, []graph.ID{a2.ID}, []graph.ID{s2.ID}, value.LoL{{a2.Name}, {s2.Name}})

	sink := &fakeSink{}
	e := New(sink, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}

	if len(sink.rules) != 2 {
		t.Fatalf("different commands should not dedup: got %d rules", len(sink.rules))
	}

	ruleNames := map[string]bool{}
	for _, b := range sink.builds {
		if len(b.Outputs) == 1 && (b.Outputs[0] == "a.o" || b.Outputs[0] == "b.o") {
			ruleNames[b.Rule] = true
		}
	}
	if len(ruleNames) != 2 {
		t.Errorf("expected distinct commands to keep distinct rules, got %v", ruleNames)
	}
}

// TestEmit_RuleDedup_SameCommand exercises the actual dedup path: same
// action and identically-expanded command text (no references to the
// differing target/source names) collapse to one rule.
func TestEmit_RuleDedup_SameCommand(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})

	a1, a2 := g.GetOrCreate("one"), g.GetOrCreate("two")
	g.BindAll(false)

	action := newAction("touch", "touch stamp")
	g.Schedule(action, []graph.ID{a1.ID}, nil, nil)
	g.Schedule(action, []graph.ID{a2.ID}, nil, nil)

	sink := &fakeSink{}
	e := New(sink, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}

	if len(sink.rules) != 1 {
		t.Fatalf("identical commands should dedup to one rule, got %d: %+v", len(sink.rules), sink.rules)
	}
	ruleName := sink.rules[0].Name
	for _, b := range sink.builds {
		if len(b.Outputs) == 1 && (b.Outputs[0] == "one" || b.Outputs[0] == "two") {
			if b.Rule != ruleName {
				t.Errorf("build for %v uses rule %q, want aliased %q", b.Outputs, b.Rule, ruleName)
			}
		}
	}
}

// TestEmit_MultilineAction is spec.md §8 scenario 5: an action body
// with a trailing backslash continuation joins onto one shell command.
func TestEmit_MultilineAction(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})
	out := g.GetOrCreate("out")
	g.BindAll(false)

	action := newAction("run", "echo a \\\necho b")
	g.Schedule(action, []graph.ID{out.ID}, nil, nil)

	sink := &fakeSink{}
	e := New(sink, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}
	if len(sink.rules) != 1 {
		t.Fatalf("got %d rules", len(sink.rules))
	}
	if want := "echo a echo b"; sink.rules[0].Command != want {
		t.Errorf("command = %q, want %q", sink.rules[0].Command, want)
	}
}

// TestEmit_NotFilePhony checks spec.md §4.9 step 4: a notfile target
// emits a phony build statement with its dependency list as implicit.
func TestEmit_NotFilePhony(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})

	dep := g.GetOrCreate("leaf")
	agg := g.GetOrCreate("all-libs")
	agg.NotFile = true
	agg.Depends[dep.ID] = true
	g.BindAll(false)
	// deps.go's GetDependencyList only lists a dependency directly when
	// it is itself a build output (or notfile/dir); a plain, never-built
	// source file instead contributes its own transitive deps. Schedule
	// a build step for leaf so it counts as a real output here.
	g.Schedule(newAction("gen", "gen > $(1)"), []graph.ID{dep.ID}, nil, nil)

	sink := &fakeSink{}
	e := New(sink, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, b := range sink.builds {
		if len(b.Outputs) == 1 && b.Outputs[0] == "all-libs" {
			found = true
			if b.Rule != "phony" {
				t.Errorf("rule = %q, want phony", b.Rule)
			}
			if diff := cmp.Diff([]string{"leaf"}, b.Implicit); diff != "" {
				t.Errorf("implicit mismatch (-want +got):\n%s", diff)
			}
		}
	}
	if !found {
		t.Fatal("no phony build statement for all-libs")
	}
}

// TestEmit_DirsAggregate is spec.md §8 scenario 3: a dependency that is
// a known directory contributes the literal "dirs" token and "dirs"
// itself is emitted as a phony aggregate.
func TestEmit_DirsAggregate(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})

	dir := g.GetOrCreate("somedir")
	dir.IsDir = true
	leaf := g.GetOrCreate("leaf.o")
	leaf.Depends[dir.ID] = true
	leaf.NotFile = true
	g.BindAll(false)

	sink := &fakeSink{}
	e := New(sink, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}

	var sawDirs bool
	for _, b := range sink.builds {
		if len(b.Outputs) == 1 && b.Outputs[0] == "dirs" {
			sawDirs = true
		}
	}
	if !sawDirs {
		t.Error("expected a phony build statement for dirs")
	}
}

func TestTextWriter_FoldsLongLines(t *testing.T) {
	var buf strings.Builder
	w := NewTextWriter(&buf)
	long := strings.Repeat("word ", 40)
	if err := w.Rule(RuleSpec{Name: "big", Command: long}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, " $\n") {
		t.Errorf("expected a fold marker in long output, got %q", out)
	}
}

func TestConcatPosix_OpenQuoteSpansLines(t *testing.T) {
	lines := []string{`echo "a`, `b"`, "echo done"}
	got := concatPosix(lines)
	want := `echo "a b" ; $` + "\n" + ` echo done`
	if got != want {
		t.Errorf("concatPosix = %q, want %q", got, want)
	}
}

// TestEmit_GoldenNinjaText is a golden-file regression test for the
// full text writer pipeline: a small graph is emitted end to end and
// compared byte-for-byte against an expected build.ninja fragment. On
// mismatch a unified diff is produced with diffmatchpatch instead of a
// raw string comparison, the way the teacher's own build comparisons
// do (other_examples google-kati's run_test.go dmp.DiffMain/
// DiffPrettyText pattern, since the teacher's own tests never compare
// whole-file Ninja text this way).
func TestEmit_GoldenNinjaText(t *testing.T) {
	host := &platform.Host{}
	g := graph.New(host, fakeFiles{})

	dst := g.GetOrCreate("test.o")
	src := g.GetOrCreate("test.c")
	g.BindAll(false)

	action := newAction("cc", "cc -c $(2) -o $(1)")
	g.Schedule(action, []graph.ID{dst.ID}, []graph.ID{src.ID}, value.LoL{{dst.Name}, {src.Name}})

	var buf strings.Builder
	w := NewTextWriter(&buf)
	e := New(w, host, nil, nil)
	if err := e.Emit(g); err != nil {
		t.Fatal(err)
	}

	want := "rule cc0\n" +
		"  command = cc -c test.c -o test.o\n" +
		"  description = cc\n" +
		"build test.o: cc0 test.c\n" +
		"default all\n"
	got := buf.String()
	if got != want {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(want, got, true)
		diffs = dmp.DiffCleanupSemantic(diffs)
		t.Errorf("generated build.ninja mismatch (want -> got):\n%s", dmp.DiffPrettyText(diffs))
	}
}
