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

package jam

import (
	"testing"

	"github.com/maruel/jamninja/internal/emit"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/value"
)

// fakeFiles is the minimal FileProvider Run needs: every path exists
// and nothing is a directory, so binding never falls through to a
// surprising default.
type fakeFiles struct{}

func (fakeFiles) Read(string) ([]byte, error) { return nil, nil }
func (fakeFiles) Exists(string) bool          { return true }
func (fakeFiles) IsDir(string) bool           { return false }
func (fakeFiles) IsFile(string) bool          { return true }

// fakeSink records every call, mirroring internal/emit's own test
// double one layer up the stack.
type fakeSink struct {
	rules    []emit.RuleSpec
	builds   []emit.BuildSpec
	defaults []string
}

func (f *fakeSink) Rule(spec emit.RuleSpec) error {
	f.rules = append(f.rules, spec)
	return nil
}

func (f *fakeSink) Build(spec emit.BuildSpec) error {
	f.builds = append(f.builds, spec)
	return nil
}

func (f *fakeSink) Default(names []string) error {
	f.defaults = append(f.defaults, names...)
	return nil
}

// TestRun_EndToEnd exercises the whole façade over a tiny program: one
// action whose command references its bound target and source columns.
func TestRun_EndToEnd(t *testing.T) {
	src := `
actions Cp
{
    cp $(2) $(1)
}

Cp test.c : test.h ;
`
	sink := &fakeSink{}
	if err := Run(Config{}, src, platform.NewHost(), fakeFiles{}, sink); err != nil {
		t.Fatal(err)
	}

	if len(sink.rules) != 1 {
		t.Fatalf("got %d rules, want 1: %+v", len(sink.rules), sink.rules)
	}
	if want := "cp test.h test.c"; sink.rules[0].Command != want {
		t.Errorf("command = %q, want %q", sink.rules[0].Command, want)
	}

	var found bool
	for _, b := range sink.builds {
		if len(b.Outputs) == 1 && b.Outputs[0] == "test.c" {
			found = true
		}
	}
	if !found {
		t.Errorf("no build statement for test.c: %+v", sink.builds)
	}

	if len(sink.defaults) == 0 || sink.defaults[len(sink.defaults)-1] != "all" {
		t.Errorf("defaults = %v, want to end with \"all\"", sink.defaults)
	}
}

// TestRun_ParseError checks a malformed program surfaces a wrapped
// error rather than panicking.
func TestRun_ParseError(t *testing.T) {
	sink := &fakeSink{}
	err := Run(Config{}, "actions {", platform.NewHost(), fakeFiles{}, sink)
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

// TestRun_EmbeddedRuleInvocation checks `[ rule args ]` spliced into an
// ordinary assignment's word list, not just a condition operand (spec.md
// §4.4: rule invocation as an expression is not restricted to
// conditions) — the rule's result list is spliced in alongside the
// literal words surrounding it.
func TestRun_EmbeddedRuleInvocation(t *testing.T) {
	src := `
rule Double ( x )
{
    return $(x)$(x) ;
}

actions Stamp
{
    echo $(MSG) > $(1)
}

MSG = pre [ Double ab ] post ;
Stamp out.stamp ;
`
	sink := &fakeSink{}
	if err := Run(Config{}, src, platform.NewHost(), fakeFiles{}, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.rules) != 1 {
		t.Fatalf("got %d rules, want 1: %+v", len(sink.rules), sink.rules)
	}
	if want := "echo pre abab post > out.stamp"; sink.rules[0].Command != want {
		t.Errorf("command = %q, want %q", sink.rules[0].Command, want)
	}
}

// TestRun_Overrides checks a -e K=V preset reaches the global scope and
// is visible to a rule body, and that a Jamfile-level assignment of the
// same name still wins afterwards (SPEC_FULL.md supplemented feature 1).
func TestRun_Overrides(t *testing.T) {
	src := `
actions Stamp
{
    echo $(CC) > $(1)
}

CC = fromjamfile ;
Stamp out.stamp ;
`
	sink := &fakeSink{}
	cfg := Config{Overrides: map[string]value.List{"CC": {"fromoverride"}}}
	if err := Run(cfg, src, platform.NewHost(), fakeFiles{}, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.rules) != 1 {
		t.Fatalf("got %d rules, want 1: %+v", len(sink.rules), sink.rules)
	}
	if want := "echo fromjamfile > out.stamp"; sink.rules[0].Command != want {
		t.Errorf("command = %q, want %q (Jamfile assignment should shadow -e override)", sink.rules[0].Command, want)
	}
}
