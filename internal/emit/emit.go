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

// Package emit implements the Ninja emitter (spec.md §4.9): lowers the
// graph's build steps into Ninja rules, deduplicating identical
// commands, emitting phony aggregates, and partitioning dependencies
// into inputs / implicit / order-only edges. Grounded on the line-
// concatenation state machine of original_source/src/jamp/classes.py's
// UpdatingAction.prepare_action/prepare_windows_action/
// prepare_vms_action/get_command (the teacher's own ninja.go turned out
// to be the Ninja *reader*'s main(), not a writer — see the Sink split
// below, grounded instead on Blueprint's RuleParams/BuildParams shape
// from ninja_defs.go) and on kati's ninja.go rule-naming idiom
// (genRuleName/emitBuild).
package emit

import (
	"fmt"

	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/value"
)

// GlobalEnv is the fallback lookup surface for command expansion: the
// evaluator's global (bottom) scope, consulted for variables like
// $(CC) that aren't one of the step's positional $(1)..$(9) columns or
// a target variable. *eval.Evaluator already satisfies this (its
// Lookup implements expand.Env), so the driver hands the evaluator
// itself here without internal/emit importing internal/eval.
type GlobalEnv interface {
	Lookup(name string) value.List
}

// RuleSpec is the `rule(...)` half of the Ninja sink contract (spec.md
// §6), generalized from Blueprint's RuleParams.
type RuleSpec struct {
	Name           string
	Command        string
	Restat         bool
	Generator      bool
	Depfile        string
	Rspfile        string
	RspfileContent string
	Description    string
}

// BuildSpec is the `build(...)` half of the Ninja sink contract.
type BuildSpec struct {
	Outputs   []string
	Rule      string
	Inputs    []string
	Implicit  []string
	OrderOnly []string
}

// Sink is the external collaborator spec.md §6 calls "Ninja sink": a
// thin formatter the core treats as a stream target, never a file
// directly.
type Sink interface {
	Rule(spec RuleSpec) error
	Build(spec BuildSpec) error
	Default(names []string) error
}

// ResponseFileWriter is consulted only on VMS (spec.md §4.9 step 3):
// the expanded command is written to a `<step-name>.com` response file
// and the rule's command becomes `@<step-name>.com`.
type ResponseFileWriter interface {
	WriteResponseFile(name, content string) error
}

// Emitter runs the algorithm of spec.md §4.9 over a completed Graph.
type Emitter struct {
	sink   Sink
	host   platform.Bridge
	global GlobalEnv
	rsp    ResponseFileWriter

	needsDirsPhony bool
}

// New builds an Emitter. global may be nil (command templates that
// never reference a non-positional, non-target variable still work);
// rsp may be nil unless host.IsVMS() and some action actually runs.
func New(sink Sink, host platform.Bridge, global GlobalEnv, rsp ResponseFileWriter) *Emitter {
	return &Emitter{sink: sink, host: host, global: global, rsp: rsp}
}

// Emit runs the full six-step algorithm of spec.md §4.9 over g.
func (e *Emitter) Emit(g *graph.Graph) error {
	dedup := map[string]string{}

	for i, step := range g.Steps() {
		ruleName := fmt.Sprintf("%s%d", step.Action.Name, i)
		cmd, err := e.commandFor(g, step)
		if err != nil {
			return err
		}

		emitted := ruleName
		if step.IsAlone() {
			key := step.Action.Name + "\x00" + cmd
			if existing, ok := dedup[key]; ok {
				emitted = existing
			} else {
				dedup[key] = ruleName
				if err := e.emitRule(ruleName, step, cmd); err != nil {
					return err
				}
			}
		} else if err := e.emitRule(ruleName, step, cmd); err != nil {
			return err
		}

		if err := e.emitBuild(g, emitted, step); err != nil {
			return err
		}
	}

	if err := e.emitNotFiles(g); err != nil {
		return err
	}
	if err := e.emitCollections(g); err != nil {
		return err
	}
	if e.needsDirsPhony {
		if err := e.sink.Build(BuildSpec{Outputs: []string{"dirs"}, Rule: "phony"}); err != nil {
			return err
		}
	}

	return e.sink.Default([]string{"all"})
}

func (e *Emitter) emitRule(name string, step *graph.UpdatingAction, cmd string) error {
	command := cmd
	var rspfile, rspfileContent string
	if e.host.IsVMS() && e.rsp != nil {
		comName := name + ".com"
		if err := e.rsp.WriteResponseFile(comName, cmd); err != nil {
			return err
		}
		command = "@" + comName
	}

	return e.sink.Rule(RuleSpec{
		Name:           name,
		Command:        command,
		Restat:         step.Restat,
		Generator:      step.Generator,
		Depfile:        step.Depfile,
		Rspfile:        rspfile,
		RspfileContent: rspfileContent,
		Description:    step.Action.Name,
	})
}

func (e *Emitter) emitNotFiles(g *graph.Graph) error {
	for _, t := range g.Targets() {
		if !t.NotFile {
			continue
		}
		deps := g.GetDependencyList(t, nil)
		e.noteDirs(deps)
		if err := e.sink.Build(BuildSpec{Outputs: []string{t.Name}, Rule: "phony", Implicit: deps}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitCollections(g *graph.Graph) error {
	for _, c := range g.Collections() {
		e.noteDirs(c.Members)
		if err := e.sink.Build(BuildSpec{Outputs: []string{c.Name}, Rule: "phony", Implicit: c.Members}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) noteDirs(deps []string) {
	for _, d := range deps {
		if d == "dirs" {
			e.needsDirsPhony = true
			return
		}
	}
}

// emitBuild implements spec.md §4.9 step 5. The step's own command
// expansion (commandFor, in command.go) already resolved step.Depfile
// from the DEPFILE var of the first of its targets that sets one, so by
// the time this runs
// step.Depfile is final.
func (e *Emitter) emitBuild(g *graph.Graph, ruleName string, step *graph.UpdatingAction) error {
	var outs []string
	outputSet := map[string]bool{}
	for _, id := range step.Targets {
		t := g.Target(id)
		if !t.Bound {
			continue
		}
		name := t.BoundNameOrName()
		outs = append(outs, name)
		outputSet[name] = true
	}
	if len(outs) == 0 {
		// Every target of this step is a phony/notfile; it is emitted by
		// emitNotFiles instead (spec.md §4.9 step 4 vs step 5's "at least
		// one output" gate).
		return nil
	}

	sourceSet := map[string]bool{}
	var inputs []string
	for _, id := range step.Sources {
		t := g.Target(id)
		name := t.BoundNameOrName()
		if !sourceSet[name] {
			sourceSet[name] = true
			inputs = append(inputs, name)
		}
	}

	genHeaders := g.GenHeaders()
	depSeen := map[string]bool{}
	var implicit, orderOnly []string
	for _, id := range step.Targets {
		t := g.Target(id)
		deps := g.GetDependencyList(t, outputSet)
		e.noteDirs(deps)
		for _, dep := range deps {
			if sourceSet[dep] || depSeen[dep] {
				continue
			}
			depSeen[dep] = true
			if dt, ok := g.TargetAt(dep); ok && genHeaders.Depends[dt.ID] {
				orderOnly = append(orderOnly, dep)
			} else {
				implicit = append(implicit, dep)
			}
		}
	}

	return e.sink.Build(BuildSpec{
		Outputs:   outs,
		Rule:      ruleName,
		Inputs:    inputs,
		Implicit:  implicit,
		OrderOnly: orderOnly,
	})
}
