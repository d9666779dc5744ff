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

// Package eval executes the compiled command tree (spec.md §4.4): scope
// stack and target-context overlay (§3), rule invocation dispatch and
// the rule/action shared-name scheduling duality (§4.5), control flow
// (§9 "exceptions-as-control-flow"), and `include` resolution. Modeled
// on the teacher's State (graph.go) as the single owned mutable
// container, and on Blueprint's Context/moduleInfo split (other_examples
// blueprint context.go) for the rule/action duality: two parallel name
// tables consulted in sequence rather than one polymorphic registry.
package eval

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/maruel/jamninja/internal/ast"
	"github.com/maruel/jamninja/internal/compile"
	"github.com/maruel/jamninja/internal/expand"
	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/parse"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/value"
)

// sourceError attaches a file:line position to a fatal evaluation error
// (spec.md §7 "Evaluation error"), the way the teacher's parser errors
// and Blueprint's Error{Err, Pos} (other_examples blueprint context.go)
// do.
type sourceError struct {
	pos ast.Stmt
	err error
}

func (e *sourceError) Error() string { return fmt.Sprintf("%s: %v", e.pos.Pos(), e.err) }
func (e *sourceError) Unwrap() error { return e.err }

// Evaluator is the single owner of the scope stack, the rule/action
// tables, and the target-context overlay; it drives a compiled Program
// to completion before anything downstream (bind, scan, emit) runs
// (spec.md §5).
type Evaluator struct {
	g     *graph.Graph
	host  platform.Bridge
	files graph.FileProvider

	scopes      []map[string]value.List
	targetStack []*graph.Target
	patterns    map[*ast.Switch][]compile.Pattern

	rules    map[string]*Rule
	actions  map[string]*graph.Action
	builtins map[string]BuiltinFunc

	warnedRules map[string]bool
}

// New builds an Evaluator bound to g, host, and files, with its global
// scope pre-populated from the process environment (spec.md §3).
func New(g *graph.Graph, host platform.Bridge, files graph.FileProvider) *Evaluator {
	e := &Evaluator{
		g:           g,
		host:        host,
		files:       files,
		rules:       map[string]*Rule{},
		actions:     map[string]*graph.Action{},
		builtins:    map[string]BuiltinFunc{},
		warnedRules: map[string]bool{},
		patterns:    map[*ast.Switch][]compile.Pattern{},
	}
	e.scopes = []map[string]value.List{newGlobalScope(host)}
	return e
}

// SetPreset installs a preset variable (spec.md §6: JAMFILE,
// NINJA_ROOTDIR, SUBDIR_ROOT, `-e K=V` overrides) directly into the
// global scope before Run.
func (e *Evaluator) SetPreset(name string, v value.List) {
	e.scopes[0][name] = v
}

// Graph returns the target graph this evaluator populates.
func (e *Evaluator) Graph() *graph.Graph { return e.g }

// Files returns the file provider used for `include` resolution.
func (e *Evaluator) Files() graph.FileProvider { return e.files }

// Host returns the platform bridge.
func (e *Evaluator) Host() platform.Bridge { return e.host }

// CurrentTarget returns the innermost active `on target` context, or
// nil if none is active.
func (e *Evaluator) CurrentTarget() *graph.Target {
	if len(e.targetStack) == 0 {
		return nil
	}
	return e.targetStack[len(e.targetStack)-1]
}

// Run executes prog's top-level block against the current global scope
// (spec.md §5: evaluator drives everything to completion before the
// emitter runs).
func (e *Evaluator) Run(prog *compile.Program) error {
	e.mergePatterns(prog)
	_, err := e.execBlock(prog.Root)
	return err
}

// mergePatterns folds prog's compiled switch patterns into the
// evaluator's process-wide table; see compile.Program.AllPatterns.
func (e *Evaluator) mergePatterns(prog *compile.Program) {
	for sw, pats := range prog.AllPatterns() {
		e.patterns[sw] = pats
	}
}

// expandArgList expands every word of words against e and concatenates
// the resulting lists in order (spec.md §4.4). A word holding an embedded
// `[ rule args ]` call (ast.Word.Call, spliced in by the parser outside
// condition context too) is invoked and its result list spliced in at
// that position instead of being text-expanded.
func (e *Evaluator) expandArgList(words ast.ArgList) (value.List, error) {
	var out value.List
	for _, w := range words {
		if w.Call != nil {
			v, err := e.invoke(w.Call)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
			continue
		}
		vs, err := expand.Expand(w.Text, e)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// execBlock runs every statement of b in order, stopping early and
// propagating the first non-flowNone signal (spec.md §9).
func (e *Evaluator) execBlock(b *ast.Block) (flow, error) {
	for _, s := range b.Stmts {
		fl, err := e.execStmt(s)
		if err != nil {
			return noFlow, err
		}
		if fl.kind != flowNone {
			return fl, nil
		}
	}
	return noFlow, nil
}

func (e *Evaluator) execStmt(s ast.Stmt) (flow, error) {
	switch n := s.(type) {
	case *ast.Block:
		e.pushScope()
		defer e.popScope()
		return e.execBlock(n)
	case *ast.Assign:
		return noFlow, e.execAssign(n)
	case *ast.ExprStmt:
		_, err := e.evalValueExpr(n.Expr)
		return noFlow, err
	case *ast.If:
		return e.execIf(n)
	case *ast.While:
		return e.execWhile(n)
	case *ast.ForIn:
		return e.execForIn(n)
	case *ast.Switch:
		return e.execSwitch(n)
	case *ast.RuleDef:
		e.rules[n.Name] = &Rule{Name: n.Name, Params: n.Params, Body: n.Body}
		return noFlow, nil
	case *ast.ActionDef:
		e.actions[n.Name] = &graph.Action{
			Name:      n.Name,
			Updated:   hasFlag(n.Flags, ast.FlagUpdated),
			Together:  hasFlag(n.Flags, ast.FlagTogether),
			Ignore:    hasFlag(n.Flags, ast.FlagIgnore),
			Quietly:   hasFlag(n.Flags, ast.FlagQuietly),
			Piecemeal: hasFlag(n.Flags, ast.FlagPiecemeal),
			Existing:  hasFlag(n.Flags, ast.FlagExisting),
			BindList:  n.BindVars,
			Commands:  n.Commands,
		}
		return noFlow, nil
	case *ast.Include:
		return noFlow, e.execInclude(n)
	case *ast.Break:
		return flow{kind: flowBreak}, nil
	case *ast.Continue:
		return flow{kind: flowContinue}, nil
	case *ast.Return:
		var v value.List
		if len(n.Value) > 0 {
			var err error
			v, err = e.expandArgList(n.Value[0])
			if err != nil {
				return noFlow, &sourceError{n, err}
			}
		}
		return flow{kind: flowReturn, value: v}, nil
	default:
		return noFlow, fmt.Errorf("%s: unhandled statement %T", s.Pos(), s)
	}
}

func hasFlag(flags []ast.ActionFlag, want ast.ActionFlag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func (e *Evaluator) execIf(n *ast.If) (flow, error) {
	cond, err := e.evalCond(n.Cond)
	if err != nil {
		return noFlow, &sourceError{n, err}
	}
	if cond {
		e.pushScope()
		defer e.popScope()
		return e.execBlock(n.Then)
	}
	if n.Else == nil {
		return noFlow, nil
	}
	return e.execStmt(n.Else)
}

func (e *Evaluator) execWhile(n *ast.While) (flow, error) {
	for {
		cond, err := e.evalCond(n.Cond)
		if err != nil {
			return noFlow, &sourceError{n, err}
		}
		if !cond {
			return noFlow, nil
		}
		e.pushScope()
		fl, err := e.execBlock(n.Body)
		e.popScope()
		if err != nil {
			return noFlow, err
		}
		switch fl.kind {
		case flowBreak:
			return noFlow, nil
		case flowReturn:
			return fl, nil
		}
	}
}

func (e *Evaluator) execForIn(n *ast.ForIn) (flow, error) {
	list, err := e.expandArgList(n.List)
	if err != nil {
		return noFlow, &sourceError{n, err}
	}
	for _, v := range list {
		e.pushScope()
		e.setLocal(n.Var, value.List{v})
		fl, err := e.execBlock(n.Body)
		e.popScope()
		if err != nil {
			return noFlow, err
		}
		switch fl.kind {
		case flowBreak:
			return noFlow, nil
		case flowReturn:
			return fl, nil
		}
	}
	return noFlow, nil
}

func (e *Evaluator) execSwitch(n *ast.Switch) (flow, error) {
	list, err := e.expandArgList(n.Value)
	if err != nil {
		return noFlow, &sourceError{n, err}
	}
	var target string
	if len(list) > 0 {
		target = list[0]
	}
	pats := e.patterns[n]
	for i, c := range n.Cases {
		if i < len(pats) && pats[i].Match(target) {
			e.pushScope()
			fl, err := e.execBlock(c.Body)
			e.popScope()
			return fl, err
		}
	}
	return noFlow, nil
}

// execAssign implements spec.md §4.4 assignment: `=`, `?=`/`default =`,
// `+=`, optionally targeted at `on target` variable maps instead of the
// scope stack.
func (e *Evaluator) execAssign(a *ast.Assign) error {
	names, err := e.expandArgList(a.Name)
	if err != nil {
		return &sourceError{a, err}
	}
	val, err := e.expandArgList(a.Value)
	if err != nil {
		return &sourceError{a, err}
	}

	conditional := a.Default || a.Op == "?="

	if len(a.OnTarget) > 0 {
		targets, err := e.expandArgList(a.OnTarget)
		if err != nil {
			return &sourceError{a, err}
		}
		for _, tname := range targets {
			t := e.g.GetOrCreate(tname)
			for _, name := range names {
				e.assignTargetVar(t, name, a.Op, conditional, val)
			}
		}
		return nil
	}

	if a.Local {
		for _, name := range names {
			e.setLocal(name, val)
		}
		return nil
	}

	for _, name := range names {
		e.assignScopeVar(name, a.Op, conditional, val)
	}
	return nil
}

func (e *Evaluator) assignScopeVar(name, op string, conditional bool, val value.List) {
	if conditional {
		if cur, ok := e.scopeLookup(name); ok && len(cur) > 0 {
			return
		}
		e.setGlobalOrDefined(name, val)
		return
	}
	if op == "+=" {
		cur, _ := e.scopeLookup(name)
		e.setGlobalOrDefined(name, append(cur.Clone(), val...))
		return
	}
	e.setGlobalOrDefined(name, val)
}

func (e *Evaluator) assignTargetVar(t *graph.Target, name, op string, conditional bool, val value.List) {
	if conditional {
		if cur := t.Var(name); len(cur) > 0 {
			return
		}
		t.SetVar(name, val)
		return
	}
	if op == "+=" {
		t.SetVar(name, append(t.Var(name).Clone(), val...))
		return
	}
	t.SetVar(name, val)
}

// execInclude implements spec.md §4.6 `include path ;`: resolve via
// search, then parse and execute the included source in a pushed scope.
func (e *Evaluator) execInclude(n *ast.Include) error {
	names, err := e.expandArgList(n.Path)
	if err != nil {
		return &sourceError{n, err}
	}
	for _, name := range names {
		path := e.resolveIncludePath(name)
		data, err := e.files.Read(path)
		if err != nil {
			return &sourceError{n, fmt.Errorf("include %q: %w", name, err)}
		}
		blk, err := parse.Parse(path, string(data))
		if err != nil {
			return &sourceError{n, err}
		}
		prog, err := compile.Compile(blk)
		if err != nil {
			return &sourceError{n, err}
		}
		e.mergePatterns(prog)
		e.pushScope()
		_, err = e.execBlock(prog.Root)
		e.popScope()
		if err != nil {
			return err
		}
	}
	return nil
}

// resolveIncludePath applies the SEARCH-list probing spec.md §4.6
// describes for target binding to `include` resolution as well: the
// first SEARCH entry whose joined path exists wins, else the name is
// used verbatim relative to the working directory.
func (e *Evaluator) resolveIncludePath(name string) string {
	for _, root := range e.Lookup("SEARCH") {
		candidate := root + "/" + name
		if e.files.Exists(candidate) {
			return candidate
		}
	}
	return name
}

// warnUnknownRule implements spec.md §7's "Unknown rule" class: warn
// once per name, continue, except the name "Clean" which Jam silently
// ignores (the standard Jambase defines a no-op Clean for backward
// compatibility with `jam clean` invocations that predate NOUPDATE).
func (e *Evaluator) warnUnknownRule(name string) {
	if name == "Clean" {
		return
	}
	if e.warnedRules[name] {
		return
	}
	e.warnedRules[name] = true
	glog.Warningf("unknown rule %q", name)
}
