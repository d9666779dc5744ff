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

package eval

import (
	"fmt"

	"github.com/maruel/jamninja/internal/ast"
	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/value"
)

// invoke implements spec.md §4.4 rule invocation: expand name (which
// may itself expand to several names, each invoked in turn), expand the
// `on target` list if present, expand each `:`-separated argument
// column into one LoL, and dispatch.
func (e *Evaluator) invoke(call *ast.RuleInvoke) (value.List, error) {
	names, err := e.expandArgList(call.Name)
	if err != nil {
		return nil, &sourceError{call, err}
	}

	var onTargets []string
	if len(call.OnTarget) > 0 {
		onTargets, err = e.expandArgList(call.OnTarget)
		if err != nil {
			return nil, &sourceError{call, err}
		}
	}

	var result value.List
	for _, name := range names {
		if len(onTargets) == 0 {
			r, err := e.invokeOne(name, call.Args)
			if err != nil {
				return nil, &sourceError{call, err}
			}
			result = append(result, r...)
			continue
		}
		for _, tname := range onTargets {
			t := e.g.GetOrCreate(tname)
			e.targetStack = append(e.targetStack, t)
			r, err := e.invokeOne(name, call.Args)
			e.targetStack = e.targetStack[:len(e.targetStack)-1]
			if err != nil {
				return nil, &sourceError{call, err}
			}
			result = append(result, r...)
		}
	}
	return result, nil
}

func (e *Evaluator) invokeOne(name string, argCols []ast.ArgList) (value.List, error) {
	var lol value.LoL
	for _, col := range argCols {
		v, err := e.expandArgList(col)
		if err != nil {
			return nil, err
		}
		lol = append(lol, v)
	}
	return e.dispatch(name, lol)
}

// InvokeRule runs name under target's scope with args, the way
// internal/scan's header scanner needs to invoke HDRRULE (spec.md §4.7:
// "invoke each HDRRULE ... under the target's scope"). Exported so the
// driver can hand this method value to scan.New as a scan.RuleInvoker
// without internal/scan importing internal/eval.
func (e *Evaluator) InvokeRule(target *graph.Target, name string, args value.LoL) (value.List, error) {
	e.targetStack = append(e.targetStack, target)
	defer func() { e.targetStack = e.targetStack[:len(e.targetStack)-1] }()
	return e.dispatch(name, args)
}

// dispatch implements the lookup order of spec.md §4.4: builtin, then
// user rule, then (independently, since the two are not mutually
// exclusive — spec.md §4.5) an equally-named action scheduled on the
// invocation's own targets/sources columns.
func (e *Evaluator) dispatch(name string, args value.LoL) (value.List, error) {
	if fn, ok := e.builtins[name]; ok {
		return fn(e, args)
	}

	rule, hasRule := e.rules[name]
	action, hasAction := e.actions[name]

	if !hasRule && !hasAction {
		e.warnUnknownRule(name)
		return nil, nil
	}

	var result value.List
	if hasRule {
		r, err := e.execRuleBody(rule, args)
		if err != nil {
			return nil, err
		}
		result = r
	}
	if hasAction {
		e.scheduleAction(action, args)
	}
	return result, nil
}

// scheduleAction implements spec.md §4.5: args.At(0) is the target
// column, args.At(1) the source column, of the invocation that shares
// the action's name.
func (e *Evaluator) scheduleAction(action *graph.Action, args value.LoL) {
	targets := e.idsFor(args.At(0))
	sources := e.idsFor(args.At(1))
	e.g.Schedule(action, targets, sources, args)
}

func (e *Evaluator) idsFor(names value.List) []graph.ID {
	ids := make([]graph.ID, len(names))
	for i, n := range names {
		ids[i] = e.g.GetOrCreate(n).ID
	}
	return ids
}

// evalValueExpr evaluates an Expr used in value position: only
// ListExpr and RuleExpr ever reach here (parsePrimary never returns the
// other Expr kinds), since && / || / comparisons only combine those two
// as operands.
func (e *Evaluator) evalValueExpr(expr ast.Expr) (value.List, error) {
	switch n := expr.(type) {
	case *ast.ListExpr:
		return e.expandArgList(n.List)
	case *ast.RuleExpr:
		return e.invoke(n.Call)
	default:
		return nil, fmt.Errorf("%s: %T is not valid in value position", expr.Pos(), expr)
	}
}

// evalCond evaluates an Expr in boolean-condition position (spec.md
// §4.4: list truth, `in`, list-lexicographic comparisons).
func (e *Evaluator) evalCond(expr ast.Expr) (bool, error) {
	switch n := expr.(type) {
	case *ast.NotExpr:
		b, err := e.evalCond(n.X)
		return !b, err
	case *ast.BinExpr:
		switch n.Op {
		case "&&":
			a, err := e.evalCond(n.X)
			if err != nil || !a {
				return false, err
			}
			return e.evalCond(n.Y)
		case "||":
			a, err := e.evalCond(n.X)
			if err != nil || a {
				return a, err
			}
			return e.evalCond(n.Y)
		default:
			lv, err := e.evalValueExpr(n.X)
			if err != nil {
				return false, err
			}
			rv, err := e.evalValueExpr(n.Y)
			if err != nil {
				return false, err
			}
			return compareLists(n.Op, lv, rv)
		}
	default:
		v, err := e.evalValueExpr(expr)
		if err != nil {
			return false, err
		}
		return v.Truth(), nil
	}
}

func compareLists(op string, lv, rv value.List) (bool, error) {
	switch op {
	case "=":
		return lv.Equal(rv), nil
	case "!=":
		return !lv.Equal(rv), nil
	case "<":
		return lv.Less(rv), nil
	case ">":
		return rv.Less(lv), nil
	case "<=":
		return !rv.Less(lv), nil
	case ">=":
		return !lv.Less(rv), nil
	case "in":
		return lv.Subset(rv), nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}
