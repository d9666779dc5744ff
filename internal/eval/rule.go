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
	"strconv"

	"github.com/maruel/jamninja/internal/ast"
	"github.com/maruel/jamninja/internal/value"
)

// Rule is a compiled `rule name ( params ) { body }` (spec.md §3): a
// name, its declared parameter names, and the body block to run with a
// fresh scope on invocation.
type Rule struct {
	Name   string
	Params []string
	Body   *ast.Block
}

// BuiltinFunc is a builtin rule implementation (DEPENDS, INCLUDES, ECHO,
// …). internal/builtins registers these through RegisterBuiltin instead
// of internal/eval importing internal/builtins directly, which would
// create an import cycle (builtins need the Evaluator's Graph/target
// context to do their work).
type BuiltinFunc func(ev *Evaluator, args value.LoL) (value.List, error)

// RegisterBuiltin installs a builtin rule implementation under name,
// shadowing any user rule or action of the same name in dispatch order
// (spec.md §4.4: "Lookup order: builtin → user rule → …").
func (e *Evaluator) RegisterBuiltin(name string, fn BuiltinFunc) {
	e.builtins[name] = fn
}

// execRuleBody runs rule's body in a fresh scope, binding both its
// named parameters and the raw positional $(1)..$(9) columns (Jam rules
// are very often written with $(1)/$(2) even when params has names),
// then unwinds a flowReturn into the rule's result value.
func (e *Evaluator) execRuleBody(rule *Rule, args value.LoL) (value.List, error) {
	e.pushScope()
	defer e.popScope()

	for i, p := range rule.Params {
		e.setLocal(p, args.At(i))
	}
	for i := 0; i < 9; i++ {
		e.setLocal(strconv.Itoa(i+1), args.At(i))
	}

	fl, err := e.execBlock(rule.Body)
	if err != nil {
		return nil, err
	}
	if fl.kind == flowReturn {
		return fl.value, nil
	}
	return nil, nil
}
