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

import "github.com/maruel/jamninja/internal/value"

// pushScope opens a fresh innermost scope, bracketing rule invocations,
// included files, and block statements (spec.md §3).
func (e *Evaluator) pushScope() {
	e.scopes = append(e.scopes, map[string]value.List{})
}

// popScope closes the innermost scope. Never called on the bottom
// (global) scope: callers balance every pushScope with exactly one
// popScope.
func (e *Evaluator) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// scopeLookup searches the scope stack innermost-first, returning the
// value and true if name is defined anywhere (even as an empty list —
// definedness and emptiness are different questions).
func (e *Evaluator) scopeLookup(name string) (value.List, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// scopeDefinedIndex returns the index (from the bottom) of the
// innermost scope in which name is already defined, or -1.
func (e *Evaluator) scopeDefinedIndex(name string) int {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][name]; ok {
			return i
		}
	}
	return -1
}

// setGlobalOrDefined implements `set(name, value)` (spec.md §3): mutate
// the innermost scope in which name is already defined, or the global
// (bottom) scope if it is undefined everywhere.
func (e *Evaluator) setGlobalOrDefined(name string, v value.List) {
	idx := e.scopeDefinedIndex(name)
	if idx < 0 {
		idx = 0
	}
	e.scopes[idx][name] = v
}

// setLocal implements `set_local(name, value)`: always the current
// (innermost) scope, used for rule parameters and `local` declarations.
func (e *Evaluator) setLocal(name string, v value.List) {
	e.scopes[len(e.scopes)-1][name] = v
}

// Lookup implements expand.Env for the evaluator itself: target-context
// first, then the scope stack (whose bottom entry is the
// environment-derived global scope), then an optional platform symbol
// provider (spec.md §4.2 "current-target lookup").
func (e *Evaluator) Lookup(name string) value.List {
	if len(e.targetStack) > 0 {
		t := e.targetStack[len(e.targetStack)-1]
		if v, ok := t.Vars[name]; ok {
			return v
		}
	}
	if v, ok := e.scopeLookup(name); ok {
		return v
	}
	if e.host != nil && e.host.IsVMS() {
		if v, ok := e.host.VMSGetSymbol(name); ok {
			return value.List{v}
		}
	}
	return nil
}
