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

// Package compile lowers an internal/ast tree into a Program the
// Evaluator can run repeatedly without redoing per-node work the parser
// left undone. Mirrors the teacher's ManifestParser -> State split
// (manifest_parser.go hands State pre-resolved rule/pool lookups rather
// than re-walking text): here, every switch case's Jam glob pattern is
// compiled once into a Pattern, keyed by the *ast.Switch node it
// belongs to, instead of being re-parsed on every loop iteration.
package compile

import (
	"fmt"

	"github.com/maruel/jamninja/internal/ast"
)

// Program is the executable form of a parsed Jam source file: the
// original statement tree plus side tables the Evaluator consults
// instead of recomputing.
type Program struct {
	Root *ast.Block

	// patterns maps each Switch node to its compiled case globs, in case
	// order.
	patterns map[*ast.Switch][]Pattern
}

// PatternsFor returns the compiled case patterns for sw, in case order.
func (p *Program) PatternsFor(sw *ast.Switch) []Pattern {
	return p.patterns[sw]
}

// AllPatterns returns every compiled switch's case patterns, keyed by
// the *ast.Switch node. The Evaluator merges this into one process-wide
// table (spec.md §9's "process-wide sentinels" note: keep it off a
// single owner, not a hidden global) so a rule's switch statement still
// resolves correctly when invoked from a different included file's
// execution context than the one it was compiled in.
func (p *Program) AllPatterns() map[*ast.Switch][]Pattern {
	return p.patterns
}

// Compile walks block, compiling every switch statement's case patterns;
// it returns an error only for a case pattern that does not compile and
// performs no other structural checks. Statement execution itself is
// unchanged by compilation: the Evaluator still walks block directly,
// using Program only for the side tables computed here.
func Compile(block *ast.Block) (*Program, error) {
	prog := &Program{Root: block, patterns: map[*ast.Switch][]Pattern{}}
	if err := prog.walkBlock(block); err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *Program) walkBlock(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := p.walkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) walkStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Block:
		return p.walkBlock(n)
	case *ast.If:
		if err := p.walkBlock(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			return p.walkStmt(n.Else)
		}
	case *ast.While:
		return p.walkBlock(n.Body)
	case *ast.ForIn:
		return p.walkBlock(n.Body)
	case *ast.Switch:
		pats := make([]Pattern, len(n.Cases))
		for i, c := range n.Cases {
			pat, err := CompilePattern(c.Pattern)
			if err != nil {
				return fmt.Errorf("%s: switch case %q: %w", n.Pos(), c.Pattern, err)
			}
			pats[i] = pat
			if err := p.walkBlock(c.Body); err != nil {
				return err
			}
		}
		p.patterns[n] = pats
	case *ast.RuleDef:
		return p.walkBlock(n.Body)
	}
	return nil
}
