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

// Package parse turns Jam source text into an internal/ast tree
// (spec.md §4.3), reporting a source-located error (file, line, token)
// on the first syntax problem, the way the teacher's manifest parser
// fails fast rather than trying to recover.
package parse

import (
	"fmt"

	"github.com/maruel/jamninja/internal/ast"
	"github.com/maruel/jamninja/internal/lex"
)

// Parser is a small recursive-descent parser with one token of
// lookahead buffered on top of the Lexer's own single-token unread.
type Parser struct {
	lx      *lex.Lexer
	pending []lex.Token
}

// Parse lexes and parses all of src (attributed to filename for error
// positions and diagnostics) into a top-level Block.
func Parse(filename, src string) (*ast.Block, error) {
	p := &Parser{lx: lex.New(filename, src)}
	pos := lex.Pos{File: filename, Line: 1}
	blk := &ast.Block{P: pos}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lex.EOF {
			return blk, nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, stmt)
	}
}

func (p *Parser) next() (lex.Token, error) {
	if len(p.pending) > 0 {
		tok := p.pending[0]
		p.pending = p.pending[1:]
		return tok, nil
	}
	return p.lx.Next()
}

func (p *Parser) peek() (lex.Token, error) {
	if len(p.pending) == 0 {
		tok, err := p.lx.Next()
		if err != nil {
			return lex.Token{}, err
		}
		p.pending = append(p.pending, tok)
	}
	return p.pending[0], nil
}

func (p *Parser) peekAt(n int) (lex.Token, error) {
	for len(p.pending) <= n {
		tok, err := p.lx.Next()
		if err != nil {
			return lex.Token{}, err
		}
		p.pending = append(p.pending, tok)
	}
	return p.pending[n], nil
}

func (p *Parser) errorf(tok lex.Token, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s (at %q)", tok.Pos, fmt.Sprintf(format, args...), tok.Text)
}

func (p *Parser) expectKind(k lex.Kind) (lex.Token, error) {
	tok, err := p.next()
	if err != nil {
		return lex.Token{}, err
	}
	if tok.Kind != k {
		return lex.Token{}, p.errorf(tok, "expected %s", k)
	}
	return tok, nil
}

func (p *Parser) expectWord(text string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != lex.Word || tok.Text != text {
		return p.errorf(tok, "expected %q", text)
	}
	return nil
}

// isKeyword reports whether tok is the Word keyword kw, used for
// single-token-of-lookahead dispatch on statement type.
func isKeyword(tok lex.Token, kw string) bool {
	return tok.Kind == lex.Word && tok.Text == kw
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.Kind == lex.LBrace:
		return p.parseBlock()
	case isKeyword(tok, "local"):
		return p.parseLocal()
	case isKeyword(tok, "rule"):
		return p.parseRuleDef()
	case isKeyword(tok, "actions"):
		return p.parseActionDef()
	case isKeyword(tok, "if"):
		return p.parseIf()
	case isKeyword(tok, "while"):
		return p.parseWhile()
	case isKeyword(tok, "for"):
		return p.parseFor()
	case isKeyword(tok, "switch"):
		return p.parseSwitch()
	case isKeyword(tok, "include"):
		return p.parseInclude()
	case isKeyword(tok, "on"):
		return p.parseOn()
	case isKeyword(tok, "break"):
		p.next()
		if _, err := p.expectKind(lex.Semi); err != nil {
			return nil, err
		}
		return &ast.Break{P: tok.Pos}, nil
	case isKeyword(tok, "continue"):
		p.next()
		if _, err := p.expectKind(lex.Semi); err != nil {
			return nil, err
		}
		return &ast.Continue{P: tok.Pos}, nil
	case isKeyword(tok, "return"):
		return p.parseReturn()
	default:
		return p.parseAssignOrInvoke(nil)
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expectKind(lex.LBrace)
	if err != nil {
		return nil, err
	}
	blk := &ast.Block{P: open.Pos}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lex.RBrace {
			p.next()
			return blk, nil
		}
		if tok.Kind == lex.EOF {
			return nil, p.errorf(tok, "unterminated block")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, stmt)
	}
}

// parseArgListUntil collects Word tokens (a value list) until a token of
// one of the stop kinds is seen; the stop token is left unconsumed. A
// `[ rule args ]` encountered in the list is parsed as a rule invocation
// and spliced in as its own Word (spec.md §4.4): its result list replaces
// that position when the list is later expanded, the same as it would
// inside a condition.
func (p *Parser) parseArgListUntil(stop map[lex.Kind]bool) (ast.ArgList, error) {
	var list ast.ArgList
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if stop[tok.Kind] {
			return list, nil
		}
		switch tok.Kind {
		case lex.Word:
			p.next()
			list = append(list, ast.Word{Text: tok.Text, Pos: tok.Pos})
		case lex.LBrack:
			call, err := p.parseBracketInvoke()
			if err != nil {
				return nil, err
			}
			list = append(list, ast.Word{Pos: call.P, Call: call})
		default:
			return list, nil
		}
	}
}

// parseBracketInvoke parses `[ rule args ]`, shared by parsePrimary
// (condition position) and parseArgListUntil (value/assignment position).
func (p *Parser) parseBracketInvoke() (*ast.RuleInvoke, error) {
	if _, err := p.expectKind(lex.LBrack); err != nil {
		return nil, err
	}
	nameTok, err := p.expectKind(lex.Word)
	if err != nil {
		return nil, err
	}
	call, err := p.parseRuleArgs(nameTok.Pos, ast.ArgList{{Text: nameTok.Text, Pos: nameTok.Pos}})
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lex.RBrack); err != nil {
		return nil, err
	}
	return call, nil
}

var stopSemi = map[lex.Kind]bool{lex.Semi: true}
var stopSemiColon = map[lex.Kind]bool{lex.Semi: true, lex.Colon: true}
var stopBrace = map[lex.Kind]bool{lex.LBrace: true}

func (p *Parser) parseLocal() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "local"
	names, err := p.parseArgListUntil(map[lex.Kind]bool{lex.Semi: true, lex.Assign: true})
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	a := &ast.Assign{P: start.Pos, Local: true, Name: names, Op: "="}
	if tok.Kind == lex.Assign {
		p.next()
		val, err := p.parseArgListUntil(stopSemi)
		if err != nil {
			return nil, err
		}
		a.Value = val
	}
	if _, err := p.expectKind(lex.Semi); err != nil {
		return nil, err
	}
	return a, nil
}

func (p *Parser) parseOn() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "on"
	targets, err := p.parseArgListUntil(map[lex.Kind]bool{lex.Assign: true, lex.PlusEq: true, lex.QMarkEq: true})
	if err != nil {
		return nil, err
	}
	// The target list above greedily eats words; the last word in it is
	// actually the rule/variable name, so peel it back off.
	if len(targets) == 0 {
		tok, _ := p.peek()
		return nil, p.errorf(tok, "expected target after 'on'")
	}
	name := targets[len(targets)-1]
	targets = targets[:len(targets)-1]
	if len(targets) == 0 {
		tok, _ := p.peek()
		return nil, p.errorf(tok, "expected rule or variable name after 'on target'")
	}
	stmt, err := p.parseAssignOrInvokeNamed(ast.ArgList{name}, targets)
	if err != nil {
		return nil, err
	}
	_ = start
	return stmt, nil
}

// parseAssignOrInvoke parses `name ...` where name has not yet been
// read, deciding between an assignment and a rule invocation by
// looking at the token right after the name.
func (p *Parser) parseAssignOrInvoke(onTarget ast.ArgList) (ast.Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != lex.Word {
		return nil, p.errorf(tok, "expected statement")
	}
	p.next()
	return p.parseAssignOrInvokeNamed(ast.ArgList{{Text: tok.Text, Pos: tok.Pos}}, onTarget)
}

func (p *Parser) parseAssignOrInvokeNamed(name ast.ArgList, onTarget ast.ArgList) (ast.Stmt, error) {
	pos := name[0].Pos
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	op := ""
	switch tok.Kind {
	case lex.Assign:
		op = "="
	case lex.PlusEq:
		op = "+="
	case lex.QMarkEq:
		op = "?="
	}
	if op != "" {
		p.next()
		val, err := p.parseArgListUntil(stopSemi)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lex.Semi); err != nil {
			return nil, err
		}
		return &ast.Assign{P: pos, Name: name, Op: op, Value: val, OnTarget: onTarget}, nil
	}

	// `name default = value ;`
	if isKeyword(tok, "default") {
		p.next()
		if _, err := p.expectKind(lex.Assign); err != nil {
			return nil, err
		}
		val, err := p.parseArgListUntil(stopSemi)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lex.Semi); err != nil {
			return nil, err
		}
		return &ast.Assign{P: pos, Default: true, Name: name, Op: "=", Value: val, OnTarget: onTarget}, nil
	}

	call, err := p.parseRuleArgs(pos, name)
	if err != nil {
		return nil, err
	}
	call.OnTarget = onTarget
	if _, err := p.expectKind(lex.Semi); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{P: pos, Expr: &ast.RuleExpr{P: pos, Call: call}}, nil
}

// parseRuleArgs parses the `:`-separated argument columns of a rule
// invocation, up to (but not consuming) the terminating ';' or ']'.
func (p *Parser) parseRuleArgs(pos lex.Pos, name ast.ArgList) (*ast.RuleInvoke, error) {
	call := &ast.RuleInvoke{P: pos, Name: name}
	for {
		arg, err := p.parseArgListUntil(map[lex.Kind]bool{lex.Semi: true, lex.Colon: true, lex.RBrack: true})
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lex.Colon {
			p.next()
			continue
		}
		return call, nil
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "if"
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{P: start.Pos, Cond: cond, Then: then}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isKeyword(tok, "else") {
		p.next()
		tok2, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isKeyword(tok2, "if") {
			elseStmt, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			node.Else = elseStmt
		} else {
			elseBlk, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			node.Else = elseBlk
		}
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{P: start.Pos, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "for"
	varTok, err := p.expectKind(lex.Word)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("in"); err != nil {
		return nil, err
	}
	list, err := p.parseArgListUntil(stopBrace)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForIn{P: start.Pos, Var: varTok.Text, List: list, Body: body}, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "switch"
	val, err := p.parseArgListUntil(stopBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lex.LBrace); err != nil {
		return nil, err
	}
	sw := &ast.Switch{P: start.Pos, Value: val}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lex.RBrace {
			p.next()
			return sw, nil
		}
		if !isKeyword(tok, "case") {
			return nil, p.errorf(tok, "expected 'case' or '}'")
		}
		p.next()
		patTok, err := p.expectKind(lex.Word)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(lex.Colon); err != nil {
			return nil, err
		}
		blk := &ast.Block{P: patTok.Pos}
		for {
			t, err := p.peek()
			if err != nil {
				return nil, err
			}
			if t.Kind == lex.RBrace || isKeyword(t, "case") {
				break
			}
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			blk.Stmts = append(blk.Stmts, stmt)
		}
		sw.Cases = append(sw.Cases, ast.SwitchCase{Pattern: patTok.Text, Body: blk})
	}
}

func (p *Parser) parseInclude() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next()
	path, err := p.parseArgListUntil(stopSemi)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lex.Semi); err != nil {
		return nil, err
	}
	return &ast.Include{P: start.Pos, Path: path}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next()
	val, err := p.parseArgListUntil(stopSemi)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(lex.Semi); err != nil {
		return nil, err
	}
	var vals []ast.ArgList
	if len(val) > 0 {
		vals = []ast.ArgList{val}
	}
	return &ast.Return{P: start.Pos, Value: vals}, nil
}

func (p *Parser) parseRuleDef() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "rule"
	nameTok, err := p.expectKind(lex.Word)
	if err != nil {
		return nil, err
	}
	var params []string
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	for tok.Kind == lex.Word {
		p.next()
		if tok.Text != "(" && tok.Text != ")" {
			params = append(params, tok.Text)
		}
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.RuleDef{P: start.Pos, Name: nameTok.Text, Params: params, Body: body}, nil
}

var knownFlags = map[string]ast.ActionFlag{
	"updated":   ast.FlagUpdated,
	"together":  ast.FlagTogether,
	"ignore":    ast.FlagIgnore,
	"quietly":   ast.FlagQuietly,
	"piecemeal": ast.FlagPiecemeal,
	"existing":  ast.FlagExisting,
}

func (p *Parser) parseActionDef() (ast.Stmt, error) {
	start, _ := p.peek()
	p.next() // "actions"
	var flags []ast.ActionFlag
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != lex.Word {
			return nil, p.errorf(tok, "expected action name")
		}
		if fl, ok := knownFlags[tok.Text]; ok {
			p.next()
			flags = append(flags, fl)
			continue
		}
		break
	}
	nameTok, err := p.expectKind(lex.Word)
	if err != nil {
		return nil, err
	}
	// The '{' must stay unlexed for RawBlock, so nothing after the name is
	// peeked: RawBlock is tried first and words are read one at a time
	// only when it does not find the brace.
	var bindVars []string
	body, err := p.lx.RawBlock()
	if err != nil {
		tok, perr := p.next()
		if perr != nil || !isKeyword(tok, "bind") {
			return nil, err
		}
		for {
			if body, err = p.lx.RawBlock(); err == nil {
				break
			}
			t, perr := p.next()
			if perr != nil || t.Kind != lex.Word {
				return nil, err
			}
			bindVars = append(bindVars, t.Text)
		}
	}
	return &ast.ActionDef{P: start.Pos, Name: nameTok.Text, Flags: flags, BindVars: bindVars, Commands: body}, nil
}

// --- expressions ---

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != lex.OrOr {
			return x, nil
		}
		p.next()
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &ast.BinExpr{P: tok.Pos, Op: "||", X: x, Y: y}
	}
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != lex.AndAnd {
			return x, nil
		}
		p.next()
		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		x = &ast.BinExpr{P: tok.Pos, Op: "&&", X: x, Y: y}
	}
}

func (p *Parser) parseNot() (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == lex.Bang {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.NotExpr{P: tok.Pos, X: x}, nil
	}
	return p.parseCmp()
}

var cmpOps = map[lex.Kind]string{
	lex.Assign: "=",
	lex.Ne:     "!=",
	lex.Lt:     "<",
	lex.Gt:     ">",
	lex.Le:     "<=",
	lex.Ge:     ">=",
}

func (p *Parser) parseCmp() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[tok.Kind]; ok {
		p.next()
		y, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.BinExpr{P: tok.Pos, Op: op, X: x, Y: y}, nil
	}
	if isKeyword(tok, "in") {
		p.next()
		y, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.BinExpr{P: tok.Pos, Op: "in", X: x, Y: y}, nil
	}
	return x, nil
}

var exprStop = map[lex.Kind]bool{
	lex.LBrace: true, lex.RBrace: true, lex.RBrack: true,
	lex.AndAnd: true, lex.OrOr: true, lex.Eq: true, lex.Ne: true,
	lex.Lt: true, lex.Gt: true, lex.Le: true, lex.Ge: true,
	lex.Semi: true, lex.Colon: true,
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case lex.LBrack:
		call, err := p.parseBracketInvoke()
		if err != nil {
			return nil, err
		}
		return &ast.RuleExpr{P: tok.Pos, Call: call}, nil
	default:
		list, err := p.parseArgListUntil(exprStop)
		if err != nil {
			return nil, err
		}
		return &ast.ListExpr{P: tok.Pos, List: list}, nil
	}
}
