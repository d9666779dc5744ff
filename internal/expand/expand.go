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

// Package expand implements Jam's $(name[indices]:mods=value) variable
// expansion over lists-of-lists (spec.md §4.2). This is the teacher's
// EvalString/BindingEnv idea (eval_env.go: a token stream evaluated
// against a chain of scopes) generalized from Ninja's flat "$foo"
// substitution to Jam's product expansion over $(...) occurrences.
package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maruel/jamninja/internal/path"
	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/value"
)

// Env is the lookup surface the expander needs. The internal/eval
// Evaluator and the emitter's per-step environment implement it.
type Env interface {
	// Lookup returns the value of name, checking target-context first
	// (spec.md §4.2 "current-target lookup"), then the scope chain, then
	// an optional platform symbol provider. A variable with no binding
	// anywhere returns a nil (empty) List.
	Lookup(name string) value.List
}

// Sigil protects a literal '$' through the round trip described in
// spec.md §4.2: a Jam source author writes "$$" to mean "one literal
// dollar sign in the emitted shell command, not a $(...) reference";
// Expand turns that into one Sigil string, and FinalizeForNinja
// turns Sigil back into a single '$' after every genuine remaining '$'
// has been doubled for Ninja's own escaping.
const Sigil = "\x00JAMNINJA-DOLLAR\x00"

// FinalizeForNinja performs the last step of §4.2's round trip: double
// every '$' that is not part of a Sigil run (Ninja's own escaping), then
// collapse each Sigil back to a single literal '$'.
func FinalizeForNinja(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	// The sigil's literal '$' characters (there are none: Sigil uses NUL
	// bytes, not '$') survive the doubling above untouched; now lower it.
	return strings.ReplaceAll(s, Sigil, "$")
}

// Expand evaluates word (a raw word that may contain $(...) references)
// against env, producing the product-expanded list of output words
// described in spec.md §4.2. A literal "$$" in word is first folded to
// Sigil so it survives untouched.
func Expand(word string, env Env) (value.List, error) {
	word = strings.ReplaceAll(word, "$$", Sigil)
	segs, err := splitRefs(word)
	if err != nil {
		return nil, err
	}
	return productExpand(segs, env)
}

// segment is either literal text or a parsed $(...) reference.
type segment struct {
	literal string
	ref     *ref
}

type ref struct {
	name     string // may itself contain $(...) for indirect lookups
	indexLo  int    // 0 means unset
	indexHi  int    // 0 means unset; -1 means open-ended "n-"
	hasIndex bool
	mods     []modifier
}

type modifier struct {
	code  byte
	value string // raw, itself possibly containing $(...)
	has   bool
}

// splitRefs walks word once, splitting it into literal runs and
// top-level $(...) references (nested $(...) inside a reference's
// index/modifier value is captured as part of that reference's raw
// text and parsed recursively when the modifier is applied).
func splitRefs(word string) ([]segment, error) {
	var segs []segment
	var lit strings.Builder
	i := 0
	for i < len(word) {
		if word[i] == '$' && i+1 < len(word) && word[i+1] == '(' {
			if lit.Len() > 0 {
				segs = append(segs, segment{literal: lit.String()})
				lit.Reset()
			}
			end, err := matchParen(word, i+1)
			if err != nil {
				return nil, err
			}
			inner := word[i+2 : end]
			r, err := parseRef(inner)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{ref: r})
			i = end + 1
			continue
		}
		lit.WriteByte(word[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String()})
	}
	return segs, nil
}

// matchParen returns the index of the ')' matching the '(' at open.
func matchParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated $(...) in %q", s)
}

// parseRef parses the inside of a $(...): name[indices]:mods.
func parseRef(inner string) (*ref, error) {
	r := &ref{}
	name := inner
	rest := ""
	if i := topLevelIndex(inner, ':'); i >= 0 {
		name, rest = inner[:i], inner[i+1:]
	} else if i := strings.IndexByte(inner, '['); i >= 0 {
		name, rest = inner[:i], inner[i:]
	}

	if i := strings.IndexByte(name, '['); i >= 0 {
		idxEnd := strings.IndexByte(name[i:], ']')
		if idxEnd < 0 {
			return nil, fmt.Errorf("unterminated index in $(%s)", inner)
		}
		idxStr := name[i+1 : i+idxEnd]
		lo, hi, err := parseIndex(idxStr)
		if err != nil {
			return nil, err
		}
		r.indexLo, r.indexHi, r.hasIndex = lo, hi, true
		name = name[:i]
	}
	r.name = name

	if rest != "" {
		if strings.HasPrefix(rest, "[") {
			idxEnd := strings.IndexByte(rest, ']')
			if idxEnd < 0 {
				return nil, fmt.Errorf("unterminated index in $(%s)", inner)
			}
			lo, hi, err := parseIndex(rest[1:idxEnd])
			if err != nil {
				return nil, err
			}
			r.indexLo, r.indexHi, r.hasIndex = lo, hi, true
			rest = strings.TrimPrefix(rest[idxEnd+1:], ":")
		}
		mods, err := parseMods(rest)
		if err != nil {
			return nil, err
		}
		r.mods = mods
	}
	return r, nil
}

// topLevelIndex finds the first byte b in s that is not nested inside
// a $(...) span.
func topLevelIndex(s string, b byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		default:
			if s[i] == b && depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseIndex(s string) (lo, hi int, err error) {
	if s == "" {
		return 0, 0, fmt.Errorf("empty index")
	}
	if strings.HasSuffix(s, "-") {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, 0, err
		}
		return n, -1, nil
	}
	if i := strings.IndexByte(s, '-'); i > 0 {
		lo, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, 0, err
		}
		hi, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, err
		}
		return lo, hi, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}

// parseMods splits "G=foo:J=,:L" into modifier structs. Each modifier
// code is one of the letters in the closed set documented in
// spec.md §4.2; a modifier's value runs up to the next top-level ':'.
func parseMods(rest string) ([]modifier, error) {
	var mods []modifier
	for rest != "" {
		var part string
		if i := topLevelIndex(rest, ':'); i >= 0 {
			part, rest = rest[:i], rest[i+1:]
		} else {
			part, rest = rest, ""
		}
		if part == "" {
			continue
		}
		code := part[0]
		m := modifier{code: code}
		if len(part) > 1 && part[1] == '=' {
			m.value = part[2:]
			m.has = true
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// productExpand combines segs into the cartesian-product output word
// list described in spec.md §4.2: each $(...) occurrence contributes a
// list; an empty list at any occurrence vanishes the whole word.
func productExpand(segs []segment, env Env) (value.List, error) {
	words := []string{""}
	for _, seg := range segs {
		var values value.List
		if seg.ref != nil {
			vs, err := evalRef(seg.ref, env)
			if err != nil {
				return nil, err
			}
			values = vs
		} else {
			values = value.List{seg.literal}
		}
		if len(values) == 0 {
			return nil, nil
		}
		next := make([]string, 0, len(words)*len(values))
		for _, w := range words {
			for _, v := range values {
				next = append(next, w+v)
			}
		}
		words = next
	}
	return value.List(words), nil
}

func evalRef(r *ref, env Env) (value.List, error) {
	name := r.name
	if strings.Contains(name, "$(") {
		expanded, err := Expand(name, env)
		if err != nil {
			return nil, err
		}
		if len(expanded) == 0 {
			return nil, nil
		}
		name = expanded[0]
	}

	list := env.Lookup(name).Clone()

	if r.hasIndex {
		list = applyIndex(list, r.indexLo, r.indexHi)
	}

	return applyMods(list, r.mods, env)
}

// applyIndex implements the 1-based, inclusive, clamped [n], [n-],
// [n-m] syntax from spec.md §4.2.
func applyIndex(list value.List, lo, hi int) value.List {
	n := len(list)
	if n == 0 {
		return nil
	}
	if lo < 1 {
		lo = 1
	}
	if hi == -1 {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	if hi > n {
		hi = n
	}
	if lo > n {
		return nil
	}
	return list[lo-1 : hi]
}

func applyMods(list value.List, mods []modifier, env Env) (value.List, error) {
	host := platform.NewHost()
	for _, m := range mods {
		val := m.value
		if m.has && strings.Contains(val, "$(") {
			expanded, err := Expand(val, env)
			if err != nil {
				return nil, err
			}
			val = expanded.Join(" ")
		}
		switch m.code {
		case 'G':
			list = mapPath(list, func(p path.Parts) path.Parts { p.Grist = val; return p })
		case 'R':
			list = mapPath(list, func(p path.Parts) path.Parts { p.Root = val; return p })
		case 'P':
			list = mapList(list, func(s string) string {
				p := path.Parse(s)
				return strings.TrimRight(p.Dir, "/\\")
			})
		case 'D':
			list = mapPath(list, func(p path.Parts) path.Parts {
				p.Dir = val
				return p
			})
		case 'B':
			list = mapPath(list, func(p path.Parts) path.Parts { p.Base = val; return p })
		case 'S':
			list = mapPath(list, func(p path.Parts) path.Parts { p.Suffix = val; return p })
		case 'M':
			list = mapPath(list, func(p path.Parts) path.Parts { p.Member = val; return p })
		case 'E':
			if !list.Truth() {
				list = value.List{val}
			}
		case 'J':
			if len(list) > 0 {
				list = value.List{list.Join(val)}
			}
		case 'L':
			list = mapList(list, strings.ToLower)
		case 'U':
			list = mapList(list, strings.ToUpper)
		case 'T':
			list = mapList(list, func(s string) string { return translatePath(s, host) })
		case 'W':
			// No wildcard expansion is performed: the list passes through
			// unchanged, here and in every caller of Expand.
		}
	}
	return list, nil
}

func mapList(list value.List, f func(string) string) value.List {
	out := make(value.List, len(list))
	for i, s := range list {
		out[i] = f(s)
	}
	return out
}

func mapPath(list value.List, f func(path.Parts) path.Parts) value.List {
	out := make(value.List, len(list))
	for i, s := range list {
		p := f(path.Parse(s))
		out[i] = path.Build(p, false, platform.NewHost())
	}
	return out
}

// translatePath applies the :T "platform translate" modifier: forward
// slashes become backslashes on Windows, the reverse on Unix-likes.
func translatePath(s string, host *platform.Host) string {
	if host.IsWindows() {
		return strings.ReplaceAll(s, "/", "\\")
	}
	return strings.ReplaceAll(s, "\\", "/")
}

// ExpandList expands every word of words against env and concatenates
// the resulting lists in order, used to expand a full ArgList into one
// List.
func ExpandList(words []string, env Env) (value.List, error) {
	var out value.List
	for _, w := range words {
		vs, err := Expand(w, env)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}
