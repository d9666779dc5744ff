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

package compile

import "fmt"

// Pattern is a compiled Jam glob (spec.md §4.4 switch: "? * []"), used
// to match a `switch` value against each case label.
type Pattern struct {
	src string
}

// CompilePattern validates src as a Jam glob pattern. Jam glob syntax is
// small enough that no intermediate representation is worth building:
// Match below interprets src directly. Compilation here exists to
// surface an unterminated "[...]" character class at compile time
// instead of at first match.
func CompilePattern(src string) (Pattern, error) {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return Pattern{}, fmt.Errorf("unmatched ]")
			}
		}
	}
	if depth != 0 {
		return Pattern{}, fmt.Errorf("unterminated [")
	}
	return Pattern{src: src}, nil
}

// Match reports whether s matches the pattern's `?`, `*`, `[...]` glob
// syntax, anchored at both ends (Jam switch patterns always match the
// whole value).
func (p Pattern) Match(s string) bool {
	return globMatch(p.src, s)
}

func globMatch(pat, s string) bool {
	// Standard backtracking glob matcher generalized with a '[...]'
	// character class (spec.md §4.4: "pattern uses Jam glob [ ] ? *
	// matching").
	var matchHere func(pi, si int) bool
	matchHere = func(pi, si int) bool {
		for pi < len(pat) {
			switch pat[pi] {
			case '*':
				for pi < len(pat) && pat[pi] == '*' {
					pi++
				}
				if pi == len(pat) {
					return true
				}
				for k := si; k <= len(s); k++ {
					if matchHere(pi, k) {
						return true
					}
				}
				return false
			case '?':
				if si >= len(s) {
					return false
				}
				pi++
				si++
			case '[':
				if si >= len(s) {
					return false
				}
				end := pi + 1
				neg := end < len(pat) && (pat[end] == '!' || pat[end] == '^')
				if neg {
					end++
				}
				start := end
				for end < len(pat) && pat[end] != ']' {
					end++
				}
				if end >= len(pat) {
					return false
				}
				matched := classMatches(pat[start:end], s[si])
				if neg {
					matched = !matched
				}
				if !matched {
					return false
				}
				pi = end + 1
				si++
			default:
				if si >= len(s) || pat[pi] != s[si] {
					return false
				}
				pi++
				si++
			}
		}
		return si == len(s)
	}
	return matchHere(0, 0)
}

func classMatches(class string, c byte) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == c {
			return true
		}
	}
	return false
}
