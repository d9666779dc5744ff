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

// Package path implements the Jam pathname grammar: $(...) values carry
// an implied grist/root/dir/base/suffix/member tuple, and this package
// parses a string into that tuple and rebuilds a string from it.
package path

import (
	"strings"

	"github.com/maruel/jamninja/internal/platform"
)

// Parts is the six-way decomposition of a Jam pathname described in
// spec.md §4.1.
type Parts struct {
	Grist  string // text inside <...>
	Root   string // drive/prefix
	Dir    string
	Base   string
	Suffix string // includes the leading dot
	Member string // text inside (...)
}

// Parse splits s into its six Jam pathname components. Grist is the
// leading <...> run, member is a trailing (...) run, and the remainder
// is split the way a filesystem path is: root+dir / base+suffix.
func Parse(s string) Parts {
	var p Parts

	if strings.HasPrefix(s, "<") {
		if end := strings.Index(s, ">"); end >= 0 {
			p.Grist = s[1:end]
			s = s[end+1:]
		}
	}

	if strings.HasSuffix(s, ")") {
		if start := strings.LastIndex(s, "("); start >= 0 {
			p.Member = s[start+1 : len(s)-1]
			s = s[:start]
		}
	}

	dir, base := splitDirBase(s)
	p.Root, p.Dir = splitRoot(dir)

	if dot := lastDot(base); dot > 0 {
		p.Base = base[:dot]
		p.Suffix = base[dot:]
	} else {
		p.Base = base
	}

	return p
}

// splitDirBase splits "a/b/c.o" into dir "a/b/" and base "c.o". A path
// with no slash has an empty dir.
func splitDirBase(s string) (dir, base string) {
	i := strings.LastIndexAny(s, "/\\")
	if i < 0 {
		return "", s
	}
	return s[:i+1], s[i+1:]
}

// splitRoot peels a drive-letter prefix ("X:") off dir, on every
// platform; UNC prefixes are not recognised and stay in rest.
func splitRoot(dir string) (root, rest string) {
	if len(dir) >= 2 && dir[1] == ':' && isAlpha(dir[0]) {
		return dir[:2], dir[2:]
	}
	return "", dir
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// lastDot finds the suffix-introducing '.' in base, i.e. the last dot
// that is not the leading character (so ".gitignore" has no suffix).
func lastDot(base string) int {
	for i := len(base) - 1; i > 0; i-- {
		if base[i] == '.' {
			return i
		}
	}
	return -1
}

// Build re-emits Parts as a string. When binding is true the grist is
// dropped (a bound filesystem path never carries its grist) and empty
// directory components are omitted, matching spec.md §4.1's
// build(binding=bool).
func Build(p Parts, binding bool, host platform.Bridge) string {
	var b strings.Builder
	if !binding && p.Grist != "" {
		b.WriteByte('<')
		b.WriteString(p.Grist)
		b.WriteByte('>')
	}

	if host != nil && host.IsVMS() {
		buildVMS(&b, p)
	} else {
		b.WriteString(p.Root)
		if p.Dir != "" {
			dir := p.Dir
			if host != nil && host.IsWindows() {
				dir = strings.ReplaceAll(dir, "/", "\\")
			}
			b.WriteString(dir)
		}
		b.WriteString(p.Base)
		b.WriteString(p.Suffix)
	}

	if p.Member != "" {
		b.WriteByte('(')
		b.WriteString(p.Member)
		b.WriteByte(')')
	}
	return b.String()
}

// buildVMS emits VMS bracketed directory syntax: "dir/sub/" becomes
// "[.dir.sub]", an empty dir becomes "[]" only when root is also empty.
func buildVMS(b *strings.Builder, p Parts) {
	b.WriteString(p.Root)
	dir := strings.Trim(p.Dir, "/")
	if dir != "" {
		b.WriteByte('[')
		b.WriteByte('.')
		b.WriteString(strings.ReplaceAll(dir, "/", "."))
		b.WriteByte(']')
	} else if p.Root == "" {
		b.WriteString("[]")
	}
	b.WriteString(p.Base)
	b.WriteString(p.Suffix)
}

// Join joins a parent directory and a child path the way Jam's SubDir /
// LOCATE / SEARCH machinery does: platform-aware, without collapsing an
// already-absolute child.
func Join(parent, child string, host platform.Bridge) string {
	if child == "" {
		return parent
	}
	if IsAbs(child, host) {
		return child
	}
	sep := "/"
	if host != nil && host.IsWindows() {
		sep = "\\"
	}
	if parent == "" {
		return child
	}
	if strings.HasSuffix(parent, "/") || strings.HasSuffix(parent, "\\") {
		return parent + child
	}
	return parent + sep + child
}

// IsAbs reports whether s is already an absolute path under host's
// family of path conventions.
func IsAbs(s string, host platform.Bridge) bool {
	if s == "" {
		return false
	}
	if host != nil && host.IsWindows() {
		if len(s) >= 2 && s[1] == ':' && isAlpha(s[0]) {
			return true
		}
		if strings.HasPrefix(s, `\\`) {
			return true
		}
	}
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "[")
}
