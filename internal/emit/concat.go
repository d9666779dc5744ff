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

package emit

import "strings"

// continuesPosix reports whether line's trailing token means "more of
// this shell command follows on the next source line", per spec.md
// §4.9 step 1 and jamp's prepare_action.
func continuesPosix(line string) bool {
	switch {
	case strings.HasSuffix(line, "\\"),
		strings.HasSuffix(line, "&&"),
		strings.HasSuffix(line, ";"),
		strings.HasSuffix(line, "("),
		strings.HasSuffix(line, "|"):
		return true
	case line == "then" || strings.HasSuffix(line, " then"):
		return true
	case line == "do" || strings.HasSuffix(line, " do"):
		return true
	case line == "else" || strings.HasSuffix(line, " else"):
		return true
	}
	return false
}

// trackQuotes updates the open-quote stack for one line (a quote left
// open at line end means the next line is still inside it, so it must
// be space-joined rather than treated as a new Ninja pseudo-line).
func trackQuotes(quotes []byte, line string, chars string) []byte {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if strings.IndexByte(chars, c) < 0 {
			continue
		}
		if len(quotes) > 0 && quotes[len(quotes)-1] == c {
			quotes = quotes[:len(quotes)-1]
		} else {
			quotes = append(quotes, c)
		}
	}
	return quotes
}

// concatPosix implements jamp's UpdatingAction.prepare_action: lines
// ending in a shell continuation token, or inside an open quote, are
// space-joined; otherwise a new Ninja pseudo-line begins, separated by
// " ; $\n ".
func concatPosix(lines []string) string {
	var out strings.Builder
	var quotes []byte
	startNew := false
	for _, line := range lines {
		if startNew {
			out.WriteString(" ; $\n ")
		}
		startNew = false

		quotes = trackQuotes(quotes, line, "'\"`")

		switch {
		case strings.HasSuffix(line, "\\"):
			out.WriteString(line[:len(line)-1])
		case continuesPosix(line):
			out.WriteString(line)
			out.WriteByte(' ')
		case len(quotes) > 0:
			out.WriteString(line)
			out.WriteByte(' ')
		default:
			out.WriteString(line)
			startNew = true
		}
	}
	return out.String()
}

// concatWindows implements jamp's prepare_windows_action: the `$^`
// marker is a samurai (github.com/ildus/samurai) extension that forces
// a literal newline inside the generated shell script.
func concatWindows(lines []string) string {
	var out strings.Builder
	var quotes []byte
	addNewline := false
	for _, line := range lines {
		if addNewline {
			out.WriteString(" $\n$^")
		}
		addNewline = false

		quotes = trackQuotes(quotes, line, "'\"`")

		switch {
		case strings.HasSuffix(line, "^"):
			out.WriteString(line[:len(line)-1])
		case len(quotes) > 0:
			out.WriteString(line)
			out.WriteByte(' ')
		default:
			out.WriteString(line)
			addNewline = true
		}
	}
	return out.String()
}

// concatVMS implements jamp's prepare_vms_action: every pseudo-line is
// prefixed with "$$" (the VMS DCL comment-to-continuation convention
// this module borrows) and a trailing '-' is DCL's own continuation.
func concatVMS(lines []string) string {
	var out strings.Builder
	out.WriteString("$$ ")
	var quotes []byte
	addNewline := false
	for _, line := range lines {
		if addNewline {
			out.WriteString(" $\n$^$$")
		}
		addNewline = false

		quotes = trackQuotes(quotes, line, "\"")

		switch {
		case strings.HasSuffix(line, "-"):
			out.WriteString(line[:len(line)-1])
		case len(quotes) > 0:
			out.WriteString(line)
			out.WriteByte(' ')
		default:
			out.WriteString(line)
			addNewline = true
		}
	}
	return out.String()
}
