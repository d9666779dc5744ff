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

import (
	"fmt"
	"io"
	"strings"
)

// foldWidth is spec.md §6's "long lines are folded at column 120 with
// $\n continuations".
const foldWidth = 120

// TextWriter is the concrete Ninja sink: a minimal writer producing
// exactly the on-disk format spec.md §6 describes, grounded on kati's
// ninja.go emitBuild/emitNode line shape and Blueprint's ninjaWriter
// split between a rule/build/default writer and its caller.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter wraps w as a Sink.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (t *TextWriter) Rule(spec RuleSpec) error {
	if err := t.writeLine("rule " + spec.Name); err != nil {
		return err
	}
	if err := t.writeVar("command", spec.Command); err != nil {
		return err
	}
	if spec.Description != "" {
		if err := t.writeVar("description", spec.Description); err != nil {
			return err
		}
	}
	if spec.Depfile != "" {
		if err := t.writeVar("depfile", spec.Depfile); err != nil {
			return err
		}
	}
	if spec.Rspfile != "" {
		if err := t.writeVar("rspfile", spec.Rspfile); err != nil {
			return err
		}
	}
	if spec.RspfileContent != "" {
		if err := t.writeVar("rspfile_content", spec.RspfileContent); err != nil {
			return err
		}
	}
	if spec.Restat {
		if err := t.writeVar("restat", "1"); err != nil {
			return err
		}
	}
	if spec.Generator {
		if err := t.writeVar("generator", "1"); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextWriter) Build(spec BuildSpec) error {
	var b strings.Builder
	b.WriteString("build ")
	b.WriteString(strings.Join(spec.Outputs, " "))
	b.WriteString(": ")
	b.WriteString(spec.Rule)
	for _, in := range spec.Inputs {
		b.WriteByte(' ')
		b.WriteString(in)
	}
	if len(spec.Implicit) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(spec.Implicit, " "))
	}
	if len(spec.OrderOnly) > 0 {
		b.WriteString(" || ")
		b.WriteString(strings.Join(spec.OrderOnly, " "))
	}
	return t.writeLine(b.String())
}

func (t *TextWriter) Default(names []string) error {
	return t.writeLine("default " + strings.Join(names, " "))
}

func (t *TextWriter) writeVar(name, value string) error {
	return t.writeLine(fmt.Sprintf("  %s = %s", name, value))
}

// writeLine folds s at foldWidth using Ninja's "$\n" continuation,
// breaking only at a space so a single unbroken token is never split.
func (t *TextWriter) writeLine(s string) error {
	for len(s) > foldWidth {
		cut := strings.LastIndexByte(s[:foldWidth], ' ')
		if cut <= 0 {
			break
		}
		if _, err := io.WriteString(t.w, s[:cut]+" $\n    "); err != nil {
			return err
		}
		s = s[cut+1:]
	}
	_, err := io.WriteString(t.w, s+"\n")
	return err
}
