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

// flowKind is one of the three control-flow variants spec.md §9 asks to
// model explicitly instead of as exceptions.
type flowKind int

const (
	flowNone flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

// flow is threaded back out of every execBlock/execStmt call; a
// flowNone result means "ran to completion, keep going".
type flow struct {
	kind  flowKind
	value value.List
}

var noFlow = flow{kind: flowNone}
