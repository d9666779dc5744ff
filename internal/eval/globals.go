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
	"os"
	"runtime"
	"strings"

	"github.com/maruel/jamninja/internal/platform"
	"github.com/maruel/jamninja/internal/value"
)

// JamVersion is this evaluator's synthesized JAMVERSION, grounded on
// the teacher's own NinjaVersion constant (version.go): a fixed string
// bumped by hand, not computed.
const JamVersion = "2.5jamninja"

// envBlacklist is never copied from the process environment into the
// global scope (spec.md §3): these leak credentials or terminal state
// that a Jamfile has no business inspecting.
var envBlacklist = map[string]bool{
	"LS_COLORS":    true,
	"GITHUB_TOKEN": true,
}

// pathLikeVars are split on the platform path separator into lists
// instead of being copied over as a single-element scalar.
var pathLikeVars = map[string]bool{
	"PATH":            true,
	"LD_LIBRARY_PATH": true,
	"PKG_CONFIG_PATH": true,
	"CLASSPATH":       true,
	"PYTHONPATH":      true,
}

// newGlobalScope builds the environment-derived scope described in
// spec.md §3: the process environment minus envBlacklist, PATH-like
// variables split into lists, plus the synthesized OS-family flags.
func newGlobalScope(host platform.Bridge) map[string]value.List {
	scope := map[string]value.List{}
	for _, kv := range os.Environ() {
		i := strings.IndexByte(kv, '=')
		if i < 0 {
			continue
		}
		name, val := kv[:i], kv[i+1:]
		if envBlacklist[name] {
			continue
		}
		if pathLikeVars[name] && val != "" {
			scope[name] = value.List(strings.Split(val, host.PathSeparator()))
			continue
		}
		scope[name] = value.List{val}
	}

	scope["JAMVERSION"] = value.List{JamVersion}
	scope["JAMUNAME"] = value.List{platform.OSName()}
	scope["OS"] = value.List{platform.OSName()}
	scope["OSPLAT"] = value.List{osplat()}

	switch {
	case host.IsVMS():
		scope["VMS"] = value.List{"true"}
	case host.IsWindows():
		scope["NT"] = value.List{"true"}
	default:
		scope["UNIX"] = value.List{"true"}
	}

	return scope
}

// osplat mirrors the teacher's GOARCH-derived platform tagging idiom
// (debug_flags.go decides process-wide booleans once from the runtime
// package); Jam's OSPLAT historically distinguishes CPU family, which
// maps cleanly onto GOARCH.
func osplat() string {
	return strings.ToUpper(runtime.GOARCH)
}
