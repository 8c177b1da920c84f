// Copyright the peryan contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Command peryan is the compiler driver (spec.md §6 "EXTERNAL INTERFACES").
// It is the only place in the module allowed to read an environment
// variable or parse os.Args -- everything downstream receives an
// explicit *config.CompilerConfig (spec.md §9, "Global mutable state").
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			// Internal contract violations are programmer bugs, not part
			// of the user-facing LexerError/ParserError/SemanticsError
			// taxonomy (spec.md §7); report them distinctly and exit
			// non-zero rather than let the runtime print a raw panic.
			fmt.Fprintf(os.Stderr, "peryan: internal error: %v\n", r)
			os.Exit(2)
		}
	}()
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	Execute()
}
