// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-forest/cmd/fa/check"
	"github.com/awslabs/ar-go-forest/cmd/fa/isect"
	"github.com/awslabs/ar-go-forest/cmd/fa/tools"
	"github.com/awslabs/ar-go-forest/cmd/fa/types"
)

// version is set at build time
var version = "devel"

const usage = `fa: forest automata heap abstraction tools
Usage:
  fa [tool] [options] <heap file(s)>
Tools:
  - check: checks the integrity of forest automata and prints their connection graph
  - isect: intersects two forest automata
  - types: lists the types of a type database
Examples:
  Check a heap: fa check -types types.yaml list.yaml
  Intersect two heaps: fa isect -config config.yaml bwd.yaml fwd.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "check":
		flags, err := tools.NewCommonFlags("check", args, check.Usage)
		if err != nil {
			errExit(err)
		}
		if err := check.Run(flags); err != nil {
			errExit(err)
		}
	case "isect":
		flags, err := isect.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := isect.Run(flags); err != nil {
			errExit(err)
		}
	case "types":
		flags, err := tools.NewCommonFlags("types", args, types.Usage)
		if err != nil {
			errExit(err)
		}
		if err := types.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
