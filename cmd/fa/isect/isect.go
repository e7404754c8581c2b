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

// Package isect implements the front end of the intersection of two forest automata.
package isect

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/integrity"
	"github.com/awslabs/ar-go-forest/analysis/symstate"
	"github.com/awslabs/ar-go-forest/cmd/fa/tools"
	"github.com/awslabs/ar-go-forest/internal/formatutil"
	"github.com/awslabs/ar-go-forest/internal/funcutil"
)

// Usage of the isect command
const Usage = `Intersect two forest automata. The result keeps the root order of the second one.
Usage:
  fa isect [options] <lhs heap file> <rhs heap file>
Examples:
  % fa isect -check bwd.yaml fwd.yaml
`

// Flags represents the parsed isect sub-command flags.
type Flags struct {
	tools.CommonFlags
	Check bool
}

// NewFlags returns the parsed isect sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("isect")
	check := flags.FlagSet.Bool("check", false, "check the integrity of the intersection")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, Check: *check}, nil
}

// Run intersects the two heap files named by the arguments of flags and prints the result
func Run(flags Flags) error {
	files := flags.FlagSet.Args()
	if len(files) != 2 {
		return fmt.Errorf("expected two heap files, got %d", len(files))
	}
	s, err := tools.NewSession(flags.CommonFlags)
	if err != nil {
		return err
	}
	lhs, err := s.LoadHeap(files[0])
	if err != nil {
		return err
	}
	rhs, err := s.LoadHeap(files[1])
	if err != nil {
		return err
	}

	res := symstate.Intersect(
		symstate.Snapshot{FAE: lhs.FAE, Regs: lhs.Regs},
		symstate.Snapshot{FAE: rhs.FAE, Regs: rhs.Regs},
		s.Logger)
	if res.FAE.IsEmpty() {
		fmt.Println(formatutil.Yellow("the intersection is empty"))
		return nil
	}
	if len(res.Regs) > 0 {
		regs := funcutil.Map(res.Regs, func(d data.Data) string { return d.String() })
		fmt.Printf("regs: %s\n", strings.Join(regs, " "))
	}
	fmt.Print(res.FAE)
	if flags.Check {
		if err := integrity.New(res.FAE, s.Logger).Check(); err != nil {
			return fmt.Errorf("the intersection is inconsistent: %w", err)
		}
		fmt.Println(formatutil.Green("the intersection is consistent"))
	}
	return nil
}
