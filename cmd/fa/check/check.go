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

// Package check implements the front end of the integrity checker: it loads heap files, checks their integrity and
// prints the shape of their connection graph.
package check

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/forest"
	"github.com/awslabs/ar-go-forest/analysis/integrity"
	"github.com/awslabs/ar-go-forest/cmd/fa/tools"
	"github.com/awslabs/ar-go-forest/internal/formatutil"
	"github.com/awslabs/ar-go-forest/internal/funcutil"
)

// Usage of the check command
const Usage = `Check the integrity of forest automata.
Usage:
  fa check [options] <heap file(s)>
Examples:
  % fa check -types types.yaml list.yaml dll.yaml
`

// Run checks every heap file named by the arguments of flags. Returns an error if some heap is inconsistent.
func Run(flags tools.CommonFlags) error {
	files := flags.FlagSet.Args()
	if len(files) == 0 {
		return fmt.Errorf("expected at least one heap file")
	}
	s, err := tools.NewSession(flags)
	if err != nil {
		return err
	}

	failed := 0
	for _, file := range files {
		h, err := s.LoadHeap(file)
		if err != nil {
			return err
		}
		if flags.Verbose {
			fmt.Print(formatutil.Indent(h.FAE.String(), "  "))
		}
		err = integrity.New(h.FAE, s.Logger).Check()
		fmt.Printf("%s: %s\n", formatutil.Bold(file), formatutil.Status(err == nil, "consistent", "inconsistent"))
		if err != nil {
			failed++
			fmt.Printf("  %s\n", formatutil.Red(err))
			continue
		}
		printShape(h.FAE)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d heaps are inconsistent", failed, len(files))
	}
	return nil
}

func printShape(f *forest.FAE) {
	g := f.ConnectionGraph()
	for i := 0; i < f.RootCount(); i++ {
		if !f.HasRoot(i) {
			continue
		}
		fmt.Printf("  root %d -> %s\n", i, formatutil.Cyan(g.Signature(i)))
	}
	if cyclic := g.CyclicRoots(); len(cyclic) > 0 {
		fmt.Printf("  cyclic roots: %s\n", formatutil.Yellow(joinInts(cyclic)))
	}
	if garbage := f.GarbageRoots(); len(garbage) > 0 {
		fmt.Printf("  garbage roots: %s\n", formatutil.Red(joinInts(garbage)))
	}
}

func joinInts(a []int) string {
	return strings.Join(funcutil.Map(a, func(i int) string { return fmt.Sprint(i) }), ", ")
}
