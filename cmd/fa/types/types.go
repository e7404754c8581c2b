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

// Package types lists the memory-cell types known to the box manager.
package types

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-forest/cmd/fa/tools"
	"github.com/awslabs/ar-go-forest/internal/formatutil"
	"github.com/awslabs/ar-go-forest/internal/funcutil"
)

// Usage of the types command
const Usage = `List the types of a type database and of heap files.
Usage:
  fa types [options] [heap file(s)]
Examples:
  % fa types -types types.yaml
`

// Run loads the type database and the heap files named by flags and prints every declared type
func Run(flags tools.CommonFlags) error {
	s, err := tools.NewSession(flags)
	if err != nil {
		return err
	}
	for _, file := range flags.FlagSet.Args() {
		if _, err := s.LoadHeap(file); err != nil {
			return err
		}
	}
	types := s.Boxes.TypeInfos()
	if len(types) == 0 {
		fmt.Println(formatutil.Faint("no types declared"))
		return nil
	}
	for _, t := range types {
		sels := funcutil.Map(t.Selectors(), func(o int) string { return fmt.Sprintf("+%d", o) })
		fmt.Printf("%s: %s\n", formatutil.Bold(t.Name()), strings.Join(sels, " "))
	}
	return nil
}
