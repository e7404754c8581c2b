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

package funcutil

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	if diff := cmp.Diff([]string{"1", "2", "3"}, got); diff != "" {
		t.Errorf("Map (-want +got):\n%s", diff)
	}
	if len(Map(nil, strconv.Itoa)) != 0 {
		t.Errorf("Map of nil should be empty")
	}
}

func TestExists(t *testing.T) {
	even := func(x int) bool { return x%2 == 0 }
	if !Exists([]int{1, 3, 4}, even) {
		t.Errorf("4 is even")
	}
	if Exists([]int{1, 3}, even) {
		t.Errorf("no element is even")
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 1, "c": 2, "a": 3})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("SortedKeys (-want +got):\n%s", diff)
	}
}

func TestSetToOrderedSlice(t *testing.T) {
	got := SetToOrderedSlice(map[int]bool{3: true, 1: true, 2: false})
	if diff := cmp.Diff([]int{1, 3}, got); diff != "" {
		t.Errorf("SetToOrderedSlice (-want +got):\n%s", diff)
	}
}
