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

package tools

import (
	"strings"
	"testing"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint for %q: %q", errorMsg, hint)
	}
}

func TestHintForFlagAfterFiles(t *testing.T) {
	errorMsg := "could not read heap file: open -verbose: no such file or directory"
	validateHint(t, errorMsg, "all command line flags should be before the paths")
}

func TestHintForBadYaml(t *testing.T) {
	errorMsg := "could not load heap file list.yaml: could not unmarshal heap file: yaml: line 3: did not find expected key"
	validateHint(t, errorMsg, "yaml documents")
}

func TestHintForUnknownType(t *testing.T) {
	errorMsg := "could not load heap file list.yaml: root 0: unknown type: node"
	validateHint(t, errorMsg, "type database")
}

func TestNoHint(t *testing.T) {
	if hint := HintForErrorMessage("intersection is empty"); hint != "" {
		t.Errorf("expected no hint, got %q", hint)
	}
}
