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

package check

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-forest/cmd/fa/tools"
)

func TestRun(t *testing.T) {
	tests := []struct {
		files   []string
		wantErr string
	}{
		{files: []string{"list.yaml"}},
		{files: []string{"list.yaml", "unconsumed.yaml"}, wantErr: "1 of 2 heaps are inconsistent"},
		{files: []string{"missing.yaml"}, wantErr: "could not read heap file"},
		{files: nil, wantErr: "expected at least one heap file"},
	}
	for _, test := range tests {
		t.Run(strings.Join(test.files, ","), func(t *testing.T) {
			args := []string{"-config", ""}
			for _, f := range test.files {
				args = append(args, filepath.Join("testdata", f))
			}
			flags, err := tools.NewCommonFlags("check", args, Usage)
			if err != nil {
				t.Fatalf("could not parse flags: %v", err)
			}
			err = Run(flags)
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("expected an error containing %q, got %v", test.wantErr, err)
			}
		})
	}
}
