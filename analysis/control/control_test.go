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

package control

import "testing"

func TestSignalString(t *testing.T) {
	tests := []struct {
		name string
		s    Signal
		want string
	}{
		{name: "continue", s: Proceed(), want: "continue"},
		{name: "empty", s: EmptyResult(), want: "empty"},
		{name: "restart without reason", s: Restart(""), want: "a restart is requested."},
		{name: "restart", s: Restart("a new box encountered"), want: "a restart is requested (a new box encountered)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
	if !Restart("x").IsRestart() || Proceed().IsRestart() {
		t.Errorf("IsRestart mismatch")
	}
	if !EmptyResult().IsEmpty() || Proceed().IsEmpty() {
		t.Errorf("IsEmpty mismatch")
	}
}
