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

package data

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Data
		wantErr bool
	}{
		{name: "undef", input: "undef", want: NewUndef()},
		{name: "unknown", input: "unknown", want: NewUnknown()},
		{name: "null", input: " null ", want: NewNull()},
		{name: "negative int", input: "int:-3", want: NewInt(-3)},
		{name: "bool", input: "bool:true", want: NewBool(true)},
		{name: "ref", input: "ref:2", want: NewRef(2)},
		{name: "ref with displacement", input: "ref:1+8", want: NewRefDispl(1, 8)},
		{name: "missing tag", input: "q0", wantErr: true},
		{name: "bad int", input: "int:x", wantErr: true},
		{name: "negative root", input: "ref:-1", wantErr: true},
		{name: "unknown tag", input: "ptr:0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringIsParseable(t *testing.T) {
	values := []Data{NewUndef(), NewNull(), NewInt(42), NewBool(false), NewRef(3), NewRefDispl(0, 16)}
	for _, v := range values {
		got, err := Parse(v.String())
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", v.String(), err)
			continue
		}
		if got != v {
			t.Errorf("Parse(%q) = %v, want %v", v.String(), got, v)
		}
	}
}

func TestWithRoot(t *testing.T) {
	if got := NewRefDispl(1, 8).WithRoot(4); got != NewRefDispl(4, 8) {
		t.Errorf("WithRoot on reference = %v", got)
	}
	if got := NewInt(1).WithRoot(4); got != NewInt(1) {
		t.Errorf("WithRoot on integer = %v", got)
	}
}
