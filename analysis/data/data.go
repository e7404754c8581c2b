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

// Package data defines the tagged values stored in forest automata leaves, variables and registers.
package data

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a Data value
type Kind int

const (
	// Undef is an undefined value, e.g. a freshly allocated field
	Undef Kind = iota
	// Unknown is any value of the right type
	Unknown
	// Null is the null pointer
	Null
	// Int is an integer
	Int
	// Bool is a boolean
	Bool
	// Ref is a reference to a root of a forest automaton, with a displacement
	Ref
)

func (k Kind) String() string {
	switch k {
	case Undef:
		return "undef"
	case Unknown:
		return "unknown"
	case Null:
		return "null"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Ref:
		return "ref"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Data is a tagged value. Data is comparable, two values are equal iff they have the same kind and payload.
// Payload fields that do not belong to the kind are always zero.
type Data struct {
	Kind  Kind
	Int   int64
	Bool  bool
	Root  int
	Displ int
}

// NewUndef returns the undefined value
func NewUndef() Data { return Data{Kind: Undef} }

// NewUnknown returns the unknown value
func NewUnknown() Data { return Data{Kind: Unknown} }

// NewNull returns the null pointer
func NewNull() Data { return Data{Kind: Null} }

// NewInt returns an integer value
func NewInt(v int64) Data { return Data{Kind: Int, Int: v} }

// NewBool returns a boolean value
func NewBool(b bool) Data { return Data{Kind: Bool, Bool: b} }

// NewRef returns a reference to the entry of root with no displacement
func NewRef(root int) Data { return Data{Kind: Ref, Root: root} }

// NewRefDispl returns a reference to root with displacement displ
func NewRefDispl(root int, displ int) Data { return Data{Kind: Ref, Root: root, Displ: displ} }

func (d Data) IsUndef() bool   { return d.Kind == Undef }
func (d Data) IsUnknown() bool { return d.Kind == Unknown }
func (d Data) IsNull() bool    { return d.Kind == Null }
func (d Data) IsInt() bool     { return d.Kind == Int }
func (d Data) IsBool() bool    { return d.Kind == Bool }
func (d Data) IsRef() bool     { return d.Kind == Ref }

// WithRoot returns a copy of the reference d pointing to root. Non-reference values are returned unchanged.
func (d Data) WithRoot(root int) Data {
	if d.Kind != Ref {
		return d
	}
	d.Root = root
	return d
}

// String returns the literal form of the value, which Parse reads back.
func (d Data) String() string {
	switch d.Kind {
	case Int:
		return "int:" + strconv.FormatInt(d.Int, 10)
	case Bool:
		return "bool:" + strconv.FormatBool(d.Bool)
	case Ref:
		if d.Displ != 0 {
			return fmt.Sprintf("ref:%d+%d", d.Root, d.Displ)
		}
		return "ref:" + strconv.Itoa(d.Root)
	default:
		return d.Kind.String()
	}
}

// Parse reads a value literal: undef, unknown, null, int:N, bool:B, ref:R or ref:R+D
func Parse(s string) (Data, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "undef":
		return NewUndef(), nil
	case "unknown":
		return NewUnknown(), nil
	case "null":
		return NewNull(), nil
	}
	tag, payload, found := strings.Cut(s, ":")
	if !found {
		return Data{}, fmt.Errorf("invalid data literal %q", s)
	}
	switch tag {
	case "int":
		v, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Data{}, fmt.Errorf("invalid integer in %q: %w", s, err)
		}
		return NewInt(v), nil
	case "bool":
		b, err := strconv.ParseBool(payload)
		if err != nil {
			return Data{}, fmt.Errorf("invalid boolean in %q: %w", s, err)
		}
		return NewBool(b), nil
	case "ref":
		rootStr, displStr, hasDispl := strings.Cut(payload, "+")
		root, err := strconv.Atoi(rootStr)
		if err != nil || root < 0 {
			return Data{}, fmt.Errorf("invalid root in %q", s)
		}
		displ := 0
		if hasDispl {
			displ, err = strconv.Atoi(displStr)
			if err != nil {
				return Data{}, fmt.Errorf("invalid displacement in %q: %w", s, err)
			}
		}
		return NewRefDispl(root, displ), nil
	default:
		return Data{}, fmt.Errorf("unknown data tag %q in %q", tag, s)
	}
}
