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

// Package control defines the cooperative signals the heap abstraction core returns to the driver of the analysis.
// A Signal is a normal value, never an error: the driver decides whether to honor it.
package control

// Status is the tag of a Signal
type Status int

const (
	// Continue means the operation completed and the analysis may proceed
	Continue Status = iota
	// Empty means the operation produced an automaton with an empty language
	Empty
	// RestartRequested means the abstraction vocabulary changed and exploration should restart
	RestartRequested
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Empty:
		return "empty"
	case RestartRequested:
		return "restart"
	default:
		return "unknown"
	}
}

// Signal is the result of an operation that may ask the driver to change course
type Signal struct {
	Status Status
	Reason string
}

// Proceed returns the Continue signal
func Proceed() Signal {
	return Signal{Status: Continue}
}

// EmptyResult returns the Empty signal
func EmptyResult() Signal {
	return Signal{Status: Empty}
}

// Restart returns a restart request with a reason
func Restart(reason string) Signal {
	return Signal{Status: RestartRequested, Reason: reason}
}

// IsRestart returns true if the signal requests a restart
func (s Signal) IsRestart() bool {
	return s.Status == RestartRequested
}

// IsEmpty returns true if the signal reports an empty result
func (s Signal) IsEmpty() bool {
	return s.Status == Empty
}

func (s Signal) String() string {
	if s.Status != RestartRequested {
		return s.Status.String()
	}
	if s.Reason == "" {
		return "a restart is requested."
	}
	return "a restart is requested (" + s.Reason + ")."
}
