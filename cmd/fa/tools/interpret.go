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

import "regexp"

// Captures errors happening while reading a heap or a type database
var regexCouldNotLoad = regexp.MustCompile("could not (load|read) (heap file|type database)")

// Captures yaml syntax errors
var regexUnmarshal = regexp.MustCompile("could not unmarshal")

// Captures references to types that were never declared
var regexUnknownType = regexp.MustCompile("unknown type")

// Captures the kind of error that happen when you put a flag at the end instead of heap files
var regexFlagAsFile = regexp.MustCompile("open -(\\w+)")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexUnknownType.MatchString(errMsg) {
		return "declare the type in the types section of the heap file, or in the type database (-types)"
	}
	if regexCouldNotLoad.MatchString(errMsg) {
		if regexFlagAsFile.MatchString(errMsg) {
			return "all command line flags should be before the paths to the heap files"
		}
		if regexUnmarshal.MatchString(errMsg) {
			return "heap files and type databases are yaml documents, check the syntax of the file"
		}
		return "make sure the paths to the heap files are correct"
	}
	return ""
}
