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

/*
Package config provides the configuration and the logging of the heap abstraction core.

Use [Load](filename) to load a configuration from a specific filename, or [Parse] to read it from memory.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file is in yaml format. For example:

	options:
	  log-level: 4
	  restart-after-box-discovery: true
	  check-integrity: false
	type-database: types.yaml

The type database declares memory-cell types, see the heapfile package for its format.

Loggers are grouped in a [LogGroup] built with [NewLogGroup]; every component of the core takes a *LogGroup and only
observes through it.
*/
package config
