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

// Package tools contains utility types and functions for the fa tool frontends.
package tools

import (
	"flag"
	"fmt"
	"os"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/heapfile"
)

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath *string
	TypesPath  *string
	Verbose    *bool
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config, -types and -verbose but need other flags in
// addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path")
	typesPath := cmd.String("types", "", "type database, overrides the type-database of the config")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	return UnparsedCommonFlags{
		FlagSet:    cmd,
		ConfigPath: configPath,
		TypesPath:  typesPath,
		Verbose:    verbose,
	}
}

// CommonFlags represents a parsed CLI sub-command flags.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	TypesPath  string
	Verbose    bool
}

// Parse parses args with the flag set of f
func (f UnparsedCommonFlags) Parse(args []string) (CommonFlags, error) {
	if err := f.FlagSet.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %v", f.FlagSet.Name(), args, err)
	}
	return CommonFlags{
		FlagSet:    f.FlagSet,
		ConfigPath: *f.ConfigPath,
		TypesPath:  *f.TypesPath,
		Verbose:    *f.Verbose,
	}, nil
}

// NewCommonFlags returns a parsed flag set with a given name.
// Returns an error if args are invalid.
// Prints cmdUsage along with flag docs as the --help message.
func NewCommonFlags(name string, args []string, cmdUsage string) (CommonFlags, error) {
	flags := NewUnparsedCommonFlags(name)
	SetUsage(flags.FlagSet, cmdUsage)
	return flags.Parse(args)
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// LoadConfig loads the config file from configPath. Without a path, the default config is returned.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.NewDefault(), nil
	}
	config.SetGlobalConfig(configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
	}
	return cfg, nil
}

// Session holds what every sub-command needs: the config, the logger and a box manager with the type database
// loaded
type Session struct {
	Config *config.Config
	Logger *config.LogGroup
	Boxes  *box.Manager
}

// NewSession loads the config and the type database named by flags. Verbose raises the log level to debug.
func NewSession(flags CommonFlags) (*Session, error) {
	cfg, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.Verbose && cfg.Options.LogLevel < int(config.DebugLevel) {
		cfg.Options.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)
	s := &Session{Config: cfg, Logger: logger, Boxes: box.NewManager(cfg, logger)}

	typesPath := flags.TypesPath
	if typesPath == "" {
		typesPath = cfg.TypeDatabasePath()
	}
	if typesPath != "" {
		b, err := os.ReadFile(typesPath)
		if err != nil {
			return nil, fmt.Errorf("could not read type database: %w", err)
		}
		if err := heapfile.LoadTypes(s.Boxes, b); err != nil {
			return nil, fmt.Errorf("could not load type database %s: %w", typesPath, err)
		}
		logger.Debugf("loaded %d types from %s", len(s.Boxes.TypeInfos()), typesPath)
	}
	return s, nil
}

// LoadHeap reads and builds the heap file at filename
func (s *Session) LoadHeap(filename string) (*heapfile.Heap, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read heap file: %w", err)
	}
	h, err := heapfile.Load(s.Boxes, b)
	if err != nil {
		return nil, fmt.Errorf("could not load heap file %s: %w", filename, err)
	}
	return h, nil
}
