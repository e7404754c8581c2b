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

package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the heap abstraction core.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// TypeDatabase is the path to a yaml file declaring the memory-cell types (name and selector offsets) that the
	// box manager should know before any heap is loaded. The path is relative to the config file.
	TypeDatabase string `yaml:"type-database"`
}

// Options holds the switches of the core algorithms
type Options struct {
	// RestartAfterBoxDiscovery makes the box manager request a restart of the exploration every time a new box is
	// learned. The driver may ignore the request.
	RestartAfterBoxDiscovery bool `yaml:"restart-after-box-discovery"`

	// CheckIntegrity makes the execution manager check the integrity of every heap it stores in a new symbolic state.
	// An inconsistent heap is a fatal error. This is costly and meant for debugging.
	CheckIntegrity bool `yaml:"check-integrity"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:   "",
		TypeDatabase: "",
		Options: Options{
			RestartAfterBoxDiscovery: false,
			CheckIntegrity:           false,
			LogLevel:                 int(InfoLevel),
			SilenceWarn:              false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// Parse reads a configuration from yaml contents
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("log-level must be between %d and %d, got %d", ErrLevel, TraceLevel, cfg.LogLevel)
	}
	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	if path.IsAbs(filename) {
		return filename
	}
	return path.Join(path.Dir(c.sourceFile), filename)
}

// TypeDatabasePath returns the path of the type database, or "" if none is configured
func (c Config) TypeDatabasePath() string {
	if c.TypeDatabase == "" {
		return ""
	}
	return c.RelPath(c.TypeDatabase)
}
