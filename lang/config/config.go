// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

// Package config loads bish's optional TOML configuration, the same way
// the teacher's cmd/gprobe/config.go loads node configuration: a file is
// never required, and its absence simply means the compiled-in defaults
// apply. None of the settings here affect the interpreter's contractual
// stdout/exit-code surface (SPEC_FULL.md §6). cmd/bish reads only
// Trace.Color (for --trace output); Trace.TableStyle and
// CLI.DefaultBackupDir are decoded but not read by cmd/bish.
package config

import (
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// tomlSettings mirrors the teacher's cmd/gprobe/config.go: TOML keys match
// Go struct field names exactly (PascalCase), so [Trace]/TableStyle in a
// config file line up with the Trace.TableStyle field with no guessing.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
}

// Trace holds options for the optional disassembly surface gated behind
// cmd/bish's --trace flag.
type Trace struct {
	Color      bool   `toml:",omitempty"`
	TableStyle string `toml:",omitempty"`
}

// CLI holds options for cmd/bish's convenience flags.
type CLI struct {
	DefaultBackupDir string `toml:",omitempty"`
}

// Config is the full set of optional, non-contractual settings.
type Config struct {
	Trace Trace
	CLI   CLI
}

// Default returns the settings applied when no config file is given.
func Default() Config {
	return Config{
		Trace: Trace{Color: true, TableStyle: "grid"},
	}
}

// Load reads and decodes the TOML file at path over Default(). An empty
// path returns Default() with no error: a missing config file is not a
// failure, matching the teacher's "config file is optional" convention.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
