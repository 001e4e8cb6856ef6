// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package plugins - look up the bundled engines by name
package plugins

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/bbolt"
	"github.com/bitmark-inc/cfdb/engine/leveldb"
	"github.com/bitmark-inc/cfdb/engine/pebble"
	"github.com/bitmark-inc/cfdb/fault"
)

// Default - the engine used when none is configured
const Default = leveldb.Name

var plugins = []engine.Plugin{
	leveldb.Plugin(),
	pebble.Plugin(),
	bbolt.Plugin(),
}

// Plugin - the plugin with the given name, nil if there is none
func Plugin(name string) engine.Plugin {
	for _, plugin := range plugins {
		if plugin.Name() == name {
			return plugin
		}
	}
	return nil
}

// Plugins - all available plugins
func Plugins() []engine.Plugin {
	return plugins
}

// Names - the names of all available plugins
func Names() []string {
	names := make([]string, 0, len(plugins))
	for _, plugin := range plugins {
		names = append(names, plugin.Name())
	}
	return names
}

// Open - open a store with the named engine
func Open(name string, options engine.Options) (engine.Engine, error) {
	if "" == name {
		name = Default
	}
	plugin := Plugin(name)
	if nil == plugin {
		return nil, fmt.Errorf("engine: %q: %w", name, fault.ErrNoSuchEngine)
	}
	return plugin.Open(options)
}

// TempPath - a fresh directory name under the system temporary directory
func TempPath(name string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s", name, uuid.New()))
}

// NewTemp - open an empty store in a fresh temporary directory
//
// the caller removes the directory when finished
func NewTemp(name string) (engine.Engine, error) {
	if "" == name {
		name = Default
	}
	return Open(name, engine.Options{Path: TempPath(name)})
}
