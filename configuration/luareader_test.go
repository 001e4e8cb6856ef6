// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cfdb/configuration"
	"github.com/bitmark-inc/cfdb/fault"
)

type databaseType struct {
	Directory string `gluamapper:"directory"`
	Engine    string `gluamapper:"engine"`
	Sync      bool   `gluamapper:"sync"`
}

type testConfiguration struct {
	DataDirectory string       `gluamapper:"data_directory"`
	Rate          float64      `gluamapper:"rate"`
	Database      databaseType `gluamapper:"database"`
	Levels        map[string]string
}

const testScript = `
local M = {}
M.data_directory = "."
M.rate = 12.5
M.database = {
    directory = "data",
    engine = var.engine or "leveldb",
    sync = true,
}
M.Levels = {
    main = "info",
}
return M
`

func writeScript(t *testing.T, script string) string {
	fileName := filepath.Join(t.TempDir(), "test.conf")
	require.Nil(t, os.WriteFile(fileName, []byte(script), 0600), "write script")
	return fileName
}

func TestParse(t *testing.T) {
	fileName := writeScript(t, testScript)

	config := testConfiguration{
		Database: databaseType{Directory: "default"},
	}
	err := configuration.ParseConfigurationFile(fileName, &config, nil)
	require.Nil(t, err, "parse")

	assert.Equal(t, ".", config.DataDirectory, "data directory")
	assert.Equal(t, 12.5, config.Rate, "rate")
	assert.Equal(t, "data", config.Database.Directory, "directory")
	assert.Equal(t, "leveldb", config.Database.Engine, "engine")
	assert.True(t, config.Database.Sync, "sync")
	assert.Equal(t, "info", config.Levels["main"], "levels")
}

func TestParseVariables(t *testing.T) {
	fileName := writeScript(t, testScript)

	config := testConfiguration{}
	err := configuration.ParseConfigurationFile(fileName, &config, map[string]string{"engine": "pebble"})
	require.Nil(t, err, "parse")
	assert.Equal(t, "pebble", config.Database.Engine, "engine")
}

func TestParseErrors(t *testing.T) {
	config := testConfiguration{}

	err := configuration.ParseConfigurationFile(writeScript(t, testScript), config, nil)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "not a pointer")

	err = configuration.ParseConfigurationFile(writeScript(t, "return 42\n"), &config, nil)
	assert.NotNil(t, err, "not a table")

	err = configuration.ParseConfigurationFile(writeScript(t, "return {\n"), &config, nil)
	assert.NotNil(t, err, "syntax error")

	err = configuration.ParseConfigurationFile(filepath.Join(t.TempDir(), "missing.conf"), &config, nil)
	assert.NotNil(t, err, "missing file")
}

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/data/store", configuration.EnsureAbsolute("/data", "store"), "relative")
	assert.Equal(t, "/other/store", configuration.EnsureAbsolute("/data", "/other/store"), "absolute")
	assert.Equal(t, "/data/store", configuration.EnsureAbsolute("/data", "./x/../store"), "cleaned")
}
