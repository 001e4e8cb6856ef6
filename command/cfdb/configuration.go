// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/cfdb/configuration"
	"github.com/bitmark-inc/cfdb/engine/plugins"
	"github.com/bitmark-inc/cfdb/storage"
	"github.com/bitmark-inc/logger"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "cfdb.store"

	defaultLogDirectory = "log"
	defaultLogFile      = "cfdb.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		logger.DefaultTag: "critical",
	}
)

type DatabaseType struct {
	Directory   string `gluamapper:"directory" json:"directory"`
	Name        string `gluamapper:"name" json:"name"`
	Engine      string `gluamapper:"engine" json:"engine"`
	Sync        bool   `gluamapper:"sync" json:"sync"`
	CacheExpiry int    `gluamapper:"cache_expiry" json:"cache_expiry"` // seconds, zero disables the cache
}

type MigrationType struct {
	Rate  float64 `gluamapper:"rate" json:"rate"` // records per second, zero is unlimited
	Burst int     `gluamapper:"burst" json:"burst"`
}

type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	MetricsHTTP   string               `gluamapper:"metrics_http" json:"metrics_http"`
	Database      DatabaseType         `gluamapper:"database" json:"database"`
	Migration     MigrationType        `gluamapper:"migration" json:"migration"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// StorageOptions - the store settings from the configuration
func (c *Configuration) StorageOptions() storage.Options {
	return storage.Options{
		Engine:         c.Database.Engine,
		Sync:           c.Database.Sync,
		CacheExpiry:    time.Duration(c.Database.CacheExpiry) * time.Second,
		MigrationRate:  c.Migration.Rate,
		MigrationBurst: c.Migration.Burst,
	}
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory: defaultDatabaseDirectory,
			Name:      defaultDatabaseName,
			Engine:    plugins.Default,
			Sync:      true,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	if nil == plugins.Plugin(options.Database.Engine) {
		return nil, fmt.Errorf("Engine: %q is not supported, choose from: %v", options.Database.Engine, plugins.Names())
	}
	if options.Database.CacheExpiry < 0 {
		return nil, fmt.Errorf("Cache expiry: %d must not be negative", options.Database.CacheExpiry)
	}
	if options.Migration.Rate < 0 || options.Migration.Burst < 0 {
		return nil, fmt.Errorf("Migration: rate: %g  burst: %d must not be negative", options.Migration.Rate, options.Migration.Burst)
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// optional absolute paths i.e. blank or an absolute path
	if "" != options.PidFile {
		options.PidFile = configuration.EnsureAbsolute(options.DataDirectory, options.PidFile)
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = configuration.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = configuration.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	// done
	return options, nil
}
