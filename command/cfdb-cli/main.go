// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/cfdb/engine/plugins"
	"github.com/bitmark-inc/cfdb/storage"
	"github.com/bitmark-inc/logger"
)

type metadata struct {
	path    string
	options storage.Options
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp()
	if err := app.Run(os.Args); nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {

	app := cli.NewApp()
	app.Name = "cfdb-cli"
	app.Usage = "inspect a column family store"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "engine, e",
			Value: plugins.Default,
			Usage: " storage `ENGINE` [leveldb|pebble|bbolt]",
		},
		cli.StringFlag{
			Name:  "path, p",
			Value: "",
			Usage: "*store `DIRECTORY`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list",
			Usage:  "list column families with record counts",
			Action: runList,
		},
		{
			Name:      "dump",
			Usage:     "dump the records of a column family in hex",
			ArgsUsage: "FAMILY\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "start, s",
					Value: "",
					Usage: " first hex `KEY` to output",
				},
				cli.IntFlag{
					Name:  "count, c",
					Value: 20,
					Usage: " maximum records to output `COUNT`",
				},
			},
			Action: runDump,
		},
		{
			Name:      "digest",
			Usage:     "SHA3-256 of the records of a column family",
			ArgsUsage: "FAMILY...",
			Action:    runDigest,
		},
		{
			Name:   "journal",
			Usage:  "display the migration journal",
			Action: runJournal,
		},
		{
			Name:  "version",
			Usage: "display cfdb-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	// check the global options
	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		command := c.Args().Get(0)
		if "version" == command || "help" == command || "h" == command {
			return nil
		}

		name := c.GlobalString("engine")
		if nil == plugins.Plugin(name) {
			return fmt.Errorf("engine: %q can only be one of: %v", name, plugins.Names())
		}

		path := c.GlobalString("path")
		if "" == path {
			return fmt.Errorf("store path is required")
		}
		if info, err := os.Stat(path); nil != err {
			return err
		} else if !info.IsDir() {
			return fmt.Errorf("not a directory: %q", path)
		}

		if verbose {
			fmt.Fprintf(e, "store: %q  engine: %s\n", path, name)
		}

		level := "critical"
		if verbose {
			level = "info"
		}
		logging := logger.Configuration{
			Directory: os.TempDir(),
			File:      "cfdb-cli.log",
			Size:      1048576,
			Count:     10,
			Console:   true,
			Levels: map[string]string{
				logger.DefaultTag: level,
			},
		}
		if err := logger.Initialise(logging); nil != err {
			return fmt.Errorf("logger setup failed with error: %s", err)
		}

		c.App.Metadata["config"] = &metadata{
			path: path,
			options: storage.Options{
				Engine: name,
			},
			verbose: verbose,
			e:       e,
			w:       w,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		if nil != c.App.Metadata["config"] {
			logger.Finalise()
		}
		return nil
	}
	return app
}
