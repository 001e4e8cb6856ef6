// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bitmark-inc/cfdb/sample"
	"github.com/bitmark-inc/cfdb/storage"
	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
)

// setup command handler
//
// commands that need neither the configuration file nor the store
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "migrate", "run", "start":
		return false // continue processing

	case "status", "st":
		return false // defer processing until configuration is read

	case "config-test", "cfg":
		return false

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] [--var=NAME=VALUE...] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  migrate                    (run)    - bring the store to the current generation\n")
		fmt.Printf("                                        this is the default when no command is given\n")
		fmt.Printf("\n")

		fmt.Printf("  status                     (st)     - show families, pending steps and the journal\n")
		fmt.Printf("                                        without migrating\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
func processDataCommand(log *logger.L, arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "migrate", "run", "start":
		return false // continue processing

	case "status", "st":
		if err := status(log, options); nil != err {
			exitwithstatus.Message("status error: %s", err)
		}

	default:
		exitwithstatus.Message("error: no such command: %s", command)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// only the journal family is created, so a store can be inspected
// before it is migrated
func status(log *logger.L, options *Configuration) error {
	manifest, err := sample.Manifest()
	if nil != err {
		return err
	}

	b, err := storage.Open(options.Database.Name, nil, options.StorageOptions())
	if nil != err {
		return err
	}
	defer b.Close()

	h := b.Handle()
	families, err := h.ColumnFamilies()
	if nil != err {
		return err
	}
	fmt.Printf("store: %q  engine: %s\n", h.Path(), h.Engine().Name())
	fmt.Printf("families:\n")
	for _, name := range families {
		n, err := h.Count(name)
		if nil != err {
			return err
		}
		fmt.Printf("  %-30s %d\n", name, n)
	}

	plans, err := manifest.Pending(h)
	if nil != err {
		log.Warnf("pending: %s", err)
		fmt.Printf("pending: error: %s\n", err)
	} else {
		fmt.Printf("pending:\n")
		for _, p := range plans {
			if p.DropOnly {
				fmt.Printf("  %s (drop only)\n", p.Step.Name)
			} else {
				fmt.Printf("  %s\n", p.Step.Name)
			}
		}
	}

	journal, err := h.Journal()
	if nil != err {
		return err
	}
	fmt.Printf("journal:\n")
	for _, e := range journal {
		fmt.Printf("  %s  %-24s %-10s %v", e.Timestamp.Format("2006-01-02 15:04:05"), e.Step, e.Event, e.Families)
		if "" != e.Error {
			fmt.Printf("  error: %s", e.Error)
		}
		fmt.Printf("\n")
	}
	return nil
}
