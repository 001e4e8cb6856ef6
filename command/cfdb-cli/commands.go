// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/cfdb/storage"
)

// open without declaring any family so nothing but the journal is created
func openStore(m *metadata) (*storage.Builder, error) {
	return storage.Open(m.path, nil, m.options)
}

// errStop - ends an iteration early without an error
type errStop struct{}

func (errStop) Error() string { return "stop" }

func runList(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	b, err := openStore(m)
	if nil != err {
		return err
	}
	defer b.Close()

	h := b.Handle()
	families, err := h.ColumnFamilies()
	if nil != err {
		return err
	}

	type family struct {
		Name    string `json:"name"`
		Records int    `json:"records"`
	}
	result := make([]family, 0, len(families))
	for _, name := range families {
		n, err := h.Count(name)
		if nil != err {
			return err
		}
		result = append(result, family{Name: name, Records: n})
	}
	return printJSON(m.w, result)
}

func runDump(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	family := c.Args().Get(0)
	if "" == family {
		return fmt.Errorf("family name is required")
	}
	count := c.Int("count")
	if count <= 0 {
		return fmt.Errorf("invalid count: %d", count)
	}
	start, err := hex.DecodeString(c.String("start"))
	if nil != err {
		return fmt.Errorf("start key: %s", err)
	}

	b, err := openStore(m)
	if nil != err {
		return err
	}
	defer b.Close()

	type record struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	records := make([]record, 0, count)
	err = b.Handle().IterateFrom(family, start, func(key []byte, value []byte) error {
		records = append(records, record{
			Key:   hex.EncodeToString(key),
			Value: hex.EncodeToString(value),
		})
		if len(records) >= count {
			return errStop{}
		}
		return nil
	})
	if _, ok := err.(errStop); !ok && nil != err {
		return err
	}
	return printJSON(m.w, records)
}

func runDigest(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	if 0 == c.NArg() {
		return fmt.Errorf("at least one family name is required")
	}

	b, err := openStore(m)
	if nil != err {
		return err
	}
	defer b.Close()

	digests := make(map[string]string)
	for _, family := range c.Args() {
		d, err := b.Handle().Digest(family)
		if nil != err {
			return err
		}
		digests[family] = hex.EncodeToString(d[:])
	}
	return printJSON(m.w, digests)
}

func runJournal(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	b, err := openStore(m)
	if nil != err {
		return err
	}
	defer b.Close()

	journal, err := b.Handle().Journal()
	if nil != err {
		return err
	}

	type entry struct {
		ID        string   `json:"id"`
		Timestamp string   `json:"timestamp"`
		Step      string   `json:"step"`
		Event     string   `json:"event"`
		Families  []string `json:"families"`
		Error     string   `json:"error,omitempty"`
	}
	result := make([]entry, 0, len(journal))
	for _, e := range journal {
		result = append(result, entry{
			ID:        e.ID.String(),
			Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
			Step:      e.Step,
			Event:     e.Event,
			Families:  e.Families,
			Error:     e.Error,
		})
	}
	return printJSON(m.w, result)
}
