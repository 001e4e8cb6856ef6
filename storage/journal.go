// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/fault"
)

// JournalFamily - internal family recording migration events
const JournalFamily = InternalPrefix + "journal"

// journal events
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventDropped   = "dropped"
)

var journalDescriptor = ColumnDescriptor{
	Name: JournalFamily,
	Options: engine.ColumnOptions{
		KeyFormat:   "ksuid",
		ValueFormat: "journal.v1",
	},
}

// JournalEntry - one migration event
type JournalEntry struct {
	ID        ksuid.KSUID
	Step      string
	Event     string
	Families  []string
	Error     string
	Timestamp time.Time
}

// Pack - the stored form, the ID is the key
func (e JournalEntry) Pack(buffer *codec.Buffer) {
	buffer.PutString(e.Step)
	buffer.PutString(e.Event)
	buffer.PutVarint64(uint64(len(e.Families)))
	for _, f := range e.Families {
		buffer.PutString(f)
	}
	buffer.PutString(e.Error)
	buffer.PutUint64(uint64(e.Timestamp.UnixNano()))
}

// Unpack - read the stored form
func (e *JournalEntry) Unpack(reader *codec.Reader) {
	e.Step = reader.String()
	e.Event = reader.String()
	n := reader.Varint64()
	if n > uint64(reader.Remaining()) {
		reader.Fail(fault.ErrValueOutOfRange)
		return
	}
	e.Families = make([]string, 0, n)
	for i := uint64(0); i < n; i += 1 {
		e.Families = append(e.Families, reader.String())
	}
	e.Error = reader.String()
	e.Timestamp = time.Unix(0, int64(reader.Uint64())).UTC()
}

var journalCodec = codec.Record[JournalEntry](journalDescriptor.Options.ValueFormat)

// ids must sort in append order even within one second
type journal struct {
	sync.Mutex
	last ksuid.KSUID
}

func (j *journal) next() ksuid.KSUID {
	j.Lock()
	defer j.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, j.last) <= 0 {
		id = j.last.Next()
	}
	j.last = id
	return id
}

// restore the last id so that new entries follow the old ones
func (h *Handle) loadJournal() error {
	return h.Iterate(JournalFamily, func(key []byte, _ []byte) error {
		id, err := ksuid.FromBytes(key)
		if nil != err {
			return corrupt(JournalFamily, key, err)
		}
		h.journal.last = id
		return nil
	})
}

// record a migration event
func (h *Handle) appendJournal(step string, event string, families []string, cause error) error {
	entry := JournalEntry{
		ID:        h.journal.next(),
		Step:      step,
		Event:     event,
		Families:  families,
		Timestamp: time.Now().UTC(),
	}
	if nil != cause {
		entry.Error = cause.Error()
	}
	value, err := journalCodec.Encode(entry)
	if nil != err {
		return err
	}
	return h.Put(JournalFamily, entry.ID.Bytes(), value)
}

// Journal - all migration events, oldest first
func (h *Handle) Journal() ([]JournalEntry, error) {
	entries := []JournalEntry{}
	err := h.Iterate(JournalFamily, func(key []byte, value []byte) error {
		id, err := ksuid.FromBytes(key)
		if nil != err {
			return corrupt(JournalFamily, key, err)
		}
		entry, err := journalCodec.Decode(value)
		if nil != err {
			return corrupt(JournalFamily, key, err)
		}
		entry.ID = id
		entries = append(entries, entry)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return entries, nil
}

// LastEvent - the most recent journal entry for a step
func (h *Handle) LastEvent(step string) (JournalEntry, bool, error) {
	entries, err := h.Journal()
	if nil != err {
		return JournalEntry{}, false, err
	}
	for i := len(entries) - 1; i >= 0; i -= 1 {
		if step == entries[i].Step {
			return entries[i], true, nil
		}
	}
	return JournalEntry{}, false, nil
}
