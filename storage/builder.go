// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/plugins"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/logger"
)

// State - the progress of a Builder
type State int

// builder states
const (
	StateOpened                State = iota // store open, families as found on disk
	StateColumnFamiliesEnsured              // declared families exist
	StateMigrationInProgress                // one or more steps were applied
	StateReady                              // handle returned by Build
	StateFailed                             // a step failed, only Close is allowed
	StateClosed                             // store released
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateColumnFamiliesEnsured:
		return "column families ensured"
	case StateMigrationInProgress:
		return "migration in progress"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transform - fill new families from old ones
//
// a transform must read its source families completely and write
// with upserts, so that running it again after a failure gives the
// same result as a single uninterrupted run
type Transform func(h *Handle) error

// Builder - open a store and bring it to the current generation
type Builder struct {
	log      *logger.L
	path     string
	expected []ColumnDescriptor
	handle   *Handle
	state    State
	err      error
	lastStep string
}

// Open - open or create the store at path
//
// every expected family is created if missing; families that exist
// but are not expected are left alone so a later migration step can
// read and drop them
func Open(path string, expected []ColumnDescriptor, options Options) (*Builder, error) {
	log := logger.New("storage")

	if "" == path {
		return nil, &OpenError{Kind: KindIO, Path: path, Err: fault.ErrMissingPath}
	}
	if err := validate(expected); nil != err {
		return nil, &OpenError{Kind: KindSchemaConflict, Path: path, Err: err}
	}

	e, err := plugins.Open(options.Engine, engine.Options{
		Path: path,
		Sync: options.Sync,
	})
	if nil != err {
		log.Errorf("open: %q  engine: %q  error: %s", path, options.Engine, err)
		return nil, &OpenError{Kind: KindIO, Path: path, Err: err}
	}

	b := &Builder{
		log:      log,
		path:     path,
		expected: append([]ColumnDescriptor{}, expected...),
		handle:   newHandle(log, e, options),
		state:    StateOpened,
	}
	log.Infof("opened: %q  engine: %s", path, e.Name())

	if err := b.ensure(append([]ColumnDescriptor{journalDescriptor}, expected...)); nil != err {
		b.handle.Close()
		b.state = StateClosed
		return nil, err
	}
	if err := b.handle.loadJournal(); nil != err {
		b.handle.Close()
		b.state = StateClosed
		return nil, &OpenError{Kind: KindIO, Path: path, Family: JournalFamily, Err: err}
	}

	b.state = StateColumnFamiliesEnsured
	return b, nil
}

// create missing families and check existing ones
//
// existing families are reported so a resumed step can log them
func (b *Builder) ensure(descriptors []ColumnDescriptor) error {
	families, err := b.handle.families()
	if nil != err {
		return &OpenError{Kind: KindIO, Path: b.path, Err: err}
	}

	for _, d := range descriptors {
		if stored, ok := families[d.Name]; ok {
			if !d.Matches(stored) {
				b.log.Criticalf("family: %q  declared: %+v  stored: %+v", d.Name, d.Options.Normalise(), stored)
				return &OpenError{
					Kind:   KindSchemaConflict,
					Path:   b.path,
					Family: d.Name,
					Err:    fmt.Errorf("declared: %+v  stored: %+v: %w", d.Options.Normalise(), stored, fault.ErrSchemaConflict),
				}
			}
			b.log.Debugf("family: %q  exists", d.Name)
			continue
		}

		if err := b.handle.createColumnFamily(d); nil != err {
			b.log.Errorf("create family: %q  error: %s", d.Name, err)
			return &OpenError{Kind: KindIO, Path: b.path, Family: d.Name, Err: err}
		}
		b.log.Infof("created family: %q", d.Name)
	}
	return nil
}

// check the builder can still run a step
func (b *Builder) usable() error {
	switch b.state {
	case StateFailed:
		return b.err
	case StateReady:
		return fault.ErrBuilderFinished
	case StateClosed:
		return fault.ErrBuilderClosed
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.state = StateFailed
	b.err = err
	return err
}

// State - current builder state
func (b *Builder) State() State {
	return b.state
}

// Handle - the store handle, for inspection before Build
func (b *Builder) Handle() *Handle {
	return b.handle
}

// Path - the store directory
func (b *Builder) Path() string {
	return b.path
}

// AddColumnFamilies - create families, then fill them with transform
//
// families left by an earlier failed run of the same step are reused
// after checking their options; the transform sees every family in
// the store.  On failure the new families keep whatever was written,
// the old ones are untouched and the builder can only be closed.
func (b *Builder) AddColumnFamilies(step string, families []ColumnDescriptor, transform Transform) error {
	if err := b.usable(); nil != err {
		return err
	}
	if err := validate(families); nil != err {
		return &OpenError{Kind: KindSchemaConflict, Path: b.path, Err: err}
	}

	existing, err := b.handle.families()
	if nil != err {
		return b.fail(&OpenError{Kind: KindIO, Path: b.path, Err: err})
	}
	for _, d := range families {
		if _, ok := existing[d.Name]; ok {
			b.log.Warnf("step: %q  resume with existing family: %q", step, d.Name)
		}
	}
	if err := b.ensure(families); nil != err {
		return b.fail(err)
	}

	b.state = StateMigrationInProgress
	names := Names(families)
	b.log.Infof("step: %q  start  families: %v", step, names)
	if err := b.handle.appendJournal(step, EventStarted, names, nil); nil != err {
		return b.fail(&OpenError{Kind: KindIO, Path: b.path, Family: JournalFamily, Err: err})
	}

	b.handle.setStep(step)
	err = transform(b.handle)
	b.handle.setStep("")

	if nil != err {
		migrationStepsTotal.WithLabelValues(step, resultFailed).Inc()
		b.log.Errorf("step: %q  failed: %s", step, err)
		if jerr := b.handle.appendJournal(step, EventFailed, names, err); nil != jerr {
			b.log.Errorf("step: %q  journal error: %s", step, jerr)
		}
		return b.fail(&OpenError{
			Kind: KindMigration,
			Path: b.path,
			Err:  &MigrationError{Step: step, Err: err},
		})
	}

	migrationStepsTotal.WithLabelValues(step, resultCompleted).Inc()
	if err := b.handle.appendJournal(step, EventCompleted, names, nil); nil != err {
		return b.fail(&OpenError{Kind: KindIO, Path: b.path, Family: JournalFamily, Err: err})
	}
	b.lastStep = step
	b.log.Infof("step: %q  completed", step)
	return nil
}

// DropColumnFamilies - delete families and all their data
//
// only call this after the step that replaces them has succeeded.
// Families that do not exist are skipped so that an interrupted drop
// can be repeated.
func (b *Builder) DropColumnFamilies(families []ColumnDescriptor) error {
	return b.DropColumnFamiliesForStep(b.lastStep, families)
}

// DropColumnFamiliesForStep - DropColumnFamilies recording the step
// that made the families obsolete in the journal
func (b *Builder) DropColumnFamiliesForStep(step string, families []ColumnDescriptor) error {
	if err := b.usable(); nil != err {
		return err
	}
	if err := validate(families); nil != err {
		return &OpenError{Kind: KindSchemaConflict, Path: b.path, Err: err}
	}

	existing, err := b.handle.families()
	if nil != err {
		return b.fail(&OpenError{Kind: KindIO, Path: b.path, Err: err})
	}

	dropped := []string{}
	for _, d := range families {
		if _, ok := existing[d.Name]; !ok {
			b.log.Warnf("drop family: %q  does not exist", d.Name)
			continue
		}
		if err := b.handle.dropColumnFamily(d.Name); nil != err {
			b.log.Errorf("drop family: %q  error: %s", d.Name, err)
			return b.fail(&OpenError{Kind: KindIO, Path: b.path, Family: d.Name, Err: err})
		}
		b.log.Infof("dropped family: %q", d.Name)
		dropped = append(dropped, d.Name)
	}

	if 0 == len(dropped) {
		return nil
	}
	if err := b.handle.appendJournal(step, EventDropped, dropped, nil); nil != err {
		return b.fail(&OpenError{Kind: KindIO, Path: b.path, Family: JournalFamily, Err: err})
	}
	return nil
}

// Build - finish and return the handle
//
// every expected family must still exist
func (b *Builder) Build() (*Handle, error) {
	if err := b.usable(); nil != err {
		return nil, err
	}

	existing, err := b.handle.families()
	if nil != err {
		return nil, b.fail(&OpenError{Kind: KindIO, Path: b.path, Err: err})
	}
	for _, d := range b.expected {
		if _, ok := existing[d.Name]; !ok {
			return nil, b.fail(&OpenError{
				Kind:   KindSchemaConflict,
				Path:   b.path,
				Family: d.Name,
				Err:    fault.ErrColumnFamilyNotFound,
			})
		}
	}

	b.state = StateReady
	b.log.Infof("ready: %q", b.path)
	return b.handle, nil
}

// Close - release the store unless Build has returned the handle
func (b *Builder) Close() error {
	switch b.state {
	case StateReady, StateClosed:
		return nil
	}
	b.state = StateClosed
	return b.handle.Close()
}
