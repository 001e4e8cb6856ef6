// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package migration

import (
	"fmt"
	"sort"

	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/cfdb/storage"
	"github.com/bitmark-inc/logger"
)

// Manifest - the chain of steps that ends at the current generation
type Manifest struct {
	log     *logger.L
	current []storage.ColumnDescriptor
	steps   []Step
}

// Plan - one pending piece of work
type Plan struct {
	Step     Step
	DropOnly bool // the transform completed earlier, only the drop remains
}

// NewManifest - check that steps form a chain ending at current
//
// the To families of each step must be the From families of the next
// and the last step must produce exactly the current families
func NewManifest(current []storage.ColumnDescriptor, steps ...Step) (*Manifest, error) {
	seen := make(map[string]struct{})
	for i, s := range steps {
		if "" == s.Name || 0 == len(s.From) || 0 == len(s.To) || nil == s.Transform {
			return nil, fmt.Errorf("step: %d %q: %w", i, s.Name, fault.ErrInvalidMigrationChain)
		}
		if _, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("step: %q repeated: %w", s.Name, fault.ErrInvalidMigrationChain)
		}
		seen[s.Name] = struct{}{}

		if overlap(s.From, s.To) {
			return nil, fmt.Errorf("step: %q reads and writes one family: %w", s.Name, fault.ErrInvalidMigrationChain)
		}

		next := current
		if i+1 < len(steps) {
			next = steps[i+1].From
		}
		if !sameNames(s.To, next) {
			return nil, fmt.Errorf("step: %q produces: %v  expected: %v: %w", s.Name, storage.Names(s.To), storage.Names(next), fault.ErrInvalidMigrationChain)
		}
	}

	return &Manifest{
		log:     logger.New("migration"),
		current: current,
		steps:   steps,
	}, nil
}

// Current - the families of the newest generation
func (m *Manifest) Current() []storage.ColumnDescriptor {
	return m.current
}

// Steps - all steps, oldest first
func (m *Manifest) Steps() []Step {
	return m.steps
}

// Pending - the work needed to bring a store to the current generation
//
// the earliest step whose source families all exist is run again in
// full, followed by every later step.  A step whose sources are only
// partly present had its drop interrupted; provided the journal shows
// its transform completed only the drop is repeated.
func (m *Manifest) Pending(h *storage.Handle) ([]Plan, error) {
	families, err := h.ColumnFamilies()
	if nil != err {
		return nil, err
	}
	exists := make(map[string]struct{}, len(families))
	for _, name := range families {
		exists[name] = struct{}{}
	}

	for i, s := range m.steps {
		present := 0
		for _, d := range s.From {
			if _, ok := exists[d.Name]; ok {
				present += 1
			}
		}

		switch {
		case 0 == present:
			continue

		case len(s.From) == present:
			return m.plan(i, false), nil

		default:
			last, ok, err := h.LastEvent(s.Name)
			if nil != err {
				return nil, err
			}
			if ok && (storage.EventCompleted == last.Event || storage.EventDropped == last.Event) {
				return m.plan(i, true), nil
			}
			return nil, fmt.Errorf("step: %q  sources present: %d of %d: %w", s.Name, present, len(s.From), fault.ErrIncompleteGeneration)
		}
	}
	return nil, nil
}

func (m *Manifest) plan(first int, dropOnly bool) []Plan {
	plans := make([]Plan, 0, len(m.steps)-first)
	for i := first; i < len(m.steps); i += 1 {
		plans = append(plans, Plan{
			Step:     m.steps[i],
			DropOnly: dropOnly && i == first,
		})
	}
	return plans
}

// Apply - run every pending step, returning the names of those run
func (m *Manifest) Apply(b *storage.Builder) ([]string, error) {
	plans, err := m.Pending(b.Handle())
	if nil != err {
		m.log.Errorf("pending: %q  error: %s", b.Path(), err)
		return nil, err
	}
	if 0 == len(plans) {
		m.log.Infof("store: %q  is current", b.Path())
		return nil, nil
	}

	applied := make([]string, 0, len(plans))
	for _, p := range plans {
		if p.DropOnly {
			m.log.Warnf("step: %q  resume interrupted drop", p.Step.Name)
			err = b.DropColumnFamiliesForStep(p.Step.Name, p.Step.From)
		} else {
			m.log.Infof("step: %q  apply", p.Step.Name)
			err = p.Step.Apply(b)
		}
		if nil != err {
			return applied, err
		}
		applied = append(applied, p.Step.Name)
	}
	return applied, nil
}

func overlap(a []storage.ColumnDescriptor, b []storage.ColumnDescriptor) bool {
	names := make(map[string]struct{}, len(a))
	for _, d := range a {
		names[d.Name] = struct{}{}
	}
	for _, d := range b {
		if _, ok := names[d.Name]; ok {
			return true
		}
	}
	return false
}

func sameNames(a []storage.ColumnDescriptor, b []storage.ColumnDescriptor) bool {
	x := storage.Names(a)
	y := storage.Names(b)
	if len(x) != len(y) {
		return false
	}
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
