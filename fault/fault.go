// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrBuilderClosed            = ProcessError("builder is closed")
	ErrBuilderFinished          = ProcessError("builder has already built a handle")
	ErrColumnFamilyExists       = ExistsError("column family already exists")
	ErrColumnFamilyNotFound     = NotFoundError("column family does not exist")
	ErrCorruptCatalog           = RecordError("column family catalog is corrupt")
	ErrCorruptRecord            = RecordError("corrupt record")
	ErrDuplicateColumnFamily    = InvalidError("duplicate column family name")
	ErrEmptyKey                 = InvalidError("key is empty")
	ErrIncompleteGeneration     = InvalidError("column family generation is incomplete")
	ErrInjectedFailure          = ProcessError("injected failure")
	ErrInvalidColumnFamilyName  = InvalidError("column family name is invalid")
	ErrInvalidCount             = InvalidError("invalid count")
	ErrInvalidMigrationChain    = InvalidError("migration steps do not form a chain")
	ErrInvalidStructPointer     = InvalidError("invalid struct pointer")
	ErrMissingPath              = InvalidError("store path is required")
	ErrNoSuchEngine             = NotFoundError("storage engine is not registered")
	ErrRateLimiting             = ProcessError("rate limiting")
	ErrReservedColumnFamilyName = InvalidError("column family name is reserved")
	ErrSchemaConflict           = InvalidError("column family schema conflict")
	ErrStoreClosed              = ProcessError("store is closed")
	ErrTrailingBytes            = RecordError("record has trailing bytes")
	ErrTruncatedRecord          = RecordError("record is truncated")
	ErrUnsupportedComparator    = InvalidError("comparator is not supported")
	ErrValueOutOfRange          = RecordError("value is out of range")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool  { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool  { var x ProcessError; return errors.As(e, &x) }
func IsErrRecord(e error) bool   { var x RecordError; return errors.As(e, &x) }
