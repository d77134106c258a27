// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors is a thin layer over the standard errors package. It adds
// stack traces, wrapping with a classifying cause, and error collections.
package errors

import (
	"errors"
	"fmt"
)

func New(text string) error {
	return errors.New(text)
}

func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

var (
	_ error = &WError{}
	_ error = &MError{}
)

// WError classifies an underlying error with a cause. errors.Is matches the
// cause, Unwrap returns the underlying error.
type WError struct {
	cause error
	err   error
}

func (e *WError) Error() string {
	if e.err == nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.cause, e.err)
}

func (e *WError) Is(target error) bool {
	return errors.Is(e.cause, target)
}

func (e *WError) Unwrap() error {
	return e.err
}

// Wrap returns nil if cause is nil.
func Wrap(cause error, err error) error {
	if cause == nil {
		return nil
	}
	return &WError{cause: cause, err: err}
}

func Wrapf(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &WError{cause: cause, err: fmt.Errorf(format, args...)}
}

// MError carries a summary error and the non-nil errors that caused it.
type MError struct {
	summary error
	causes  []error
}

func (e *MError) Error() string {
	s := e.summary.Error() + ":"
	for _, c := range e.causes {
		s += "\n\t" + c.Error()
	}
	return s
}

func (e *MError) Is(target error) bool {
	if errors.Is(e.summary, target) {
		return true
	}
	for _, c := range e.causes {
		if errors.Is(c, target) {
			return true
		}
	}
	return false
}

func (e *MError) Cause() []error {
	return e.causes
}

// Collect returns nil when every cause is nil.
func Collect(summary error, causes ...error) error {
	n := 0
	for _, c := range causes {
		if c != nil {
			causes[n] = c
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &MError{summary: summary, causes: causes[:n]}
}
