// Copyright 2024 H2O.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors classifies every failure the controller can produce into
// one of a small number of kinds, so the Reconciler's error policy (retry
// interval, whether to give up) can be chosen from the kind alone instead of
// string-matching error messages.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the broad category a failure falls into.
type Kind string

const (
	// KindTransientAPI covers Kubernetes API server errors expected to
	// resolve on their own: timeouts, conflicts, server-side throttling.
	KindTransientAPI Kind = "TransientAPI"

	// KindUserInput covers invalid ClusterSpec values caught either by
	// struct-tag validation or by the API server's CRD schema.
	KindUserInput Kind = "UserInput"

	// KindTimeout covers bounded waits that ran out: pod-IP assignment,
	// the clustering handshake, pod deletion.
	KindTimeout Kind = "Timeout"

	// KindTemplateSerialization covers failures rendering or marshaling a
	// Pod/Service/ConfigMap template.
	KindTemplateSerialization Kind = "TemplateSerialization"

	// KindWatchStream covers errors surfaced by a client-go watch.Interface,
	// other than context cancellation.
	KindWatchStream Kind = "WatchStream"

	// KindDeployment covers failures forming the cluster: partial failure
	// of the Pod Fleet Manager's concurrent pod creation (after rollback has
	// already been attempted), a pod rejecting the flatfile, and a leader
	// address that matches no pod.
	KindDeployment Kind = "DeploymentError"

	// KindVersionMismatch covers an already-installed H2O CRD whose served
	// versions disagree with the binary's compiled manifest. Unlike every
	// other kind this is unrecoverable without operator intervention
	// (upgrading or removing the installed CRD), so it is fatal rather than
	// retried.
	KindVersionMismatch Kind = "VersionMismatch"
)

// Error is a classified, wrapped error. Cause carries the original error
// returned by the failing call, with the rest of the call stack attached
// by pkg/errors.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

// Unwrap lets errors.Is/errors.As see through to Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap annotates err with message and classifies it as kind. Returns nil if
// err is nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: errors.Wrap(err, message)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: errors.Wrapf(err, format, args...)}
}

// New creates a classified error from a message alone.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Cause: errors.New(message)}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
