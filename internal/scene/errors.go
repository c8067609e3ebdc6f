/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"strings"
)

var (
	// ErrNoCanvas is reported by every operation on a manager that has not
	// been Reset onto a canvas yet. Nothing changes.
	ErrNoCanvas = errors.New("scene: no canvas")
	// ErrStaleScene marks a continuation whose scene was reset or cleared
	// while it was decoding. Its result is discarded.
	ErrStaleScene = errors.New("scene: generation changed")
	// ErrDeclined is returned by Clear when the user says no.
	ErrDeclined = errors.New("scene: clear declined")
	// ErrNoSelection is returned by gestures when nothing is selected.
	ErrNoSelection = errors.New("scene: nothing selected")
	// ErrUnknownObject is returned for ids that are not in the scene.
	ErrUnknownObject = errors.New("scene: unknown object")
)

// User-facing messages.
const (
	MsgEmptyText     = "Please enter text first!"
	MsgBadUploadType = "Please upload PNG, JPG, SVG or WEBP."
	MsgConfirmClear  = "Are you sure you want to clear the canvas?"
	MsgBadColor      = "Please pick a valid text colour."
)

// ValidationError is an input problem shown to the user. Scene state is
// never modified when one is returned.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm answers yes; used by headless callers.
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

type discardNotifier struct{}

func (discardNotifier) Notify(string) {}

// RecordingNotifier keeps every message; handy in headless runs and tests.
type RecordingNotifier struct {
	Messages []string
}

func (r *RecordingNotifier) Notify(message string) { r.Messages = append(r.Messages, message) }

func (r *RecordingNotifier) String() string { return strings.Join(r.Messages, "\n") }
