// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"errors"
	"fmt"
)

// ErrSubmissionInFlight is returned by Form.Submit while the same form still has a submission pending.
var ErrSubmissionInFlight = errors.New("a submission from this form is already in progress")

// ErrFormClosed is returned by Form.Submit once the form was submitted successfully or dismissed.
var ErrFormClosed = errors.New("report request form is closed")

const genericGenerationMessage = "Failed to generate report. Please try again."

// UserFacingError is implemented by every error the client returns to a caller.
// UserMessage is safe to show to an end user; Error carries the diagnostic detail.
type UserFacingError interface {
	error
	UserMessage() string
}

// ValidationError is a request rejected before reaching the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UserMessage returns the field message.
func (e *ValidationError) UserMessage() string {
	return e.Message
}

// ReportGenerationError is a failed creation call. Message holds the server provided text, if any.
type ReportGenerationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ReportGenerationError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("report generation failed with status %d: %s", e.StatusCode, e.UserMessage())
	case e.Err != nil:
		return fmt.Sprintf("report generation failed: %v", e.Err)
	default:
		return "report generation failed: " + e.UserMessage()
	}
}

// UserMessage returns the server message or a generic fallback.
func (e *ReportGenerationError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}

	return genericGenerationMessage
}

func (e *ReportGenerationError) Unwrap() error {
	return e.Err
}

// MissingFileReferenceError is a download requested for a report without a file yet.
type MissingFileReferenceError struct {
	ReportID string
	Status   string
}

func (e *MissingFileReferenceError) Error() string {
	return fmt.Sprintf("report %s has no downloadable file (status %q)", e.ReportID, e.Status)
}

// UserMessage implements UserFacingError.
func (e *MissingFileReferenceError) UserMessage() string {
	return "This report is not ready for download yet."
}

// NotAuthenticatedError is a download attempted without an active session.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "no authenticated session"
}

// UserMessage implements UserFacingError.
func (e *NotAuthenticatedError) UserMessage() string {
	return "Please sign in to download reports."
}

// SessionExpiredError maps a 401 answer.
type SessionExpiredError struct {
	ReportID string
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired while downloading report %s", e.ReportID)
}

// UserMessage implements UserFacingError.
func (e *SessionExpiredError) UserMessage() string {
	return "Your session has expired. Please sign in again."
}

// AccessDeniedError maps a 403 answer.
type AccessDeniedError struct {
	ReportID string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to report %s", e.ReportID)
}

// UserMessage implements UserFacingError.
func (e *AccessDeniedError) UserMessage() string {
	return "You do not have permission to download this report."
}

// ReportNotFoundError maps a 404 answer.
type ReportNotFoundError struct {
	ReportID string
}

func (e *ReportNotFoundError) Error() string {
	return fmt.Sprintf("report %s not found", e.ReportID)
}

// UserMessage implements UserFacingError.
func (e *ReportNotFoundError) UserMessage() string {
	return "The report file no longer exists."
}

// ServerError is any other non-2xx answer. StatusCode is 0 when the server could not be reached.
type ServerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}

	if e.Message != "" {
		return fmt.Sprintf("server answered %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("server answered %d", e.StatusCode)
}

// UserMessage implements UserFacingError.
func (e *ServerError) UserMessage() string {
	if e.StatusCode == 0 {
		return "The report service could not be reached. Please try again."
	}

	return fmt.Sprintf("The report service failed to process the request (status %d).", e.StatusCode)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// TimeoutError is a request that exceeded the client timeout.
type TimeoutError struct {
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Operation, e.Err)
}

// UserMessage implements UserFacingError.
func (e *TimeoutError) UserMessage() string {
	return "The request timed out. Please try again."
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// SaveError is a downloaded file that could not be written locally.
type SaveError struct {
	FileName string
	Err      error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving %s: %v", e.FileName, e.Err)
}

// UserMessage implements UserFacingError.
func (e *SaveError) UserMessage() string {
	return "The file could not be saved."
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// UserMessage returns the user facing text of err, falling back to a generic message.
func UserMessage(err error) string {
	var ufe UserFacingError
	if errors.As(err, &ufe) {
		return ufe.UserMessage()
	}

	return "Something went wrong. Please try again."
}

// errorKind is the metric attribute value of err.
func errorKind(err error) string {
	var (
		validation *ValidationError
		generation *ReportGenerationError
		missing    *MissingFileReferenceError
		noSession  *NotAuthenticatedError
		expired    *SessionExpiredError
		denied     *AccessDeniedError
		notFound   *ReportNotFoundError
		server     *ServerError
		timeout    *TimeoutError
		save       *SaveError
	)

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &generation):
		return "generation"
	case errors.As(err, &missing):
		return "missing_file_reference"
	case errors.As(err, &noSession):
		return "not_authenticated"
	case errors.As(err, &expired):
		return "session_expired"
	case errors.As(err, &denied):
		return "access_denied"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &server):
		return "server"
	case errors.As(err, &save):
		return "save"
	default:
		return "unknown"
	}
}
