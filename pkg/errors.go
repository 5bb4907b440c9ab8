// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/navimedi/reporter/pkg/constant"
)

// EntityNotFoundError records an error indicating an entity was not found in any case that caused it.
// You can use it to representing a Database not found, cache not found or any other repository.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if strings.TrimSpace(e.EntityType) != "" {
			return fmt.Sprintf("Entity %s not found", e.EntityType)
		}

		if e.Err != nil {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records an error indicating a request that failed a business validation.
type ValidationError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string
	Message    string
	Code       string
	Err        error `json:"err,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// UnauthorizedError indicates an operation that couldn't be performant because there's no user authenticated.
type UnauthorizedError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e UnauthorizedError) Error() string {
	return e.Message
}

// ForbiddenError indicates an operation that couldn't be performant because the authenticated user has no sufficient privileges.
type ForbiddenError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e ForbiddenError) Error() string {
	return e.Message
}

// InternalServerError indicates an unexpected failure while serving a request.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e InternalServerError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e InternalServerError) Unwrap() error {
	return e.Err
}

// ResponseError is the JSON body of every error answered by the API.
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error returns the message of the ResponseError.
func (r ResponseError) Error() string {
	return r.Message
}

// ValidationKnownFieldsError records an error that occurred during a validation of known fields.
type ValidationKnownFieldsError struct {
	EntityType string           `json:"entityType,omitempty"`
	Title      string           `json:"title,omitempty"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	Fields     FieldValidations `json:"fields,omitempty"`
}

// Error returns the error message for a ValidationKnownFieldsError.
func (r ValidationKnownFieldsError) Error() string {
	return r.Message
}

// FieldValidations is a map of known fields and their validation errors.
type FieldValidations map[string]string

// ValidationUnknownFieldsError records an error that occurred during a validation of known fields.
type ValidationUnknownFieldsError struct {
	EntityType string        `json:"entityType,omitempty"`
	Title      string        `json:"title,omitempty"`
	Code       string        `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Fields     UnknownFields `json:"fields,omitempty"`
}

// Error returns the error message for a ValidationUnknownFieldsError.
func (r ValidationUnknownFieldsError) Error() string {
	return r.Message
}

// UnknownFields is a map of unknown fields and their error messages.
type UnknownFields map[string]any

// ValidateInternalError validates the error and returns an appropriate InternalServerError.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       constant.ErrInternalServer.Error(),
		Title:      "Internal Server Error",
		Message:    "The server encountered an unexpected error. Please try again later or contact support.",
		Err:        err,
	}
}

// ValidateBadRequestFieldsError validates the error and returns the appropriate bad request error code, title, message, and the invalid fields.
func ValidateBadRequestFieldsError(requiredFields, knownInvalidFields map[string]string, entityType string, unknownFields map[string]any) error {
	if len(unknownFields) == 0 && len(knownInvalidFields) == 0 && len(requiredFields) == 0 {
		return errors.New("expected knownInvalidFields, unknownFields and requiredFields to be non-empty")
	}

	if len(unknownFields) > 0 {
		return ValidationUnknownFieldsError{
			EntityType: entityType,
			Code:       constant.ErrUnexpectedFieldsInTheRequest.Error(),
			Title:      "Unexpected Fields in the Request",
			Message:    "The request body contains more fields than expected. Please send only the allowed fields as per the documentation. The unexpected fields are listed in the fields object.",
			Fields:     unknownFields,
		}
	}

	if len(requiredFields) > 0 {
		return ValidationKnownFieldsError{
			EntityType: entityType,
			Code:       constant.ErrMissingFieldsInRequest.Error(),
			Title:      "Missing Fields in Request",
			Message:    "Your request is missing one or more required fields. Please refer to the documentation to ensure all necessary fields are included in your request.",
			Fields:     requiredFields,
		}
	}

	return ValidationKnownFieldsError{
		EntityType: entityType,
		Code:       constant.ErrBadRequest.Error(),
		Title:      "Bad Request",
		Message:    "The server could not understand the request due to malformed syntax. Please check the listed fields and try again.",
		Fields:     knownInvalidFields,
	}
}

// ValidateBusinessError validates the error and returns the appropriate business error code, title, and message.
func ValidateBusinessError(err error, entityType string, args ...any) error {
	errorMap := map[error]error{
		constant.ErrMissingRequiredFields: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrMissingRequiredFields.Error(),
			Title:      "Missing Required Fields",
			Message:    "The request body is empty or missing required fields. Please provide a complete payload and try again.",
		},
		constant.ErrInvalidReportType: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidReportType.Error(),
			Title:      "Invalid Report Type",
			Message:    fmt.Sprintf("The report type '%v' is not supported. Please select one of the available report types.", args...),
		},
		constant.ErrInvalidOutputFormat: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidOutputFormat.Error(),
			Title:      "Invalid Output Format",
			Message:    fmt.Sprintf("The output format '%v' is not supported. Allowed formats are pdf, xlsx and csv.", args...),
		},
		constant.ErrInvalidPathParameter: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidPathParameter.Error(),
			Title:      "Invalid Path Parameter",
			Message:    fmt.Sprintf("The path parameter '%v' is invalid. Please check the value and try again.", args...),
		},
		constant.ErrInvalidQueryParameter: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidQueryParameter.Error(),
			Title:      "Invalid Query Parameter",
			Message:    fmt.Sprintf("One or more query parameters are in an incorrect format. Please check the following parameters '%v' and ensure they meet the required format before trying again.", args),
		},
		constant.ErrInvalidDateFormat: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidDateFormat.Error(),
			Title:      "Invalid Date Format Error",
			Message:    "The 'dateFrom', 'dateTo', or both are in the incorrect format. Please use the 'yyyy-mm-dd' format and try again.",
		},
		constant.ErrInvalidFinalDate: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidFinalDate.Error(),
			Title:      "Invalid Final Date Error",
			Message:    "The 'dateTo' cannot be earlier than the 'dateFrom'. Please verify the dates and try again.",
		},
		constant.ErrDateRangeExceedsLimit: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrDateRangeExceedsLimit.Error(),
			Title:      "Date Range Exceeds Limit Error",
			Message:    fmt.Sprintf("The range between 'dateFrom' and 'dateTo' exceeds the permitted limit of %v months. Please adjust the dates and try again.", args...),
		},
		constant.ErrTitleTooLong: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrTitleTooLong.Error(),
			Title:      "Title Too Long",
			Message:    fmt.Sprintf("The report title exceeds the maximum allowed length of %v characters.", args...),
		},
		constant.ErrPaginationLimitExceeded: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrPaginationLimitExceeded.Error(),
			Title:      "Pagination Limit Exceeded",
			Message:    fmt.Sprintf("The pagination limit exceeds the maximum allowed of %v items per page. Please verify the limit and try again.", args...),
		},
		constant.ErrEntityNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrEntityNotFound.Error(),
			Title:      "Entity Not Found",
			Message:    "No entity was found for the given ID. Please make sure to use the correct ID for the entity you are trying to manage.",
		},
		constant.ErrReportFileNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrReportFileNotFound.Error(),
			Title:      "Report File Not Found",
			Message:    "The file for this report no longer exists. Please generate the report again.",
		},
		constant.ErrReportStatusNotFinished: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrReportStatusNotFinished.Error(),
			Title:      "Report Status Not Finished",
			Message:    "The report is still being generated and cannot be downloaded yet. Please try again once it is completed.",
		},
		constant.ErrMissingAuthorization: UnauthorizedError{
			EntityType: entityType,
			Code:       constant.ErrMissingAuthorization.Error(),
			Title:      "Missing Authorization",
			Message:    "The request is missing a bearer token. Please sign in and try again.",
		},
		constant.ErrInvalidToken: UnauthorizedError{
			EntityType: entityType,
			Code:       constant.ErrInvalidToken.Error(),
			Title:      "Invalid Token",
			Message:    "The bearer token could not be validated. Please sign in again.",
		},
		constant.ErrTokenExpired: UnauthorizedError{
			EntityType: entityType,
			Code:       constant.ErrTokenExpired.Error(),
			Title:      "Session Expired",
			Message:    "Your session has expired. Please sign in again to continue.",
		},
		constant.ErrInsufficientPermission: ForbiddenError{
			EntityType: entityType,
			Code:       constant.ErrInsufficientPermission.Error(),
			Title:      "Insufficient Permission",
			Message:    fmt.Sprintf("You do not have the '%v' permission required for this operation.", args...),
		},
		constant.ErrInvalidReportID: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidReportID.Error(),
			Title:      "Invalid Report ID",
			Message:    "The report id is missing or is not a valid UUID.",
		},
		constant.ErrInvalidReportMessage: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidReportMessage.Error(),
			Title:      "Invalid Report Message",
			Message:    "The report generation message could not be decoded.",
		},
		constant.ErrReportBelongsToOtherTenant: ForbiddenError{
			EntityType: entityType,
			Code:       constant.ErrReportBelongsToOtherTenant.Error(),
			Title:      "Access Denied",
			Message:    "You do not have access to this report.",
		},
	}

	if mappedError, found := errorMap[err]; found {
		return mappedError
	}

	return err
}
