// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import (
	"errors"
)

// List of errors that can be returned.
// Standardized error codes shared by the manager, the worker and the client.
var (
	ErrMissingRequiredFields        = errors.New("RPT-0001")
	ErrInvalidReportType            = errors.New("RPT-0002")
	ErrInvalidOutputFormat          = errors.New("RPT-0003")
	ErrInvalidHeaderParameter       = errors.New("RPT-0004")
	ErrInvalidPathParameter         = errors.New("RPT-0011")
	ErrEntityNotFound               = errors.New("RPT-0013")
	ErrInvalidReportID              = errors.New("RPT-0014")
	ErrUnexpectedFieldsInTheRequest = errors.New("RPT-0017")
	ErrMissingFieldsInRequest       = errors.New("RPT-0018")
	ErrBadRequest                   = errors.New("RPT-0019")
	ErrInternalServer               = errors.New("RPT-0020")
	ErrInvalidQueryParameter        = errors.New("RPT-0021")
	ErrInvalidDateFormat            = errors.New("RPT-0022")
	ErrInvalidFinalDate             = errors.New("RPT-0023")
	ErrDateRangeExceedsLimit        = errors.New("RPT-0024")
	ErrPaginationLimitExceeded      = errors.New("RPT-0026")
	ErrReportStatusNotFinished      = errors.New("RPT-0031")
	ErrReportFileNotFound           = errors.New("RPT-0032")
	ErrTitleTooLong                 = errors.New("RPT-0033")
	ErrMissingAuthorization         = errors.New("RPT-0040")
	ErrTokenExpired                 = errors.New("RPT-0041")
	ErrInsufficientPermission       = errors.New("RPT-0042")
	ErrReportBelongsToOtherTenant   = errors.New("RPT-0043")
	ErrInvalidToken                 = errors.New("RPT-0044")
	ErrInvalidReportMessage         = errors.New("RPT-0050")
)
