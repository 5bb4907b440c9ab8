// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"

	"github.com/gofiber/fiber/v2"
)

// QueryHeader entity from query parameter from get apis
type QueryHeader struct {
	Status    string
	Type      string
	Limit     int
	Page      int
	CreatedAt time.Time
}

// Skip returns the number of documents to skip for the current page.
func (qh *QueryHeader) Skip() int {
	return qh.Page*qh.Limit - qh.Limit
}

// ValidateParameters validate and return struct of default parameters
func ValidateParameters(params map[string]string) (*QueryHeader, error) {
	query := &QueryHeader{
		Limit: constant.DefaultPaginationLimit,
		Page:  constant.DefaultPaginationPage,
	}

	for key, value := range params {
		switch strings.ToLower(key) {
		case "status":
			if !isValidStatus(value) {
				return nil, pkg.ValidateBusinessError(constant.ErrInvalidQueryParameter, "", key)
			}

			query.Status = value
		case "type":
			if !constant.IsValidReportType(value) {
				return nil, pkg.ValidateBusinessError(constant.ErrInvalidReportType, "", value)
			}

			query.Type = value
		case "limit":
			limit, err := parsePositiveInt(value, key)
			if err != nil {
				return nil, err
			}

			query.Limit = limit
		case "page":
			page, err := parsePositiveInt(value, key)
			if err != nil {
				return nil, err
			}

			query.Page = page
		case "createdat":
			createdAt, err := time.Parse(constant.DateLayout, value)
			if err != nil {
				return nil, pkg.ValidateBusinessError(constant.ErrInvalidDateFormat, "")
			}

			query.CreatedAt = createdAt
		}
	}

	maxLimit := int(pkg.GetenvIntOrDefault("MAX_PAGINATION_LIMIT", constant.DefaultMaxPaginationLimit))
	if query.Limit > maxLimit {
		return nil, pkg.ValidateBusinessError(constant.ErrPaginationLimitExceeded, "", maxLimit)
	}

	return query, nil
}

// ContentDisposition builds an attachment header value for fileName.
func ContentDisposition(fileName string) string {
	return fmt.Sprintf(attachmentFmt, fileName)
}

// SetAttachment writes the download headers of a report file.
func SetAttachment(c *fiber.Ctx, contentType, fileName string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(constant.HeaderContentDisposition, ContentDisposition(fileName))
}

func parsePositiveInt(value, paramName string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, pkg.ValidateBusinessError(constant.ErrInvalidQueryParameter, "", paramName)
	}

	return n, nil
}

func isValidStatus(status string) bool {
	switch status {
	case constant.PendingStatus, constant.ProcessingStatus, constant.CompletedStatus, constant.FailedStatus:
		return true
	default:
		return false
	}
}
