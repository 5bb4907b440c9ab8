// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

const (
	headerUserAgent = "User-Agent"
	attachmentFmt   = "attachment; filename=%q"
)
