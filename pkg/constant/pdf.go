// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// PDF Generation Constants
const (
	PDFMinValidSizeBytes     = 1000
	PDFLargeHTMLThreshold    = 500 * 1024 // 500 KB
	PDFBytesPerKB            = 1024
	PDFRenderSettleDelay     = 500 * time.Millisecond
	PDFPaperWidthInches      = 8.27
	PDFPaperHeightInches     = 11.69
	PDFMarginInches          = 0.5
	PDFFilePermissions       = 0o600
	PDFChromeMaxOldSpaceSize = "512"
	PDFDefaultTimeout        = 90 * time.Second
	PDFDefaultWorkers        = 2
)
