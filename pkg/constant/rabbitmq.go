// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// RabbitMQ topology for report generation jobs.
const (
	GenerateReportExchange   = "reporter.generate-report.exchange"
	GenerateReportQueue      = "reporter.generate-report"
	GenerateReportRoutingKey = "reporter.generate-report.key"
	DeadLetterExchange       = "reporter.generate-report.dlx"
	DeadLetterQueue          = "reporter.generate-report.dlq"
)

// ConnectionMonitorInterval is how often the manager checks the broker connection in the background.
const ConnectionMonitorInterval = 10 * time.Second
