// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/auth"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/rabbitmq"
	"github.com/navimedi/reporter/pkg/storage"
)

// UseCase is a struct to implement the services methods
type UseCase struct {
	// ReportRepo provides an abstraction on top of the report data source.
	ReportRepo report.Repository

	// RabbitMQRepo provides an abstraction on top of the producer rabbitmq.
	RabbitMQRepo rabbitmq.ProducerRepository

	// Storage serves the generated report files.
	Storage storage.ObjectStorage

	// Exchange and RoutingKey address the generate report queue.
	Exchange   string
	RoutingKey string

	// Now is the clock used for report timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (uc *UseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now().UTC()
	}

	return time.Now().UTC()
}

func (uc *UseCase) exchange() (string, string) {
	exchange, key := uc.Exchange, uc.RoutingKey
	if exchange == "" {
		exchange = constant.GenerateReportExchange
	}

	if key == "" {
		key = constant.GenerateReportRoutingKey
	}

	return exchange, key
}

// principal returns the caller stored in ctx by the auth middleware.
func principal(ctx context.Context) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || p.TenantID == "" {
		return nil, pkg.ValidateBusinessError(constant.ErrMissingAuthorization, constant.MongoCollectionReport)
	}

	return p, nil
}
