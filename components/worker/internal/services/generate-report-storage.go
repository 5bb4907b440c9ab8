// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"bytes"
	"context"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	"github.com/navimedi/reporter/pkg/storage"

	pkgErrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// saveReport uploads the rendered file under the tenant's report prefix and returns its object key.
// When ReportTTL is set, the object is tagged for expiry.
func (uc *UseCase) saveReport(ctx context.Context, message *model.ReportMessage, fileName string, rendered *renderedReport) (string, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.report.save_report")
	defer span.End()

	key := storage.ReportKey(message.TenantID, message.ReportID.String(), fileName)

	span.SetAttributes(
		attribute.String("app.request.object_key", key),
		attribute.String("app.request.ttl", uc.ReportTTL),
	)

	_, err := uc.execute(constant.DependencyObjectStorage, func() (any, error) {
		return uc.Storage.UploadWithTTL(ctx, key, bytes.NewReader(rendered.data), rendered.contentType, uc.ReportTTL)
	})
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Error putting report file.", err)

		logger.Errorf("Error putting report file %s: %v", key, err)

		return "", &StageError{Stage: constant.StageStorage, Err: pkgErrors.Wrapf(err, "upload %s", key)}
	}

	if uc.ReportTTL != "" {
		logger.Infof("Saved report %s with TTL: %s", key, uc.ReportTTL)
	}

	return key, nil
}
