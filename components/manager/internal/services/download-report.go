// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"errors"
	"io"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	"github.com/navimedi/reporter/pkg/storage"

	"github.com/google/uuid"
	pkgErrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// DownloadReport retrieves the stored file of a completed report together with its content type.
// fileName must match the file recorded on the report.
func (uc *UseCase) DownloadReport(ctx context.Context, id uuid.UUID, fileName string) ([]byte, string, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.download_report")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
		attribute.String("app.request.file_name", fileName),
	)

	logger.Infof("Downloading report for id %v", id)

	reportModel, err := uc.GetReportByID(ctx, id)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to retrieve report on query", err)

		logger.Errorf("Failed to retrieve Report with ID: %s, Error: %s", id, err.Error())

		return nil, "", err
	}

	if reportModel.Status != constant.CompletedStatus {
		logger.Errorf("Report with ID %s is %s, not completed", id, reportModel.Status)

		return nil, "", pkg.ValidateBusinessError(constant.ErrReportStatusNotFinished, constant.MongoCollectionReport)
	}

	if reportModel.FileName == "" || reportModel.FileName != fileName {
		logger.Errorf("Report with ID %s has no file named %q", id, fileName)

		return nil, "", pkg.ValidateBusinessError(constant.ErrReportFileNotFound, constant.MongoCollectionReport)
	}

	objectName := storage.ReportKey(reportModel.TenantID, reportModel.ID.String(), reportModel.FileName)

	body, err := uc.Storage.Download(ctx, objectName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			opentelemetry.HandleSpanBusinessErrorEvent(&span, "Report file not found in storage", err)

			return nil, "", pkg.ValidateBusinessError(constant.ErrReportFileNotFound, constant.MongoCollectionReport)
		}

		opentelemetry.HandleSpanError(&span, "Failed to download file from storage", err)

		logger.Errorf("Failed to download file from storage: %s", err.Error())

		return nil, "", pkgErrors.Wrapf(err, "downloading %s", objectName)
	}

	defer func() {
		_ = body.Close()
	}()

	fileBytes, err := io.ReadAll(body)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to read file from storage", err)

		return nil, "", pkgErrors.Wrapf(err, "reading %s", objectName)
	}

	logger.Infof("Downloaded report file from storage: %s (size: %d bytes)", objectName, len(fileBytes))

	contentType, ok := constant.ContentTypes[reportModel.Format]
	if !ok {
		contentType = "application/octet-stream"
	}

	return fileBytes, contentType, nil
}
