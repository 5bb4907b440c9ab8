// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package report

import (
	"context"
	"strings"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
)

// reportIndexes lists the indexes backing tenant scoped listing and status polling.
func reportIndexes() []mongo.IndexModel {
	liveOnly := bson.D{{Key: "deleted_at", Value: nil}}

	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "_id", Value: 1},
				{Key: "deleted_at", Value: 1},
			},
			Options: options.Index().SetName("idx_report_id_deleted"),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "deleted_at", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("idx_report_tenant_list").
				SetPartialFilterExpression(liveOnly),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("idx_report_tenant_status").
				SetPartialFilterExpression(liveOnly),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("idx_report_tenant_type").
				SetPartialFilterExpression(liveOnly),
		},
	}
}

// EnsureIndexes creates all indexes for the reports collection.
func (rm *ReportMongoDBRepository) EnsureIndexes(ctx context.Context) error {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.ensure_indexes")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.collection", constant.MongoCollectionReport),
	)

	coll, err := rm.collection(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return err
	}

	indexes := reportIndexes()

	ctx, cancel := context.WithTimeout(ctx, constant.MongoIndexCreateTimeout)
	defer cancel()

	logger.Infof("Creating %d indexes for %s collection", len(indexes), constant.MongoCollectionReport)

	indexNames, err := coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		if strings.Contains(err.Error(), "IndexOptionsConflict") ||
			strings.Contains(err.Error(), "already exists") {
			logger.Infof("Indexes for %s already exist", constant.MongoCollectionReport)
			return nil
		}

		opentelemetry.HandleSpanError(&span, "Failed to create indexes", err)
		logger.Errorf("Failed to create indexes for %s: %v", constant.MongoCollectionReport, err)

		return err
	}

	logger.Infof("Created indexes for %s collection: %v", constant.MongoCollectionReport, indexNames)

	return nil
}

// DropIndexes removes all custom indexes for the reports collection.
func (rm *ReportMongoDBRepository) DropIndexes(ctx context.Context) error {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.drop_indexes")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.collection", constant.MongoCollectionReport),
	)

	logger.Warnf("Dropping all custom indexes for %s collection", constant.MongoCollectionReport)

	coll, err := rm.collection(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constant.MongoIndexDropTimeout)
	defer cancel()

	if _, err := coll.Indexes().DropAll(ctx); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to drop indexes", err)
		logger.Errorf("Failed to drop indexes for %s: %v", constant.MongoCollectionReport, err)

		return err
	}

	return nil
}
