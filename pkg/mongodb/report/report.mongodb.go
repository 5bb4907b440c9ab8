// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/mongodb"
	"github.com/navimedi/reporter/pkg/net/http"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Repository provides an interface for operations related to reports collection in MongoDB.
//
//go:generate mockgen --destination=report.mongodb.mock.go --package=report . Repository
type Repository interface {
	Create(ctx context.Context, record *Report) (*Report, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Report, error)
	FindList(ctx context.Context, tenantID string, filters http.QueryHeader) ([]*Report, error)
	UpdateReportStatusById(ctx context.Context, status string, id uuid.UUID, completedAt time.Time, metadata map[string]any) error
	MarkCompleted(ctx context.Context, id uuid.UUID, fileName, fileURL string, completedAt time.Time, metadata map[string]any) error
}

// ReportMongoDBRepository is a MongoDB-specific implementation of the ReportRepository.
type ReportMongoDBRepository struct {
	connection *mongodb.MongoConnection
	Database   string
}

// Compile-time interface satisfaction check.
var _ Repository = (*ReportMongoDBRepository)(nil)

// NewReportMongoDBRepository returns a new instance of ReportMongoDBRepository using the given MongoDB connection.
func NewReportMongoDBRepository(mc *mongodb.MongoConnection) (*ReportMongoDBRepository, error) {
	if mc == nil {
		return nil, mongodb.ErrNilConnection
	}

	r := &ReportMongoDBRepository{
		connection: mc,
		Database:   mc.Database,
	}
	if _, err := r.connection.GetDB(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb for reports: %w", err)
	}

	return r, nil
}

func (rm *ReportMongoDBRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := rm.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	return db.Database(strings.ToLower(rm.Database)).Collection(strings.ToLower(constant.MongoCollectionReport)), nil
}

// Create inserts a new report entity into mongo.
func (rm *ReportMongoDBRepository) Create(ctx context.Context, report *Report) (*Report, error) {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", report.ID.String()),
	)

	coll, err := rm.collection(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return nil, err
	}

	record := &ReportMongoDBModel{}
	record.FromEntity(report)

	if err := opentelemetry.SetSpanAttributesFromStruct(&span, "app.request.repository_input", record); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to convert report record to JSON string", err)
	}

	if _, err := coll.InsertOne(ctx, record); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to insert report", err)
		return nil, err
	}

	return record.ToEntity(), nil
}

// FindByID retrieves a non deleted report. Missing reports yield mongo.ErrNoDocuments.
func (rm *ReportMongoDBRepository) FindByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.find_by_id")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
	)

	coll, err := rm.collection(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return nil, err
	}

	var record ReportMongoDBModel

	filter := bson.M{"_id": id, "deleted_at": bson.D{{Key: "$eq", Value: nil}}}

	if err := coll.FindOne(ctx, filter).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			opentelemetry.HandleSpanBusinessErrorEvent(&span, "Report not found", err)
		} else {
			opentelemetry.HandleSpanError(&span, "Failed to find report by id", err)
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindList retrieves the reports of a tenant, newest first, with filtering and pagination support.
func (rm *ReportMongoDBRepository) FindList(ctx context.Context, tenantID string, filters http.QueryHeader) ([]*Report, error) {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.find_list")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.tenant_id", tenantID),
	)

	if err := opentelemetry.SetSpanAttributesFromStruct(&span, "app.request.payload", filters); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to convert filters to JSON string", err)
	}

	coll, err := rm.collection(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return nil, err
	}

	cur, err := coll.Find(ctx, listFilter(tenantID, filters), listOptions(filters))
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to find reports", err)
		return nil, err
	}

	defer func() {
		_ = cur.Close(ctx)
	}()

	reports := make([]*Report, 0)

	for cur.Next(ctx) {
		var record ReportMongoDBModel
		if err := cur.Decode(&record); err != nil {
			opentelemetry.HandleSpanError(&span, "Failed to decode report", err)
			return nil, err
		}

		reports = append(reports, record.ToEntity())
	}

	if err := cur.Err(); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to iterate reports", err)
		return nil, err
	}

	return reports, nil
}

func listFilter(tenantID string, filters http.QueryHeader) bson.M {
	queryFilter := bson.M{
		"tenant_id":  tenantID,
		"deleted_at": bson.D{{Key: "$eq", Value: nil}},
	}

	if !pkg.IsNilOrEmpty(&filters.Status) {
		queryFilter["status"] = filters.Status
	}

	if !pkg.IsNilOrEmpty(&filters.Type) {
		queryFilter["type"] = filters.Type
	}

	if !filters.CreatedAt.IsZero() {
		queryFilter["created_at"] = bson.M{
			"$gte": filters.CreatedAt,
			"$lt":  filters.CreatedAt.AddDate(0, 0, 1),
		}
	}

	return queryFilter
}

func listOptions(filters http.QueryHeader) *options.FindOptions {
	return options.Find().
		SetLimit(int64(filters.Limit)).
		SetSkip(int64(filters.Skip())).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
}

// UpdateReportStatusById updates only the status, completedAt and metadata fields of a report document by UUID.
func (rm *ReportMongoDBRepository) UpdateReportStatusById(
	ctx context.Context,
	status string,
	id uuid.UUID,
	completedAt time.Time,
	metadata map[string]any,
) error {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
		attribute.String("app.request.status", status),
	)

	return rm.update(ctx, &span, id, statusUpdate(status, completedAt, metadata))
}

// MarkCompleted records the stored file of a report and moves it to completed.
func (rm *ReportMongoDBRepository) MarkCompleted(
	ctx context.Context,
	id uuid.UUID,
	fileName, fileURL string,
	completedAt time.Time,
	metadata map[string]any,
) error {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.report.mark_completed")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
		attribute.String("app.request.file_name", fileName),
	)

	fields := statusUpdate(constant.CompletedStatus, completedAt, metadata)
	fields["file_name"] = fileName
	fields["file_url"] = fileURL

	return rm.update(ctx, &span, id, fields)
}

func statusUpdate(status string, completedAt time.Time, metadata map[string]any) bson.M {
	fields := bson.M{"updated_at": time.Now().UTC()}

	if status != "" {
		fields["status"] = status
	}

	if !completedAt.IsZero() {
		fields["completed_at"] = completedAt
	}

	if metadata != nil {
		fields["metadata"] = metadata
	}

	return fields
}

func (rm *ReportMongoDBRepository) update(ctx context.Context, span *trace.Span, id uuid.UUID, fields bson.M) error {
	coll, err := rm.collection(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(span, "Failed to get database", err)
		return err
	}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		opentelemetry.HandleSpanError(span, "Failed to update report", err)
		return err
	}

	if result.MatchedCount == 0 {
		opentelemetry.HandleSpanBusinessErrorEvent(span, "No report found with the provided UUID", constant.ErrEntityNotFound)
		return mongo.ErrNoDocuments
	}

	return nil
}
