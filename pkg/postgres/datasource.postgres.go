// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// ReportQuery selects the rows of one report. From and To are inclusive calendar dates.
type ReportQuery struct {
	TenantID string              `json:"tenantId"`
	Type     string              `json:"type"`
	From     time.Time           `json:"from"`
	To       time.Time           `json:"to"`
	Options  model.ReportOptions `json:"options"`
}

// Result holds the columns and rows of a dataset query.
type Result struct {
	Columns []Column
	Rows    []map[string]any
}

// Repository defines an interface for reading report datasets.
//
//go:generate mockgen --destination=datasource.postgres.mock.go --package=postgres . Repository
type Repository interface {
	QueryReport(ctx context.Context, query ReportQuery) (*Result, error)
	MissingViews(ctx context.Context) ([]string, error)
	CloseConnection() error
}

// qualifyTableName returns a qualified table name with schema if provided.
func qualifyTableName(schemaName, tableName string) string {
	if schemaName == "" {
		return tableName
	}

	return fmt.Sprintf(`"%s"."%s"`, schemaName, tableName)
}

// ExternalDataSource reads datasets from the clinical warehouse.
type ExternalDataSource struct {
	connection *Connection
}

// Compile-time interface satisfaction check.
var _ Repository = (*ExternalDataSource)(nil)

// NewDataSourceRepository creates a new ExternalDataSource, establishing the database connection.
func NewDataSourceRepository(pc *Connection) (*ExternalDataSource, error) {
	if pc == nil {
		return nil, errors.New("postgres connection is nil")
	}

	if _, err := pc.GetDB(); err != nil {
		return nil, fmt.Errorf("failed to establish PostgreSQL connection: %w", err)
	}

	return &ExternalDataSource{connection: pc}, nil
}

// CloseConnection closes the connection with PostgreSQL.
func (ds *ExternalDataSource) CloseConnection() error {
	return ds.connection.Close()
}

// QueryReport runs the dataset query of a report type for a tenant and date range.
func (ds *ExternalDataSource) QueryReport(ctx context.Context, query ReportQuery) (*Result, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.datasource.query_report")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_type", query.Type),
	)

	if err := opentelemetry.SetSpanAttributesFromStruct(&span, "app.request.repository_filter", query); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to convert repository filter to JSON string", err)
	}

	statement, args, columns, err := buildReportQuery(query)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Invalid report query", err)
		return nil, err
	}

	db, err := ds.connection.GetDB()
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return nil, err
	}

	logger.Debugf("Executing SQL: %s", statement)

	queryCtx, cancel := context.WithTimeout(ctx, constant.QueryTimeoutMedium)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, statement, args...)
	if err != nil {
		if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("query execution timeout after %v: %w", constant.QueryTimeoutMedium, err)
		} else {
			err = fmt.Errorf("error executing query: %w", err)
		}

		opentelemetry.HandleSpanError(&span, "Failed to query dataset", err)

		return nil, err
	}
	defer rows.Close()

	records, err := scanRows(rows, columns, logger)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to scan dataset", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("app.response.rows", len(records)))

	return &Result{Columns: columns, Rows: records}, nil
}

// MissingViews lists the reporting views absent from the clinical schema.
func (ds *ExternalDataSource) MissingViews(ctx context.Context) ([]string, error) {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.datasource.missing_views")
	defer span.End()

	span.SetAttributes(attribute.String("app.request.request_id", reqID))

	db, err := ds.connection.GetDB()
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get database", err)
		return nil, err
	}

	statement, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("table_name").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_schema": constant.ClinicalSchema}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error generating SQL: %w", err)
	}

	schemaCtx, cancel := context.WithTimeout(ctx, constant.SchemaDiscoveryTimeout)
	defer cancel()

	rows, err := db.QueryContext(schemaCtx, statement, args...)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to query views", err)
		return nil, fmt.Errorf("error querying views: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning view name: %w", err)
		}

		present[name] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}

	return missingViews(present), nil
}

func missingViews(present map[string]bool) []string {
	missing := make([]string, 0)

	for _, ds := range Datasets {
		if !present[ds.View] {
			missing = append(missing, ds.View)
		}
	}

	sort.Strings(missing)

	return missing
}

// buildReportQuery renders the SELECT of a report query with its arguments and output columns.
func buildReportQuery(query ReportQuery) (string, []any, []Column, error) {
	dataset, ok := Datasets[query.Type]
	if !ok {
		return "", nil, nil, constant.ErrInvalidReportType
	}

	if query.TenantID == "" {
		return "", nil, nil, constant.ErrMissingRequiredFields
	}

	if query.To.Before(query.From) {
		return "", nil, nil, constant.ErrInvalidFinalDate
	}

	columns := dataset.SelectColumns(query.Options)

	keys := make([]string, len(columns))
	for i, col := range columns {
		keys[i] = col.Key
	}

	statement, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(keys...).
		From(qualifyTableName(constant.ClinicalSchema, dataset.View)).
		Where(squirrel.Eq{"tenant_id": query.TenantID}).
		Where(squirrel.GtOrEq{dataset.DateColumn: query.From}).
		Where(squirrel.Lt{dataset.DateColumn: query.To.AddDate(0, 0, 1)}).
		OrderBy(dataset.DateColumn + " ASC").
		ToSql()
	if err != nil {
		return "", nil, nil, fmt.Errorf("error generating SQL: %w", err)
	}

	return statement, args, columns, nil
}

// scanRows processes the query rows into maps keyed by column, normalizing values by column kind.
func scanRows(rows *sql.Rows, columns []Column, logger log.Logger) ([]map[string]any, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error getting column names: %w", err)
	}

	kinds := make(map[string]string, len(columns))
	for _, col := range columns {
		kinds[col.Key] = col.Kind
	}

	values := make([]any, len(names))
	pointers := make([]any, len(names))

	for i := range values {
		pointers[i] = &values[i]
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = normalizeValue(kinds[name], values[i], logger)
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// normalizeValue converts driver values: numerics become decimals, JSON text is decoded.
func normalizeValue(kind string, value any, logger log.Logger) any {
	if value == nil {
		return nil
	}

	switch kind {
	case KindMoney, KindNumber:
		if d, ok := toDecimal(value); ok {
			return d
		}

		return value
	default:
		return parseJSONBField(value, logger)
	}
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// parseJSONBField unmarshals any field that might be a JSONB type.
func parseJSONBField(value any, logger log.Logger) any {
	byteData, ok := value.([]byte)
	if !ok {
		return value
	}

	var jsonMap map[string]any
	if err := json.Unmarshal(byteData, &jsonMap); err == nil {
		return jsonMap
	}

	var jsonArray []any
	if err := json.Unmarshal(byteData, &jsonArray); err == nil {
		return jsonArray
	}

	logger.Warnf("Failed to unmarshal potential JSONB data, keeping text")

	return string(byteData)
}
