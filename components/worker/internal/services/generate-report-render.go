// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	"github.com/navimedi/reporter/pkg/pongo"
	"github.com/navimedi/reporter/pkg/postgres"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
)

// errNoPDFPipeline is returned when a pdf report is requested without renderer or generator.
var errNoPDFPipeline = errors.New("pdf rendering is not configured")

// excel built-in number formats.
const (
	excelFormatThousands = 3 // #,##0
	excelFormatMoney     = 4 // #,##0.00
)

type renderedReport struct {
	data        []byte
	contentType string
}

// renderReport encodes the dataset in the requested format.
func (uc *UseCase) renderReport(ctx context.Context, message *model.ReportMessage, reportModel *report.Report, result *postgres.Result) (*renderedReport, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.report.render")
	defer span.End()

	span.SetAttributes(attribute.String("app.request.report_format", message.Format))

	var (
		data []byte
		err  error
	)

	switch message.Format {
	case constant.FormatPDF:
		data, err = uc.renderPDF(ctx, message, reportModel, result)
	case constant.FormatXLSX:
		data, err = renderXLSX(result)
	case constant.FormatCSV:
		data, err = renderCSV(result)
	default:
		err = pkg.ValidateBusinessError(constant.ErrInvalidOutputFormat, constant.MongoCollectionReport, message.Format)
	}

	if err != nil {
		opentelemetry.HandleSpanError(&span, "Error rendering report", err)

		logger.Errorf("Error rendering %s report %s: %v", message.Format, message.ReportID, err)

		return nil, &StageError{Stage: constant.StageRender, Err: err}
	}

	span.SetAttributes(attribute.Int("app.response.size_bytes", len(data)))

	return &renderedReport{data: data, contentType: constant.ContentTypes[message.Format]}, nil
}

// renderPDF renders the HTML report and prints it with headless Chrome.
func (uc *UseCase) renderPDF(ctx context.Context, message *model.ReportMessage, reportModel *report.Report, result *postgres.Result) ([]byte, error) {
	if uc.HTMLRenderer == nil || uc.PDFGenerator == nil {
		return nil, errNoPDFPipeline
	}

	html, err := uc.HTMLRenderer.Render(ctx, uc.buildView(message, reportModel, result))
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	pdfBytes, err := uc.PDFGenerator.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}

	return pdfBytes, nil
}

// buildView maps the dataset to the template view, adding the summary chart when requested.
func (uc *UseCase) buildView(message *model.ReportMessage, reportModel *report.Report, result *postgres.Result) *pongo.ReportView {
	columns := make([]pongo.Column, 0, len(result.Columns))
	for _, col := range result.Columns {
		columns = append(columns, pongo.Column{Key: col.Key, Title: col.Title, Kind: col.Kind})
	}

	typeTitle, ok := constant.ReportTypeTitles[message.Type]
	if !ok {
		typeTitle = message.Type
	}

	view := &pongo.ReportView{
		Title:         message.Title,
		TypeTitle:     typeTitle,
		DateFrom:      message.DateFrom,
		DateTo:        message.DateTo,
		GeneratedBy:   reportModel.GeneratedBy,
		GeneratedAt:   uc.now(),
		Columns:       columns,
		Rows:          result.Rows,
		IncludeCharts: message.Options.IncludeCharts,
	}

	if view.Title == "" {
		view.Title = reportModel.Title
	}

	if !view.IncludeCharts {
		return view
	}

	dataset, ok := postgres.Datasets[message.Type]
	if !ok {
		view.IncludeCharts = false
		return view
	}

	view.Chart, view.ChartMax = pongo.BuildChart(result.Rows, dataset.ChartLabel, dataset.ChartValue, constant.ChartMaxBars)
	view.ChartTitle = columnTitle(result.Columns, dataset.ChartValue) + " by " + columnTitle(result.Columns, dataset.ChartLabel)

	if len(view.Chart) == 0 {
		view.IncludeCharts = false
	}

	return view
}

func columnTitle(columns []postgres.Column, key string) string {
	for _, col := range columns {
		if col.Key == key {
			return col.Title
		}
	}

	return key
}

// renderCSV writes a header row of column titles followed by one record per row.
func renderCSV(result *postgres.Result) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	header := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col.Title
	}

	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(result.Columns))

	for _, row := range result.Rows {
		for i, col := range result.Columns {
			record[i] = formatCell(col.Kind, row[col.Key])
		}

		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// renderXLSX writes the dataset to a single sheet with a bold frozen header.
// Numbers and money are stored as numeric cells.
func renderXLSX(result *postgres.Result) ([]byte, error) {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	sheet := constant.SpreadsheetSheetName

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E8EEF4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: excelFormatThousands})
	if err != nil {
		return nil, err
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: excelFormatMoney})
	if err != nil {
		return nil, err
	}

	widths := make([]int, len(result.Columns))

	for i, col := range result.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}

		if err := f.SetCellValue(sheet, cell, col.Title); err != nil {
			return nil, err
		}

		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}

		widths[i] = utf8.RuneCountInString(col.Title)
	}

	for r, row := range result.Rows {
		for i, col := range result.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}

			value := row[col.Key]

			if err := f.SetCellValue(sheet, cell, spreadsheetValue(col.Kind, value)); err != nil {
				return nil, err
			}

			switch col.Kind {
			case postgres.KindMoney:
				err = f.SetCellStyle(sheet, cell, cell, moneyStyle)
			case postgres.KindNumber:
				if d, ok := value.(decimal.Decimal); ok && d.IsInteger() {
					err = f.SetCellStyle(sheet, cell, cell, numberStyle)
				}
			}

			if err != nil {
				return nil, err
			}

			if n := utf8.RuneCountInString(formatCell(col.Kind, value)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}

		if err := f.SetColWidth(sheet, name, name, columnWidth(w)); err != nil {
			return nil, err
		}
	}

	if len(result.Columns) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func columnWidth(chars int) float64 {
	width := chars + 2
	if width < 10 {
		width = 10
	}

	if width > constant.SpreadsheetMaxColumnWidth {
		width = constant.SpreadsheetMaxColumnWidth
	}

	return float64(width)
}

// spreadsheetValue converts a dataset value to the cell value written by excelize.
func spreadsheetValue(kind string, v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return t.InexactFloat64()
	case time.Time:
		return t.Format(constant.DateLayout)
	}

	if kind == postgres.KindText {
		return formatCell(kind, v)
	}

	return v
}

// formatCell renders a dataset value as text: money with two decimals, dates as calendar days.
func formatCell(kind string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		if kind == postgres.KindMoney {
			return t.StringFixed(2)
		}

		return t.String()
	case time.Time:
		return t.Format(constant.DateLayout)
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
