// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pongo

import (
	"context"
	_ "embed"
	"sort"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/flosch/pongo2/v6"
	"github.com/shopspring/decimal"
)

//go:embed templates/report.html
var reportTemplate []byte

// Column is a rendered table column.
type Column struct {
	Key   string
	Title string
	Kind  string
}

// ChartBar is one bar of the summary chart.
type ChartBar struct {
	Label string
	Value decimal.Decimal
}

// ReportView is the data rendered by the report template.
type ReportView struct {
	Title         string
	TypeTitle     string
	DateFrom      string
	DateTo        string
	GeneratedBy   string
	GeneratedAt   time.Time
	Columns       []Column
	Rows          []map[string]any
	HasMoney      bool
	IncludeCharts bool
	ChartTitle    string
	Chart         []ChartBar
	ChartMax      decimal.Decimal
}

// TemplateRenderer handles rendering templates using pongo2
type TemplateRenderer struct {
	report *pongo2.Template
}

// NewTemplateRenderer parses the embedded report template.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tpl, err := pongo2.FromBytes(reportTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateRenderer{report: tpl}, nil
}

// Render renders the report template for view.
func (r *TemplateRenderer) Render(ctx context.Context, view *ReportView) (string, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	_, span := tracer.Start(ctx, "pongo.render_report")
	defer span.End()

	for _, col := range view.Columns {
		if col.Kind == "money" {
			view.HasMoney = true
			break
		}
	}

	out, err := r.report.Execute(pongo2.Context{"report": view})
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Error executing template", err)
		logger.Errorf("Error executing report template: %s", err.Error())

		return "", err
	}

	return out, nil
}

// RenderFromBytes renders an ad hoc template with the provided data context.
func (r *TemplateRenderer) RenderFromBytes(ctx context.Context, templateBytes []byte, data map[string]any) (string, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	tpl, err := pongo2.FromBytes(templateBytes)
	if err != nil {
		logger.Errorf("Error parsing template: %s", err.Error())
		return "", err
	}

	out, err := tpl.Execute(pongo2.Context(data))
	if err != nil {
		logger.Errorf("Error executing template: %s", err.Error())
		return "", err
	}

	return out, nil
}

// BuildChart sums valueKey per labelKey and returns the largest limit bars with the maximum value.
// It returns nil when no positive value exists.
func BuildChart(rows []map[string]any, labelKey, valueKey string, limit int) ([]ChartBar, decimal.Decimal) {
	if labelKey == "" || valueKey == "" {
		return nil, decimal.Zero
	}

	totals := make(map[string]decimal.Decimal)

	for _, row := range rows {
		label, ok := row[labelKey].(string)
		if !ok || label == "" {
			continue
		}

		v, ok := toDecimal(row[valueKey])
		if !ok {
			continue
		}

		totals[label] = totals[label].Add(v)
	}

	bars := make([]ChartBar, 0, len(totals))
	for label, v := range totals {
		bars = append(bars, ChartBar{Label: label, Value: v})
	}

	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value.Equal(bars[j].Value) {
			return bars[i].Label < bars[j].Label
		}

		return bars[i].Value.GreaterThan(bars[j].Value)
	})

	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}

	if len(bars) == 0 || !bars[0].Value.IsPositive() {
		return nil, decimal.Zero
	}

	return bars, bars[0].Value
}
