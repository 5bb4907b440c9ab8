// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pongo

import (
	"github.com/flosch/pongo2/v6"
	"github.com/shopspring/decimal"
)

// aggregateTagNode holds a parsed aggregation tag such as
// {% sum_by report.Rows by "billed_amount" if qc_status == "fail" scale 2 %}.
type aggregateTagNode struct {
	op             string
	collectionExpr pongo2.IEvaluator
	fieldExpr      pongo2.IEvaluator
	filterExpr     pongo2.IEvaluator
	scaleExpr      pongo2.IEvaluator
}

// makeAggregateTag returns a pongo2.TagParser for the given aggregation.
func makeAggregateTag(op string) pongo2.TagParser {
	return func(_ *pongo2.Parser, _ *pongo2.Token, args *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		collectionExpr, err := args.ParseExpression()
		if err != nil {
			return nil, err
		}

		var fieldExpr pongo2.IEvaluator

		if op != "count" {
			if t := args.Match(pongo2.TokenIdentifier, "by"); t == nil {
				return nil, args.Error("Expected 'by' keyword", nil)
			}

			fieldExpr, err = args.ParseExpression()
			if err != nil {
				return nil, err
			}
		}

		var filterExpr pongo2.IEvaluator
		if t := args.Match(pongo2.TokenIdentifier, "if"); t != nil {
			filterExpr, err = args.ParseExpression()
			if err != nil {
				return nil, err
			}
		}

		var scaleExpr pongo2.IEvaluator
		if t := args.Match(pongo2.TokenIdentifier, "scale"); t != nil {
			scaleExpr, err = args.ParseExpression()
			if err != nil {
				return nil, err
			}
		}

		if args.Remaining() > 0 {
			return nil, args.Error("Malformed aggregation tag", nil)
		}

		return &aggregateTagNode{
			op:             op,
			collectionExpr: collectionExpr,
			fieldExpr:      fieldExpr,
			filterExpr:     filterExpr,
			scaleExpr:      scaleExpr,
		}, nil
	}
}

// Execute aggregates the collection and writes the formatted result.
func (node *aggregateTagNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	list, err := evaluateCollection(ctx, node.collectionExpr)
	if err != nil {
		return err
	}

	result, err := aggregateResult(ctx, list, node)
	if err != nil {
		return err
	}

	if _, werr := writer.WriteString(result); werr != nil {
		return ctx.Error("Error writing output", nil)
	}

	return nil
}

// evaluateCollection evaluates expr and extracts a []map[string]any collection.
func evaluateCollection(ctx *pongo2.ExecutionContext, expr pongo2.IEvaluator) ([]map[string]any, *pongo2.Error) {
	val, err := expr.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	list, ok := val.Interface().([]map[string]any)
	if !ok {
		return nil, ctx.Error("Expected []map[string]any for collection", nil)
	}

	return list, nil
}

// aggregateResult performs sum, avg, min, max or count over the filtered list.
func aggregateResult(ctx *pongo2.ExecutionContext, list []map[string]any, node *aggregateTagNode) (string, *pongo2.Error) {
	var (
		total  decimal.Decimal
		count  int
		minVal *decimal.Decimal
		maxVal *decimal.Decimal
	)

	fieldName := ""

	if node.fieldExpr != nil {
		fieldNameVal, err := node.fieldExpr.Evaluate(ctx)
		if err != nil {
			return "", err
		}

		fieldName = fieldNameVal.String()
	}

	for _, item := range list {
		if !passesFilter(ctx, item, node.filterExpr) {
			continue
		}

		if node.op == "count" {
			count++
			continue
		}

		raw, ok := getNestedField(item, fieldName)
		if !ok {
			continue
		}

		v, ok := toDecimal(raw)
		if !ok {
			continue
		}

		total = total.Add(v)
		count++

		if minVal == nil || v.LessThan(*minVal) {
			minVal = &v
		}

		if maxVal == nil || v.GreaterThan(*maxVal) {
			maxVal = &v
		}
	}

	scale := getScale(ctx, node.scaleExpr)

	return formatOutput(node.op, total, count, minVal, maxVal, scale), nil
}

// passesFilter evaluates the filter expression with the item fields in scope.
func passesFilter(ctx *pongo2.ExecutionContext, item map[string]any, filterExpr pongo2.IEvaluator) bool {
	if filterExpr == nil {
		return true
	}

	localCtx := pongo2.NewChildExecutionContext(ctx)
	for k, v := range item {
		localCtx.Private[k] = v
	}

	cond, err := filterExpr.Evaluate(localCtx)

	return err == nil && cond.IsTrue()
}

// getScale returns the number of decimal places requested, or 0.
func getScale(ctx *pongo2.ExecutionContext, expr pongo2.IEvaluator) int32 {
	if expr == nil {
		return 0
	}

	if scaleVal, err := expr.Evaluate(ctx); err == nil {
		return int32(scaleVal.Integer())
	}

	return 0
}

// formatOutput renders the aggregation result with scale decimal places.
func formatOutput(op string, total decimal.Decimal, count int, minVal, maxVal *decimal.Decimal, scale int32) string {
	zero := decimal.Zero.StringFixed(scale)

	switch op {
	case "count":
		return decimal.NewFromInt(int64(count)).String()
	case "sum":
		return total.StringFixed(scale)
	case "avg":
		if count == 0 {
			return zero
		}

		return total.Div(decimal.NewFromInt(int64(count))).StringFixed(scale)
	case "min":
		if minVal == nil {
			return zero
		}

		return minVal.StringFixed(scale)
	case "max":
		if maxVal == nil {
			return zero
		}

		return maxVal.StringFixed(scale)
	default:
		return "NaN"
	}
}
