// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pongo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flosch/pongo2/v6"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// cellFilter reads a row value by column key: {{ row|cell:col.Key }}.
func cellFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	row, ok := in.Interface().(map[string]any)
	if !ok {
		return pongo2.AsValue(nil), nil
	}

	v, found := getNestedField(row, param.String())
	if !found {
		return pongo2.AsValue(nil), nil
	}

	return pongo2.AsValue(v), nil
}

// formatKindFilter formats a cell by column kind (text, number, money, date).
func formatKindFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	v := in.Interface()
	if v == nil {
		return pongo2.AsValue(""), nil
	}

	switch param.String() {
	case "money":
		if d, ok := toDecimal(v); ok {
			return pongo2.AsValue(groupThousands(d.StringFixed(2))), nil
		}
	case "number":
		if d, ok := toDecimal(v); ok {
			return pongo2.AsValue(groupThousands(d.String())), nil
		}
	case "date":
		if s, ok := formatDate(v); ok {
			return pongo2.AsValue(s), nil
		}
	}

	switch t := v.(type) {
	case string:
		return pongo2.AsValue(t), nil
	case map[string]any, []any:
		raw, err := json.Marshal(t)
		if err != nil {
			return pongo2.AsValue(fmt.Sprintf("%v", t)), nil
		}

		return pongo2.AsValue(string(raw)), nil
	default:
		return pongo2.AsValue(fmt.Sprintf("%v", t)), nil
	}
}

// moneyFilter formats a numeric value with two decimals and thousands separators.
func moneyFilter(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	d, ok := toDecimal(in.Interface())
	if !ok {
		return pongo2.AsSafeValue("NaN"), &pongo2.Error{
			Sender:    "moneyFilter",
			OrigError: fmt.Errorf("unsupported type %T", in.Interface()),
		}
	}

	return pongo2.AsValue(groupThousands(d.StringFixed(2))), nil
}

// percentOfFilter calculates the percentage of in relative to param, formatted with two decimals.
// Returns "NaN" with an error if inputs are invalid or the denominator is zero.
func percentOfFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	num, ok1 := toDecimal(in.Interface())
	den, ok2 := toDecimal(param.Interface())

	if !ok1 || !ok2 || den.IsZero() {
		return pongo2.AsSafeValue("NaN"), &pongo2.Error{
			Sender:    "percentOfFilter",
			OrigError: errors.New("invalid input or denominator is zero"),
		}
	}

	return pongo2.AsValue(num.Div(den).Mul(hundred).StringFixed(2) + "%"), nil
}
