// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/navimedi/reporter/pkg"

	cn "github.com/navimedi/reporter/pkg/constant"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en2 "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

// DecodeHandlerFunc is a handler which works with withBody decorator.
// It receives a struct which was decoded by withBody decorator before.
// Ex: json -> withBody -> DecodeHandlerFunc.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

// decoderHandler decodes payload coming from requests.
type decoderHandler struct {
	handler      DecodeHandlerFunc
	structSource any
}

func newOfType(s any) any {
	t := reflect.TypeOf(s)
	v := reflect.New(t.Elem())

	return v.Interface()
}

// WithBody decodes and validates the request body into a new value of the type of s before calling h.
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{
		handler:      h,
		structSource: s,
	}

	return d.FiberHandlerFunc
}

// FiberHandlerFunc decodes the body, rejects unknown fields, validates the struct
// and finally calls the wrapped handler function.
func (d *decoderHandler) FiberHandlerFunc(c *fiber.Ctx) error {
	s := newOfType(d.structSource)

	bodyBytes := c.Body()

	trimmedBody := strings.TrimSpace(string(bodyBytes))
	if len(trimmedBody) == 0 || trimmedBody == "null" {
		return WithError(c, pkg.ValidateBusinessError(cn.ErrMissingRequiredFields, ""))
	}

	if err := json.Unmarshal(bodyBytes, s); err != nil {
		fieldName := extractFieldNameFromUnmarshalError(err.Error())
		knownFields := pkg.FieldValidations{}

		if fieldName != "" {
			knownFields[fieldName] = "Invalid type for this field"
		} else {
			knownFields["body"] = "Malformed JSON"
		}

		return BadRequest(c, pkg.ValidateBadRequestFieldsError(pkg.FieldValidations{}, knownFields, "", map[string]any{}))
	}

	marshaled, err := json.Marshal(s)
	if err != nil {
		return err
	}

	var originalMap, marshaledMap map[string]any

	if err := json.Unmarshal(bodyBytes, &originalMap); err != nil {
		return BadRequest(c, pkg.ValidateBusinessError(cn.ErrBadRequest, ""))
	}

	if err := json.Unmarshal(marshaled, &marshaledMap); err != nil {
		return err
	}

	diffFields := findUnknownFields(originalMap, marshaledMap)

	if len(diffFields) > 0 {
		err := pkg.ValidateBadRequestFieldsError(pkg.FieldValidations{}, pkg.FieldValidations{}, "", diffFields)
		return BadRequest(c, err)
	}

	if err := ValidateStruct(s); err != nil {
		return WithError(c, err)
	}

	return d.handler(s, c)
}

// findUnknownFields finds fields that are present in the original map but not in the marshaled map.
func findUnknownFields(original, marshaled map[string]any) map[string]any {
	diffFields := make(map[string]any)

	numKinds := pkg.GetMapNumKinds()

	for key, value := range original {
		if numKinds[reflect.ValueOf(value).Kind()] && value == 0.0 {
			continue
		}

		marshaledValue, ok := marshaled[key]
		if !ok {
			diffFields[key] = value
			continue
		}

		if originalValue, isMap := value.(map[string]any); isMap {
			if marshaledMap, ok := marshaledValue.(map[string]any); ok {
				if nestedDiff := findUnknownFields(originalValue, marshaledMap); len(nestedDiff) > 0 {
					diffFields[key] = nestedDiff
				}

				continue
			}
		}

		if value != nil && !reflect.DeepEqual(value, marshaledValue) {
			diffFields[key] = value
		}
	}

	return diffFields
}

// ValidateStruct validates a struct against defined validation rules, using the validator package.
func ValidateStruct(s any) error {
	v, trans := newValidator()

	k := reflect.ValueOf(s).Kind()
	if k == reflect.Ptr {
		k = reflect.ValueOf(s).Elem().Kind()
	}

	if k != reflect.Struct {
		return nil
	}

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, fieldError := range validationErrs {
		switch fieldError.Tag() {
		case "reporttype":
			return pkg.ValidateBusinessError(cn.ErrInvalidReportType, "", fieldError.Value())
		case "reportformat":
			return pkg.ValidateBusinessError(cn.ErrInvalidOutputFormat, "", fieldError.Value())
		case "dateonly":
			return pkg.ValidateBusinessError(cn.ErrInvalidDateFormat, "")
		}
	}

	return malformedRequestErr(validationErrs, trans)
}

func fields(errs validator.ValidationErrors, trans ut.Translator) pkg.FieldValidations {
	if len(errs) == 0 {
		return nil
	}

	fields := make(pkg.FieldValidations, len(errs))
	for _, e := range errs {
		fields[e.Field()] = e.Translate(trans)
	}

	return fields
}

func fieldsRequired(myMap pkg.FieldValidations) pkg.FieldValidations {
	result := make(pkg.FieldValidations)

	for key, value := range myMap {
		if strings.Contains(value, "required") {
			result[key] = value
		}
	}

	return result
}

func malformedRequestErr(err validator.ValidationErrors, trans ut.Translator) pkg.ValidationKnownFieldsError {
	invalidFieldsMap := fields(err, trans)

	requiredFields := fieldsRequired(invalidFieldsMap)

	var vErr pkg.ValidationKnownFieldsError

	_ = errors.As(pkg.ValidateBadRequestFieldsError(requiredFields, invalidFieldsMap, "", make(map[string]any)), &vErr)

	return vErr
}

//nolint:ireturn
func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	if err := en2.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("reporttype", func(fl validator.FieldLevel) bool {
		return cn.IsValidReportType(fl.Field().String())
	})
	_ = v.RegisterValidation("reportformat", func(fl validator.FieldLevel) bool {
		return cn.IsValidFormat(fl.Field().String())
	})
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(cn.DateLayout, fl.Field().String())
		return err == nil
	})

	_ = v.RegisterTranslation("required", trans, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is a required field", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", formatErrorFieldName(fe.Namespace()))

		return t
	})

	_ = v.RegisterTranslation("max", trans, func(ut ut.Translator) error {
		return ut.Add("max", "{0} must be at most {1} characters", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("max", formatErrorFieldName(fe.Namespace()), fe.Param())

		return t
	})

	return v, trans
}

var namespaceField = regexp.MustCompile(`\.(.+)$`)

// formatErrorFieldName strips the struct name from a validator namespace.
func formatErrorFieldName(text string) string {
	if matches := namespaceField.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}

	return text
}

var (
	structFieldPattern = regexp.MustCompile(`struct field \w+\.(\w+)`)
	fieldOfTypePattern = regexp.MustCompile(`field (\w+) of type`)
)

// extractFieldNameFromUnmarshalError extracts the field name from a JSON unmarshal error
func extractFieldNameFromUnmarshalError(errorMsg string) string {
	// "json: cannot unmarshal number into Go struct field CreateReportInput.type of type string"
	if matches := structFieldPattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
		return matches[1]
	}

	if matches := fieldOfTypePattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
