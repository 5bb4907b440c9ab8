// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package api holds the OpenAPI document served under /swagger.
// It follows the handler annotations in internal/adapters/http/in and the swag output layout.
package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/reports": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "List Reports",
                "parameters": [
                    {"type": "string", "description": "The authorization token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "integer", "default": 100, "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page", "name": "page", "in": "query"},
                    {"type": "string", "description": "Status filter", "name": "status", "in": "query"},
                    {"type": "string", "description": "Report type filter", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/report.Report"}}
                    }
                }
            },
            "post": {
                "description": "Accepts a report request and queues it for generation.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Create a Report",
                "parameters": [
                    {"type": "string", "description": "The authorization token", "name": "Authorization", "in": "header", "required": true},
                    {"description": "Report Input", "name": "reports", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CreateReportInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.ReportEnvelope"}}
                }
            }
        },
        "/v1/reports/download/{id}/{fileName}": {
            "get": {
                "produces": [
                    "application/pdf",
                    "text/csv",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "tags": ["Reports"],
                "summary": "Download a Report",
                "parameters": [
                    {"type": "string", "description": "The authorization token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Stored file name", "name": "fileName", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/reports/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Get a Report",
                "parameters": [
                    {"type": "string", "description": "The authorization token", "name": "Authorization", "in": "header", "required": true},
                    {"type": "string", "description": "Report ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.Report"}}
                }
            }
        }
    },
    "definitions": {
        "model.CreateReportInput": {
            "type": "object",
            "required": ["dateFrom", "dateTo", "format", "type"],
            "properties": {
                "dateFrom": {"type": "string", "example": "2025-08-01"},
                "dateTo": {"type": "string", "example": "2025-08-31"},
                "format": {"type": "string", "example": "pdf"},
                "includeCharts": {"type": "boolean"},
                "includeFinancials": {"type": "boolean"},
                "includePatientDetails": {"type": "boolean"},
                "includeTestResults": {"type": "boolean"},
                "title": {"type": "string", "maxLength": 200, "example": "Laboratory Summary Report (2025-08-01 to 2025-08-31)"},
                "type": {"type": "string", "example": "laboratory_summary"}
            }
        },
        "model.ReportEnvelope": {
            "type": "object",
            "properties": {
                "report": {"$ref": "#/definitions/report.Report"}
            }
        },
        "model.ReportOptions": {
            "type": "object",
            "properties": {
                "includeCharts": {"type": "boolean"},
                "includeFinancials": {"type": "boolean"},
                "includePatientDetails": {"type": "boolean"},
                "includeTestResults": {"type": "boolean"}
            }
        },
        "report.Report": {
            "type": "object",
            "properties": {
                "completedAt": {"type": "string"},
                "createdAt": {"type": "string"},
                "dateFrom": {"type": "string", "example": "2025-08-01"},
                "dateTo": {"type": "string", "example": "2025-08-31"},
                "fileName": {"type": "string", "example": "laboratory-summary-2025-08-01-2025-08-31.pdf"},
                "fileUrl": {"type": "string"},
                "format": {"type": "string", "example": "pdf"},
                "generatedBy": {"type": "string", "example": "Dana Reyes"},
                "id": {"type": "string", "example": "00000000-0000-0000-0000-000000000000"},
                "metadata": {"type": "object", "additionalProperties": true},
                "options": {"$ref": "#/definitions/model.ReportOptions"},
                "status": {"type": "string", "example": "pending"},
                "title": {"type": "string", "example": "Laboratory Summary Report (2025-08-01 to 2025-08-31)"},
                "type": {"type": "string", "example": "laboratory_summary"},
                "updatedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "The authorization token in the 'Bearer access_token' format. Only required when AUTH_ENABLED is true.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:4005",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Reporter",
	Description:      "Clinical report generation API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
