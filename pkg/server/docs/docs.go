// Package docs holds the OpenAPI description served at /swagger/.
package docs

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
        "/generate-invoice": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": [
                    "application/pdf",
                    "text/html",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "application/json"
                ],
                "summary": "Generate a monthly invoice",
                "parameters": [
                    {"type": "integer", "name": "student_count", "in": "formData", "required": true},
                    {"type": "number", "name": "unit_price", "in": "formData", "required": true},
                    {"type": "number", "name": "refund_rate", "in": "formData", "required": true},
                    {"type": "string", "name": "customer_name", "in": "formData", "required": true},
                    {"type": "string", "name": "date", "in": "formData", "description": "reference date, YYYY-MM-DD"},
                    {"type": "string", "enum": ["pdf", "html", "xlsx"], "name": "format", "in": "formData"},
                    {"type": "string", "enum": ["ja", "en"], "name": "locale", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "rendered document"},
                    "400": {"description": "invalid input", "schema": {"$ref": "#/definitions/server.errorResponse"}},
                    "502": {"description": "rendering failed", "schema": {"$ref": "#/definitions/server.errorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "server.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "array", "items": {"type": "string"}},
                "request_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Juku invoice API",
	Description:      "Generates monthly student-count invoices as PDF, HTML or XLSX.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
