// Package swagger registers the droidspec OpenAPI document with swag so
// that http-swagger can serve it at /swagger/doc.json.
//
// Regenerate with: swag init -g cmd/droidspec/main.go -o api/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List devices",
                "description": "Filters, sorts and paginates the active catalog. Query parameters override the saved filter state.",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "formFactor", "in": "query"},
                    {"type": "string", "name": "manufacturer", "in": "query"},
                    {"type": "string", "name": "minRam", "in": "query"},
                    {"type": "string", "name": "sdkVersion", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "manufacturers", "in": "query"},
                    {"type": "integer", "name": "ramMin", "in": "query", "description": "MB"},
                    {"type": "integer", "name": "ramMax", "in": "query", "description": "MB"},
                    {"type": "integer", "name": "sdkMin", "in": "query"},
                    {"type": "integer", "name": "sdkMax", "in": "query"},
                    {"type": "string", "enum": ["name", "manufacturer", "ram", "sdk"], "name": "sort", "in": "query"},
                    {"type": "string", "enum": ["asc", "desc"], "name": "order", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "perPage", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.DevicesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        },
        "/devices/{brand}/{device}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Get one device by identity key",
                "parameters": [
                    {"type": "string", "name": "brand", "in": "path", "required": true},
                    {"type": "string", "name": "device", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AndroidDevice"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Aggregate statistics for the filtered collection",
                "parameters": [
                    {"type": "string", "enum": ["filtered", "all"], "name": "scope", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.StatsResponse"}}}
            }
        },
        "/manufacturers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Distinct manufacturers in the catalog",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/form-factors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Form factors present in the catalog with counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Active catalog metadata",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Info"}}}
            }
        },
        "/catalog/upload": {
            "post": {
                "consumes": ["application/json", "application/yaml"],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Replace the catalog with an uploaded document",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.LoadResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        },
        "/catalog/fetch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Replace the catalog from a remote URL",
                "description": "Retries with backoff. A transport failure falls back to the default catalog (catalog.path, else the bundled sample) and reports a warning.",
                "parameters": [
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/catalog.FetchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.LoadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.Problem"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.Problem"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/server.Problem"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        },
        "/catalog/reset": {
            "post": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Restore the default catalog",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.LoadResponse"}}}
            }
        },
        "/export": {
            "get": {
                "produces": ["application/json", "text/csv", "application/xml", "application/yaml"],
                "tags": ["export"],
                "summary": "Download the filtered collection",
                "parameters": [
                    {"type": "string", "enum": ["json", "csv", "xml", "yaml"], "name": "format", "in": "query"},
                    {"type": "boolean", "name": "pretty", "in": "query"},
                    {"type": "string", "name": "filename", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        },
        "/export/estimate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["export"],
                "summary": "Approximate export size",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/export.SizeEstimate"}}}
            }
        },
        "/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "All persisted state slots",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/state/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Read one state slot",
                "parameters": [{"type": "string", "enum": ["filters", "pagination", "comparison", "preferences", "upload"], "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Write one state slot",
                "parameters": [{"type": "string", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            },
            "delete": {
                "tags": ["state"],
                "summary": "Clear one state slot",
                "parameters": [{"type": "string", "name": "key", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/comparison": {
            "get": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Devices selected for comparison",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/state.ComparisonResponse"}}}
            },
            "delete": {
                "tags": ["state"],
                "summary": "Clear the comparison selection",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/comparison/{brand}/{device}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Add a device to the comparison",
                "parameters": [
                    {"type": "string", "name": "brand", "in": "path", "required": true},
                    {"type": "string", "name": "device", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/state.ComparisonResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.Problem"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Remove a device from the comparison",
                "parameters": [
                    {"type": "string", "name": "brand", "in": "path", "required": true},
                    {"type": "string", "name": "device", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/state.ComparisonResponse"}}}
            }
        },
        "/ws/events": {
            "get": {
                "tags": ["events"],
                "summary": "WebSocket stream of catalog and state change events",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "server.Problem": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "instance": {"type": "string"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "service": {"type": "string", "example": "droidspec"},
                "version": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "models.AndroidDevice": {
            "type": "object",
            "properties": {
                "brand": {"type": "string"},
                "device": {"type": "string"},
                "manufacturer": {"type": "string"},
                "modelName": {"type": "string"},
                "ram": {"type": "string", "example": "8192MB"},
                "formFactor": {"type": "string"},
                "processorName": {"type": "string"},
                "gpu": {"type": "string"},
                "screenSizes": {"type": "array", "items": {"type": "string"}},
                "screenDensities": {"type": "array", "items": {"type": "integer"}},
                "abis": {"type": "array", "items": {"type": "string"}},
                "sdkVersions": {"type": "array", "items": {"type": "integer"}},
                "openGlEsVersions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "catalog.Info": {
            "type": "object",
            "properties": {
                "datasetId": {"type": "string"},
                "source": {"type": "string", "enum": ["default", "file", "upload", "url"]},
                "origin": {"type": "string"},
                "count": {"type": "integer"},
                "generation": {"type": "integer"},
                "fallback": {"type": "boolean"},
                "loadedAt": {"type": "string", "format": "date-time"}
            }
        },
        "catalog.DevicesResponse": {
            "type": "object",
            "properties": {
                "devices": {"type": "array", "items": {"$ref": "#/definitions/models.AndroidDevice"}},
                "pagination": {"type": "object"},
                "total": {"type": "integer", "example": 18},
                "filtered": {"type": "integer", "example": 7},
                "filters": {"type": "object"}
            }
        },
        "catalog.StatsResponse": {"type": "object"},
        "catalog.FetchRequest": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        },
        "catalog.LoadResponse": {
            "type": "object",
            "properties": {
                "catalog": {"$ref": "#/definitions/catalog.Info"},
                "warning": {"type": "string"}
            }
        },
        "export.SizeEstimate": {
            "type": "object",
            "properties": {
                "format": {"type": "string"},
                "records": {"type": "integer"},
                "bytes": {"type": "integer"},
                "human": {"type": "string"}
            }
        },
        "state.ComparisonResponse": {
            "type": "object",
            "properties": {
                "keys": {"type": "array", "items": {"type": "string"}},
                "devices": {"type": "array", "items": {"$ref": "#/definitions/models.AndroidDevice"}},
                "max": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "droidspec API",
	Description:      "Android device catalog browser: filtering, statistics, comparison and export.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
