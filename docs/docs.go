// Package docs registers the OpenAPI document served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {"get": {"tags": ["meta"], "summary": "API root info", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/health/db": {"get": {"tags": ["health"], "summary": "Database health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/health/cache": {"get": {"tags": ["health"], "summary": "Cache health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/api/players": {
            "get": {
                "tags": ["players"],
                "summary": "List draft board players",
                "description": "Returns ranked board players for the draft season with inflated auction values. Kickers and defenses are excluded.",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "enum": ["all", "available", "drafted", "targets", "avoid"], "name": "filter", "in": "query"},
                    {"type": "string", "name": "position", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}}
            }
        },
        "/api/players/{name}": {
            "get": {
                "tags": ["players"],
                "summary": "Get player detail",
                "description": "Board row, teammates, the last three seasons of scraped stats and stored analysis. Supports ETag revalidation.",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "304": {"description": "Not modified"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}}
            }
        },
        "/api/players/{name}/status": {
            "post": {
                "tags": ["players"],
                "summary": "Update draft status",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"name": "status", "in": "body", "required": true, "schema": {"$ref": "#/definitions/draft.Status"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/players/{name}/teammates": {
            "get": {
                "tags": ["players"],
                "summary": "Get teammates",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/players/{name}/analyze": {
            "post": {
                "tags": ["players"],
                "summary": "Analyze player",
                "description": "Returns the stored research report, or runs research and stores the result.",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/players/{name}/refresh-stats": {
            "post": {
                "tags": ["ingestion"],
                "summary": "Refresh player stats",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/refresh-all-stats": {
            "post": {
                "tags": ["ingestion"],
                "summary": "Refresh all stats",
                "description": "Re-scrapes the top board players in rank order. Runs synchronously.",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        }
    },
    "definitions": {
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                }
            }
        },
        "draft.Status": {
            "type": "object",
            "properties": {
                "is_target": {"type": "boolean"},
                "is_avoid": {"type": "boolean"},
                "is_drafted": {"type": "boolean"},
                "drafted_by": {"type": "string", "maxLength": 100},
                "drafted_price": {"type": "integer", "minimum": 0, "maximum": 1000},
                "has_injury_risk": {"type": "boolean"},
                "has_breakout_potential": {"type": "boolean"},
                "custom_tags": {"type": "string", "maxLength": 500},
                "draft_notes": {"type": "string", "maxLength": 2000}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Draftboard API",
	Description:      "Auction draft board backed by scraped NFL season stats.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
