// Package docs registers the OpenAPI document served at /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/markets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["markets"],
                "summary": "List the instrument universe",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Instrument"}}}}
            }
        },
        "/api/analytics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Current week's scores",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.WeeklyScore"}}}}
            }
        },
        "/api/analytics/run": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Run the weekly analysis now",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.runSummary"}},
                    "207": {"description": "Most instruments failed", "schema": {"$ref": "#/definitions/handler.runSummary"}},
                    "409": {"description": "A run is already in progress", "schema": {"$ref": "#/definitions/error"}},
                    "503": {"description": "Unavailable", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/analytics/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Score history across all symbols",
                "parameters": [{"type": "integer", "description": "Weeks to return (default 12, max 52)", "name": "weeks", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.WeeklyScore"}}}}
            }
        },
        "/api/analytics/history/{symbol}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Score history for one symbol",
                "parameters": [
                    {"type": "string", "description": "Instrument symbol", "name": "symbol", "in": "path", "required": true},
                    {"type": "integer", "description": "Weeks to return (default 52, max 200)", "name": "weeks", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.WeeklyScore"}}}}
            }
        },
        "/api/analytics/{symbol}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Current week's score for one symbol",
                "parameters": [{"type": "string", "description": "Instrument symbol", "name": "symbol", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.WeeklyScore"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/config/max-active/{pool}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Activation limit of a pool",
                "parameters": [{"type": "string", "description": "markets or stocks", "name": "pool", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MaxActive"}}}
            },
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Change a pool's activation limit",
                "parameters": [
                    {"type": "string", "description": "markets or stocks", "name": "pool", "in": "path", "required": true},
                    {"description": "New limit", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"max_active": {"type": "integer"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MaxActive"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/config/{symbol}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Trading configuration for one symbol",
                "parameters": [{"type": "string", "description": "Instrument symbol", "name": "symbol", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MarketConfig"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/override/{symbol}": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Pin or release a symbol's activation",
                "parameters": [
                    {"type": "string", "description": "Instrument symbol", "name": "symbol", "in": "path", "required": true},
                    {"description": "true/false pins, null clears", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"active": {"type": "boolean"}}}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MarketConfig"}}}
            }
        },
        "/api/backtest/heatmap/{symbol}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["backtest"],
                "summary": "Stop/target heatmap for one symbol",
                "parameters": [{"type": "string", "description": "Instrument symbol", "name": "symbol", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Heatmap"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Weekly result summaries",
                "parameters": [{"type": "integer", "description": "Weeks to return (default 12)", "name": "weeks", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Record a realized weekly result",
                "parameters": [{"description": "Weekly result", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.WeeklyResult"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.WeeklyResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/candles": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["candles"],
                "summary": "Upload price bars",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"symbol": {"type": "string"}, "received": {"type": "integer"}, "inserted": {"type": "integer"}, "duplicates": {"type": "integer"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/api/fundamental": {
            "get": {
                "produces": ["application/json"],
                "tags": ["fundamental"],
                "summary": "Regional macro outlooks",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.RegionOutlook"}}}}
            }
        },
        "/api/fundamental/{region}": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["fundamental"],
                "summary": "Update a region's outlook",
                "parameters": [
                    {"type": "string", "description": "Region", "name": "region", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.RegionOutlook"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RegionOutlook"}}}
            }
        },
        "/api/fundamental/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["fundamental"],
                "summary": "Economic calendar",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.EconomicEvent"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["fundamental"],
                "summary": "Add an economic event",
                "parameters": [{"description": "Event", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.EconomicEvent"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.EconomicEvent"}}}
            }
        },
        "/api/fundamental/events/{id}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["fundamental"],
                "summary": "Delete an economic event",
                "parameters": [{"type": "integer", "description": "Event id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        }
    },
    "definitions": {
        "error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "domain.Instrument": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "name": {"type": "string"},
                "pool": {"type": "string"},
                "asset_class": {"type": "string"},
                "region": {"type": "string"},
                "spread": {"type": "number"},
                "session": {"type": "object", "properties": {"start": {"type": "integer"}, "end": {"type": "integer"}}}
            }
        },
        "domain.WeeklyScore": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "week_start": {"type": "string"},
                "pool": {"type": "string"},
                "technical_score": {"type": "number"},
                "backtest_score": {"type": "number"},
                "fundamental_score": {"type": "number"},
                "final_score": {"type": "number"},
                "rank": {"type": "integer"},
                "is_active": {"type": "boolean"},
                "is_manually_overridden": {"type": "boolean"},
                "optimal": {"type": "object", "properties": {"entry_hour": {"type": "integer"}, "sl_pct": {"type": "number"}, "tp_pct": {"type": "number"}}},
                "stability": {"type": "number"}
            }
        },
        "domain.MarketConfig": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "active": {"type": "boolean"},
                "entryHour": {"type": "integer"},
                "entryMinute": {"type": "integer"},
                "slPercent": {"type": "number"},
                "tpPercent": {"type": "number"},
                "weekStart": {"type": "string"}
            }
        },
        "domain.MaxActive": {
            "type": "object",
            "properties": {
                "pool": {"type": "string"},
                "maxActive": {"type": "integer"},
                "activeCount": {"type": "integer"}
            }
        },
        "domain.Heatmap": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "entry_hour": {"type": "integer"},
                "grid": {"type": "array", "items": {"type": "object"}},
                "entry_hour_returns": {"type": "array", "items": {"type": "object"}}
            }
        },
        "domain.WeeklyResult": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "week_start": {"type": "string"},
                "trades_taken": {"type": "integer"},
                "wins": {"type": "integer"},
                "losses": {"type": "integer"},
                "total_pnl_percent": {"type": "number"},
                "was_active": {"type": "boolean"}
            }
        },
        "domain.RegionOutlook": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "cb_stance": {"type": "number"},
                "growth_outlook": {"type": "number"},
                "inflation_trend": {"type": "number"},
                "risk_sentiment": {"type": "number"},
                "notes": {"type": "string"}
            }
        },
        "domain.EconomicEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "region": {"type": "string"},
                "event_date": {"type": "string"},
                "title": {"type": "string"},
                "impact": {"type": "string"}
            }
        },
        "handler.runSummary": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "run_id": {"type": "string"},
                "week_start": {"type": "string"},
                "analyzed": {"type": "integer"},
                "failed": {"type": "integer"},
                "skipped": {"type": "array", "items": {"type": "string"}},
                "active": {"type": "array", "items": {"type": "string"}},
                "errors": {"type": "array", "items": {"type": "object"}},
                "duration_ms": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Long Entry API",
	Description:      "Weekly market ranking and long-entry parameter optimisation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
