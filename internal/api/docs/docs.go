// Package docs holds the Swagger description of the extloader API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "http://www.example.com/support"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Check if the API is running",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Get the health of the core and all its components",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.HealthStatus"}}
                }
            }
        },
        "/apps": {
            "get": {
                "description": "Get every configured app plugin",
                "produces": ["application/json"],
                "tags": ["apps"],
                "summary": "List apps",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.AppConfig"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/apps/load": {
            "post": {
                "description": "Preload app plugins in the background. Unknown IDs are ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["apps"],
                "summary": "Preload apps",
                "parameters": [
                    {"description": "Apps to preload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.LoadRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.LoadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/apps/{id}": {
            "get": {
                "description": "Get a single app plugin configuration",
                "produces": ["application/json"],
                "tags": ["apps"],
                "summary": "Get app",
                "parameters": [
                    {"type": "string", "description": "App ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AppConfig"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/loader": {
            "get": {
                "description": "Get the state of the plugin loader",
                "produces": ["application/json"],
                "tags": ["apps"],
                "summary": "Loader status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.LoaderStatus"}}
                }
            }
        },
        "/extensions": {
            "get": {
                "description": "Get a snapshot of every registered extension",
                "produces": ["application/json"],
                "tags": ["extensions"],
                "summary": "Get registries",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/extensions/links": {
            "get": {
                "description": "Get the links added to an extension point",
                "produces": ["application/json"],
                "tags": ["extensions"],
                "summary": "Get links",
                "parameters": [
                    {"type": "string", "description": "Extension point ID", "name": "extension_point_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/extensions/components": {
            "get": {
                "description": "Get the components added to an extension point",
                "produces": ["application/json"],
                "tags": ["extensions"],
                "summary": "Get components",
                "parameters": [
                    {"type": "string", "description": "Extension point ID", "name": "extension_point_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/extensions/functions": {
            "get": {
                "description": "Get the functions added to an extension point",
                "produces": ["application/json"],
                "tags": ["extensions"],
                "summary": "Get functions",
                "parameters": [
                    {"type": "string", "description": "Extension point ID", "name": "extension_point_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/extensions/exposed": {
            "get": {
                "description": "Get an exposed component by ID",
                "produces": ["application/json"],
                "tags": ["extensions"],
                "summary": "Get exposed component",
                "parameters": [
                    {"type": "string", "description": "Exposed component ID", "name": "id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/config": {
            "get": {
                "description": "Get the current configuration",
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Get configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "put": {
                "description": "Replace the configuration and reload the configured apps",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Update configuration",
                "parameters": [
                    {"description": "New configuration", "name": "config", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "api.LoadRequest": {
            "type": "object",
            "required": ["plugin_ids"],
            "properties": {"plugin_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "api.LoadResponse": {
            "type": "object",
            "properties": {"is_loading": {"type": "boolean"}}
        },
        "api.LoaderStatus": {
            "type": "object",
            "properties": {
                "in_flight": {"type": "integer"},
                "is_loading": {"type": "boolean"},
                "plugins": {"type": "array", "items": {"type": "string"}},
                "state": {"type": "string", "enum": ["IDLE", "LOADING"]}
            }
        },
        "model.AppConfig": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "version": {"type": "string"},
                "module": {"type": "string"},
                "path": {"type": "string"},
                "preload": {"type": "boolean"},
                "extensions": {"type": "object"}
            }
        },
        "model.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "components": {"type": "object", "additionalProperties": {"$ref": "#/definitions/model.HealthStatus"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Extension Loader API",
	Description:      "API for preloading app plugins and inspecting their extensions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
