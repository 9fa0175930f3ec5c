// Package docs registers the OpenAPI document served by the swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "vncd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service identity",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ServiceInfo"}}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness with stack status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Detailed supervisor status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/_admin/vnc/start": {
            "post": {
                "produces": ["application/json"],
                "summary": "Start the display, VNC server and websocket bridge",
                "parameters": [{"type": "string", "name": "X-Admin-Token", "in": "header", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StartResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Start failed", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/_admin/vnc/stop": {
            "post": {
                "produces": ["application/json"],
                "summary": "Stop the stack",
                "parameters": [{"type": "string", "name": "X-Admin-Token", "in": "header", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StopResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.VNCStatus": {
            "type": "object",
            "properties": {
                "running": {"type": "boolean", "example": true},
                "display": {"type": "string", "example": ":99"},
                "vnc_port": {"type": "integer", "example": 5900},
                "ws_port": {"type": "integer", "example": 6080}
            }
        },
        "types.ServiceInfo": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "service": {"type": "string", "example": "vncd"},
                "mode": {"type": "string", "example": "private"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "pid": {"type": "integer", "example": 1234},
                "uptime": {"type": "number", "example": 12.5},
                "vnc": {"$ref": "#/definitions/types.VNCStatus"}
            }
        },
        "types.StartResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "already_running": {"type": "boolean"},
                "started": {"type": "boolean"},
                "running": {"type": "boolean"},
                "display": {"type": "string"},
                "vnc_port": {"type": "integer"},
                "ws_port": {"type": "integer"}
            }
        },
        "types.StopResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "stopped": {"type": "boolean"},
                "running": {"type": "boolean"},
                "display": {"type": "string"},
                "vnc_port": {"type": "integer"},
                "ws_port": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "running": {"type": "boolean"},
                "display": {"type": "string"},
                "vnc_port": {"type": "integer"},
                "ws_port": {"type": "integer"},
                "processes": {"type": "array", "items": {"type": "object"}},
                "sidecars": {"type": "array", "items": {"type": "object"}},
                "lifecycle": {"type": "string"},
                "last_error": {"type": "string"},
                "tunnel_sessions": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": false},
                "error": {"type": "string", "example": "unauthorized"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "vncd API",
	Description:      "Supervisor and websocket tunnel for a browser-accessible virtual desktop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
