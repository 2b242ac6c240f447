// Package docs registers the OpenAPI document served under /swagger/.
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
        "/v1/ping": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness greeting",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PingResponse"}}}
            }
        },
        "/v1/polls": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Publish a poll",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CreatePollResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/polls/show": {
            "get": {
                "produces": ["application/json"],
                "summary": "Show a poll definition; unknown keys return a placeholder poll",
                "parameters": [{"type": "string", "name": "poll_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PollResponse"}}}
            }
        },
        "/v1/polls/results": {
            "get": {
                "produces": ["application/json"],
                "summary": "Show a poll with its running tally",
                "parameters": [{"type": "string", "name": "poll_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResultsResponse"}}}
            }
        },
        "/v1/polls/vote": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Cast one ballot for the calling identity",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}},
        "PingResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "CreatePollRequest": {"type": "object", "properties": {
            "question": {"type": "string"},
            "variants": {"type": "object", "additionalProperties": {"type": "string"}}
        }},
        "CreatePollResponse": {"type": "object", "properties": {"poll_id": {"type": "string"}}},
        "VoteRequest": {"type": "object", "properties": {
            "poll_id": {"type": "string"},
            "votes": {"type": "object", "additionalProperties": {"type": "integer"}}
        }},
        "VoteResponse": {"type": "object", "properties": {"counted": {"type": "boolean"}, "message": {"type": "string"}}},
        "PollOption": {"type": "object", "properties": {"option_id": {"type": "string"}, "message": {"type": "string"}}},
        "PollResponse": {"type": "object", "properties": {
            "creator": {"type": "string"},
            "poll_id": {"type": "string"},
            "question": {"type": "string"},
            "variants": {"type": "array", "items": {"$ref": "#/definitions/PollOption"}}
        }},
        "TallyResponse": {"type": "object", "properties": {
            "poll_id": {"type": "string"},
            "variants": {"type": "object", "additionalProperties": {"type": "integer"}},
            "voted": {"type": "object", "additionalProperties": {"type": "integer"}}
        }},
        "ResultsResponse": {"type": "object", "properties": {
            "found": {"type": "boolean"},
            "poll": {"$ref": "#/definitions/PollResponse"},
            "results": {"$ref": "#/definitions/TallyResponse"}
        }}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ballotbox API",
	Description:      "Publish polls, collect one ballot per identity, read running tallies.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
