// Package docs registers the OpenAPI document served by the optional
// Swagger UI route. Regenerate with `swag init -g internal/http/router.go -o internal/docs`.
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
        "/scores": {
            "get": {
                "description": "Returns at most 20 stored scores, in storage order.",
                "produces": ["application/json"],
                "tags": ["Scores"],
                "summary": "List scores",
                "operationId": "listScores",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/domain.Score"}
                        }
                    },
                    "500": {
                        "description": "Storage error",
                        "schema": {"type": "string"}
                    }
                }
            },
            "post": {
                "description": "Stores a finished game and returns the stored record with its id and creation date.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Scores"],
                "summary": "Record a score",
                "operationId": "createScore",
                "parameters": [
                    {
                        "description": "Game result",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.CreateScoreRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/domain.Score"}
                    },
                    "400": {
                        "description": "Json deserialize error",
                        "schema": {"type": "string"}
                    },
                    "500": {
                        "description": "Storage error",
                        "schema": {"type": "string"}
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Score": {
            "type": "object",
            "properties": {
                "creation_date": {"type": "string", "example": "2024-01-01 00:00:00"},
                "disks": {"type": "integer", "example": 7},
                "id": {"type": "integer", "example": 1},
                "median_time": {"type": "integer", "example": 340},
                "n_turn": {"type": "integer", "example": 12},
                "player": {"type": "string", "example": "ada"}
            }
        },
        "handlers.CreateScoreRequest": {
            "type": "object",
            "required": ["disks", "median_time", "n_turn", "player"],
            "properties": {
                "disks": {"type": "integer", "example": 7},
                "median_time": {"type": "integer", "example": 340},
                "n_turn": {"type": "integer", "example": 12},
                "player": {"type": "string", "example": "ada"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/hanoi/api/v1",
	Schemes:          []string{},
	Title:            "Hanoi Scores API",
	Description:      "Stores and lists Tower of Hanoi game results.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
