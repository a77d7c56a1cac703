// Package docs registers the OpenAPI description served by the Swagger UI.
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
        "/users": {
            "get": {
                "tags": ["users"],
                "summary": "Current user",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/users/register": {
            "post": {
                "tags": ["users"],
                "summary": "Register an account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.RegisterInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/users/login": {
            "post": {
                "tags": ["users"],
                "summary": "Log in and start a session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/users/logout": {
            "post": {
                "tags": ["users"],
                "summary": "End the session",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/users/update": {
            "put": {
                "tags": ["users"],
                "summary": "Update the logged-in account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.UpdateInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/users/remove": {
            "delete": {
                "tags": ["users"],
                "summary": "Delete the logged-in account",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/catalog": {
            "get": {
                "tags": ["catalog"],
                "summary": "List the logged-in user's catalog",
                "produces": ["application/json"],
                "parameters": [{"in": "header", "name": "If-None-Match", "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/catalog/{userID}": {
            "get": {
                "tags": ["catalog"],
                "summary": "List another user's catalog",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "userID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/catalog/add": {
            "post": {
                "tags": ["catalog"],
                "summary": "Add a movie to the catalog",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddToCatalogRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/catalog/remove": {
            "delete": {
                "tags": ["catalog"],
                "summary": "Remove a movie from the catalog",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MovieIDRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/catalog/update": {
            "put": {
                "tags": ["catalog"],
                "summary": "Change the copy count of a cataloged movie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateCopiesRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/wish-list": {
            "get": {
                "tags": ["wish-list"],
                "summary": "List the logged-in user's wish list",
                "produces": ["application/json"],
                "parameters": [{"in": "header", "name": "If-None-Match", "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/wish-list/add": {
            "post": {
                "tags": ["wish-list"],
                "summary": "Add a movie to the wish list",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.MovieRef"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/wish-list/remove": {
            "delete": {
                "tags": ["wish-list"],
                "summary": "Remove a movie from the wish list",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MovieIDRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/movies": {
            "get": {
                "tags": ["movies"],
                "summary": "Search TMDb by title or id",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "title", "type": "string"},
                    {"in": "query", "name": "id", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        },
        "/movies/new-releases": {
            "get": {
                "tags": ["movies"],
                "summary": "New releases grouped by week",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Envelope"}}}
            }
        }
    },
    "definitions": {
        "handlers.Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "code": {"type": "string", "example": "ok"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "data": {}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "services.RegisterInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "email_address": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "services.UpdateInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "email_address": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "services.MovieRef": {
            "type": "object",
            "properties": {
                "tmdb_id": {"type": "integer", "example": 550},
                "imdb_id": {"type": "string", "example": "tt0137523"},
                "title": {"type": "string", "example": "Fight Club"},
                "poster": {"type": "string"},
                "release_date": {"type": "string", "example": "1999-10-15"}
            }
        },
        "handlers.AddToCatalogRequest": {
            "type": "object",
            "properties": {
                "tmdb_id": {"type": "integer", "example": 550},
                "imdb_id": {"type": "string", "example": "tt0137523"},
                "title": {"type": "string", "example": "Fight Club"},
                "poster": {"type": "string"},
                "release_date": {"type": "string", "example": "1999-10-15"},
                "copies": {"type": "integer", "example": 2}
            }
        },
        "handlers.MovieIDRequest": {
            "type": "object",
            "properties": {
                "tmdb_id": {"type": "integer", "example": 550}
            }
        },
        "handlers.UpdateCopiesRequest": {
            "type": "object",
            "properties": {
                "tmdb_id": {"type": "integer", "example": 550},
                "copies": {"type": "integer", "example": 3}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Movie Catalog API",
	Description:      "Personal movie catalogs, wish lists and weekly new releases.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
