// Package docs registers the swagger document of the API. The document is maintained by hand
// from the handler annotations and docs_test.go fails when the two drift apart.
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
        "/ping": {"get": {"tags": ["Support"], "summary": "Ping", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/config": {"get": {"tags": ["Support"], "summary": "Public configuration", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Login", "consumes": ["application/json", "application/x-www-form-urlencoded"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "303": {"description": "See Other"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/auth/session": {"get": {"security": [{"Bearer": []}], "tags": ["Auth"], "summary": "Current session", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["Auth"], "summary": "Logout", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/auth/flash": {"get": {"tags": ["Auth"], "summary": "Read flash messages", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/questions": {
            "get": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Get all questions", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Create a question", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/questions/selected": {"get": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Get selected questions", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/questions/{id}": {
            "get": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Get a question", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Update a question", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Delete a question", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/questions/{id}/reset": {"post": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Reset a question", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}},
        "/questions/{id}/image": {"post": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Upload a question image", "consumes": ["multipart/form-data"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "file", "name": "image", "in": "formData", "required": true}], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/questions/{id}/testcases/import": {"post": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Import test cases", "consumes": ["multipart/form-data"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "file", "name": "file", "in": "formData", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/questions/{id}/select": {"post": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Select a question", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/questions/{id}/run": {"post": {"security": [{"Bearer": []}], "tags": ["Questions"], "summary": "Practice run", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}},
        "/functions": {"get": {"security": [{"Bearer": []}], "tags": ["Functions"], "summary": "List functions", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/functions/{id}": {"post": {"security": [{"Bearer": []}], "tags": ["Functions"], "summary": "Call a function", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/submissions": {"post": {"security": [{"Bearer": []}], "tags": ["Submissions"], "summary": "Save a submission", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "429": {"description": "Too Many Requests"}}}},
        "/submissions/evaluate": {"post": {"security": [{"Bearer": []}], "tags": ["Submissions"], "summary": "Evaluate and save a submission", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}},
        "/submissions/{questionId}": {"get": {"security": [{"Bearer": []}], "tags": ["Submissions"], "summary": "Get team submissions", "parameters": [{"type": "string", "name": "questionId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/leaderboard/overall": {"get": {"security": [{"Bearer": []}], "tags": ["Leaderboard"], "summary": "Overall leaderboard", "responses": {"200": {"description": "OK"}}}},
        "/leaderboard/{questionId}": {"get": {"security": [{"Bearer": []}], "tags": ["Leaderboard"], "summary": "Question leaderboard", "parameters": [{"type": "string", "name": "questionId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/leaderboard/{questionId}/export": {"get": {"security": [{"Bearer": []}], "tags": ["Leaderboard"], "summary": "Export a leaderboard", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "parameters": [{"type": "string", "name": "questionId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}}
    },
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Code Whisperer API",
	Description:      "Backend of the Code Whisperer function-chaining contest.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
