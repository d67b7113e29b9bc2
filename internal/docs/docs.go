// Package docs registers the OpenAPI document served under /swagger/.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "token and user"}, "409": {"description": "conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "token and user"}, "401": {"description": "unauthorized"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "user"}}}},
        "/auth/password": {"put": {"tags": ["auth"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "changed"}}}},
        "/auth/timezone": {"put": {"tags": ["auth"], "summary": "Update timezone", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "user"}}}},
        "/users": {"get": {"tags": ["users"], "summary": "List other users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "users"}}}},
        "/events": {
            "get": {"tags": ["events"], "summary": "List the caller's events", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "events"}}},
            "post": {"tags": ["events"], "summary": "Create an event", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "event"}}}
        },
        "/events/date-range": {"get": {"tags": ["events"], "summary": "List events overlapping a time range", "security": [{"BearerAuth": []}], "parameters": [{"name": "start", "in": "query", "required": true, "type": "string"}, {"name": "end", "in": "query", "required": true, "type": "string"}], "responses": {"200": {"description": "events"}}}},
        "/events/priority/{priority}": {"get": {"tags": ["events"], "summary": "List events with a priority", "security": [{"BearerAuth": []}], "parameters": [{"name": "priority", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "events"}}}},
        "/events/tag/{tag}": {"get": {"tags": ["events"], "summary": "List events with a tag", "security": [{"BearerAuth": []}], "parameters": [{"name": "tag", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "events"}}}},
        "/events/export.ics": {"get": {"tags": ["events"], "summary": "Export events as iCalendar", "produces": ["text/calendar"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "iCalendar document"}}}},
        "/events/{eventID}": {
            "get": {"tags": ["events"], "summary": "Get an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "event"}, "403": {"description": "access_denied"}, "404": {"description": "not_found"}}},
            "put": {"tags": ["events"], "summary": "Replace an event's fields", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "event"}}},
            "delete": {"tags": ["events"], "summary": "Delete an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "deleted"}}}
        },
        "/events/{eventID}/join": {"post": {"tags": ["events"], "summary": "Join an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "event"}, "409": {"description": "conflict"}}}},
        "/events/{eventID}/leave": {"post": {"tags": ["events"], "summary": "Leave an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "event"}, "403": {"description": "forbidden"}}}},
        "/events/{eventID}/invitations": {"post": {"tags": ["invitations"], "summary": "Invite users to an event", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "created invitations"}}}},
        "/invitations": {"get": {"tags": ["invitations"], "summary": "List the caller's pending invitations", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "invitations"}}}},
        "/invitations/{invitationID}/accept": {"post": {"tags": ["invitations"], "summary": "Accept an invitation", "security": [{"BearerAuth": []}], "parameters": [{"name": "invitationID", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "accepted"}}}},
        "/invitations/{invitationID}/decline": {"post": {"tags": ["invitations"], "summary": "Decline an invitation", "security": [{"BearerAuth": []}], "parameters": [{"name": "invitationID", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "declined"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Event Calendar API",
	Description:      "Shared calendar events, membership and invitations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
