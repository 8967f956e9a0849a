package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ProjectHub API",
        "description": "Project and task management backend with remote calendar mirroring",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Users", "description": "User directory"},
        {"name": "Projects", "description": "Project lifecycle"},
        {"name": "Tasks", "description": "Task management"},
        {"name": "Deliverables", "description": "Deliverable submission and review"},
        {"name": "Events", "description": "Calendar events and remote sync"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List the caller's calendar events",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create a calendar event",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/events/upcoming": {
            "get": {
                "tags": ["Events"],
                "summary": "List the caller's next upcoming events",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/range": {
            "get": {
                "tags": ["Events"],
                "summary": "List events overlapping a time window",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/remote": {
            "get": {
                "tags": ["Events"],
                "summary": "List events straight from the remote calendar",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/export": {
            "get": {
                "tags": ["Events"],
                "summary": "Export the caller's upcoming agenda",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get a calendar event",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Events"],
                "summary": "Update a calendar event",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete a calendar event",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/events/{id}/sync": {
            "post": {
                "tags": ["Events"],
                "summary": "Push an event to the remote calendar",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "ProjectHub API",
	Description:      "Project and task management backend with remote calendar mirroring",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
