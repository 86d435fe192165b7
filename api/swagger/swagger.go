package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Alumni Survey API",
        "description": "Alumni records, tracer surveys and the alumni board",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and token introspection"},
        {"name": "Accounts", "description": "Admins, alumni and program heads"},
        {"name": "Surveys", "description": "Tracer surveys, aggregates and exports"},
        {"name": "Posts", "description": "Alumni board posts, comments and likes"},
        {"name": "LegacyMirror", "description": "Legacy program head mirror outbox"}
    ],
    "paths": {
        "/login/": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/token/validate/": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Introspect a session token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"token": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenValidation"}},
                    "400": {"description": "Missing token", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/alumni-surveys/": {
            "get": {
                "tags": ["Surveys"],
                "summary": "List alumni surveys",
                "parameters": [
                    {"name": "alumni", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/AlumniSurvey"}}}
                }
            },
            "post": {
                "tags": ["Surveys"],
                "summary": "Submit an alumni survey",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AlumniSurvey"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/AlumniSurvey"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/survey-aggregates/": {
            "get": {
                "tags": ["Surveys"],
                "summary": "Survey aggregates",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "program", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SurveyAggregates"}}
                }
            }
        },
        "/survey-exports/": {
            "get": {
                "tags": ["Surveys"],
                "summary": "Export surveys as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "program", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/posts/{id}/likes/toggle/": {
            "post": {
                "tags": ["Posts"],
                "summary": "Like or unlike a post",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"type": "object", "properties": {"user_id": {"type": "integer"}, "author_id": {"type": "integer"}}}}
                ],
                "responses": {
                    "200": {"description": "Unliked", "schema": {"$ref": "#/definitions/LikeResult"}},
                    "201": {"description": "Liked", "schema": {"$ref": "#/definitions/LikeResult"}},
                    "401": {"description": "No user to attribute", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/legacy-mirror/outbox/": {
            "get": {
                "tags": ["LegacyMirror"],
                "summary": "List legacy mirror outbox entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "done", "failed"]},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "user_type": {"type": "string", "enum": ["admin", "alumni", "program_head"]}
            }
        },
        "AlumniSurvey": {
            "type": "object",
            "properties": {
                "alumni": {"type": "integer"},
                "last_name": {"type": "string"},
                "first_name": {"type": "string"},
                "year_graduated": {"type": "string"},
                "course_program": {"type": "string"},
                "employed_after_graduation": {"type": "string"},
                "job_difficulties": {"type": "array", "items": {"type": "string"}},
                "has_own_business": {"type": "string"},
                "employment_records": {"type": "array", "items": {"type": "object"}}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "id": {"type": "integer"},
                "user_type": {"type": "string"},
                "first_login": {"type": "boolean"},
                "status": {"type": "string"},
                "token": {"type": "string"},
                "token_expires_at": {"type": "integer"}
            }
        },
        "TokenValidation": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "payload": {"type": "object", "properties": {"id": {"type": "integer"}, "username": {"type": "string"}, "user_type": {"type": "string"}}},
                "reason": {"type": "string"}
            }
        },
        "SurveyAggregates": {
            "type": "object",
            "properties": {
                "employed": {"type": "object"},
                "sources": {"type": "object"},
                "performance": {"type": "object"},
                "programs": {"type": "object"},
                "promoted": {"type": "object"},
                "jobs_related": {"type": "object"},
                "self_employment": {"type": "object"},
                "has_own_business": {"type": "object"},
                "job_difficulties": {"type": "object"},
                "count": {"type": "integer"},
                "total_count": {"type": "integer"},
                "surveys_this_month": {"type": "integer"}
            }
        },
        "LikeResult": {
            "type": "object",
            "properties": {
                "liked": {"type": "boolean"},
                "likes_count": {"type": "integer"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
