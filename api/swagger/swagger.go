package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kougiview API",
        "description": "Course review platform backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Google OAuth login and session"},
        {"name": "Lectures", "description": "Lecture catalogue"},
        {"name": "Reviews", "description": "Review submission and listings"},
        {"name": "ReviewPeriods", "description": "Review period administration"},
        {"name": "Bookmarks", "description": "Lecture bookmarks"},
        {"name": "Thanks", "description": "Review thanks reactions"},
        {"name": "Mypage", "description": "Authenticated user dashboard"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/google": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with Google",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GoogleLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid Google token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Logout",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/lectures": {
            "get": {
                "tags": ["Lectures"],
                "summary": "List lectures",
                "parameters": [
                    {"name": "faculty", "in": "query", "type": "string"},
                    {"name": "title", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lectures"],
                "summary": "Register lecture",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLectureRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate lecture"}
                }
            }
        },
        "/lectures/{id}": {
            "get": {
                "tags": ["Lectures"],
                "summary": "Get lecture",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/lectures/{id}/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List lecture reviews",
                "description": "Content beyond the first review is cut to a preview for callers without access",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReviewRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed"},
                    "422": {"description": "reCAPTCHA rejected"}
                }
            }
        },
        "/reviews/latest": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Latest reviews",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reviews/total": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Total review count",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reviews/{id}": {
            "delete": {
                "tags": ["Reviews"],
                "summary": "Delete own review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Not the owner"}
                }
            }
        },
        "/reviews/{id}/thanks": {
            "post": {
                "tags": ["Thanks"],
                "summary": "Thank review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Thanks"],
                "summary": "Withdraw thank",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Thanks"],
                "summary": "Thank status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures/{id}/bookmark": {
            "post": {
                "tags": ["Bookmarks"],
                "summary": "Bookmark lecture",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Bookmarks"],
                "summary": "Remove bookmark",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            },
            "get": {
                "tags": ["Bookmarks"],
                "summary": "Bookmark status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review-periods/current": {
            "get": {
                "tags": ["ReviewPeriods"],
                "summary": "Get current review period",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/review-periods": {
            "get": {
                "tags": ["ReviewPeriods"],
                "summary": "List review periods",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ReviewPeriods"],
                "summary": "Create review period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewPeriodRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/review-periods/{id}": {
            "get": {
                "tags": ["ReviewPeriods"],
                "summary": "Get review period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["ReviewPeriods"],
                "summary": "Update review period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewPeriodRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ReviewPeriods"],
                "summary": "Delete review period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/admin/review-periods/{id}/activate": {
            "post": {
                "tags": ["ReviewPeriods"],
                "summary": "Activate review period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/review-periods/{id}/deactivate": {
            "post": {
                "tags": ["ReviewPeriods"],
                "summary": "Deactivate review period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mypage/profile": {
            "get": {
                "tags": ["Mypage"],
                "summary": "My profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mypage/statistics": {
            "get": {
                "tags": ["Mypage"],
                "summary": "My statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mypage/reviews": {
            "get": {
                "tags": ["Mypage"],
                "summary": "My reviews",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "per_page", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mypage/bookmarks": {
            "get": {
                "tags": ["Mypage"],
                "summary": "My bookmarks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "per_page", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GoogleLoginRequest": {
            "type": "object",
            "properties": {
                "id_token": {"type": "string"}
            },
            "required": ["id_token"]
        },
        "CreateLectureRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "lecturer": {"type": "string"},
                "faculty": {"type": "string"}
            },
            "required": ["title", "lecturer", "faculty"]
        },
        "CreateReviewRequest": {
            "type": "object",
            "properties": {
                "rating": {"type": "number"},
                "content": {"type": "string"},
                "textbook": {"type": "string"},
                "attendance": {"type": "string"},
                "grading_type": {"type": "string"},
                "content_difficulty": {"type": "string"},
                "content_quality": {"type": "string"},
                "period_year": {"type": "string"},
                "period_term": {"type": "string"},
                "token": {"type": "string"}
            },
            "required": ["rating", "content", "token"]
        },
        "ReviewPeriodRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "starts_at": {"type": "string", "format": "date-time"},
                "ends_at": {"type": "string", "format": "date-time"},
                "is_active": {"type": "boolean"}
            },
            "required": ["name", "starts_at", "ends_at"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
