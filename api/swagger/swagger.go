package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Booking API",
        "description": "Class session scheduling, discovery and enrollment.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Classes",
            "description": "Session lifecycle and discovery"
        },
        {
            "name": "Enrollments",
            "description": "Seat claims"
        },
        {
            "name": "Messages",
            "description": "Trainer broadcasts"
        },
        {
            "name": "Students",
            "description": "Caller schedules"
        },
        {
            "name": "Profile",
            "description": "Profile image uploads"
        },
        {
            "name": "Observability",
            "description": "Metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Dependency unavailable"
                    }
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Lightweight metrics snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "List sessions by zip or trainer",
                "parameters": [
                    {
                        "name": "zip",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Postal code (active sessions only)"
                    },
                    {
                        "name": "trainerId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Trainer ID (all statuses)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Classes"
                ],
                "summary": "Create a class with one or more sessions",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateClassRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Postal code could not be resolved",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/search": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Search sessions near a postal code",
                "parameters": [
                    {
                        "name": "zipCode",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "radiusMiles",
                        "in": "query",
                        "type": "number",
                        "required": false,
                        "description": "Default 25"
                    },
                    {
                        "name": "query",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Matches class name or tag"
                    },
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD in the session's time zone"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Postal code could not be resolved",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Get a session",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Session not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Classes"
                ],
                "summary": "Cancel a session",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not the owning trainer",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Session not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already cancelled (strict mode)",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/roster": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Download the active roster",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "csv (default) or pdf"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Roster document"
                    },
                    "403": {
                        "description": "Not the owning trainer",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/enroll": {
            "post": {
                "tags": [
                    "Enrollments"
                ],
                "summary": "Enroll the caller in a session",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Enrolled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Session not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Full, cancelled, duplicate or time conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Capacity contention, retry",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Enrollments"
                ],
                "summary": "Cancel the caller's enrollment",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Unenrolled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not enrolled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/messages": {
            "get": {
                "tags": [
                    "Messages"
                ],
                "summary": "List a session's messages",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not the trainer or an enrolled student",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Messages"
                ],
                "summary": "Broadcast a message to a session",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SendMessageRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not the owning trainer",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/students/me/classes": {
            "get": {
                "tags": [
                    "Students"
                ],
                "summary": "List the caller's active enrollments",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/trainers/me/classes": {
            "get": {
                "tags": [
                    "Students"
                ],
                "summary": "List sessions the caller teaches",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/profile/presigned-url": {
            "post": {
                "tags": [
                    "Profile"
                ],
                "summary": "Get pre-signed profile image upload URLs",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PresignRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Uploads not configured",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/profile/me": {
            "get": {
                "tags": [
                    "Profile"
                ],
                "summary": "Get the caller's profile",
                "parameters": [],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Profile not found or inactive",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Profile"
                ],
                "summary": "Create or replace the caller's profile",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertProfileRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Profile"
                ],
                "summary": "Deactivate the caller's profile",
                "parameters": [],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {

                }
            }
        },
        "/profile/images/{imageId}": {
            "delete": {
                "tags": [
                    "Profile"
                ],
                "summary": "Remove one image from the caller's profile",
                "parameters": [
                    {
                        "type": "string",
                        "name": "imageId",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Profile or image not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "SessionSpec": {
            "type": "object",
            "required": [
                "startDateTime",
                "endDateTime",
                "capacity"
            ],
            "properties": {
                "startDateTime": {
                    "type": "string",
                    "format": "date-time"
                },
                "endDateTime": {
                    "type": "string",
                    "format": "date-time"
                },
                "capacity": {
                    "type": "integer"
                }
            }
        },
        "CreateClassRequest": {
            "type": "object",
            "required": [
                "className",
                "classLocationAddress1",
                "city",
                "state",
                "zip"
            ],
            "properties": {
                "className": {
                    "type": "string"
                },
                "overview": {
                    "type": "string"
                },
                "classLocationAddress1": {
                    "type": "string"
                },
                "classLocationAddress2": {
                    "type": "string"
                },
                "city": {
                    "type": "string"
                },
                "state": {
                    "type": "string"
                },
                "zip": {
                    "type": "string"
                },
                "pricePerClass": {
                    "type": "number"
                },
                "currency": {
                    "type": "string"
                },
                "productId": {
                    "type": "string"
                },
                "priceId": {
                    "type": "string"
                },
                "classTags": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "timezone": {
                    "type": "string"
                },
                "trainerName": {
                    "type": "string"
                },
                "sessions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SessionSpec"
                    }
                },
                "startTime": {
                    "type": "string",
                    "format": "date-time"
                },
                "endTime": {
                    "type": "string",
                    "format": "date-time"
                },
                "capacity": {
                    "type": "integer"
                }
            }
        },
        "SendMessageRequest": {
            "type": "object",
            "required": [
                "messageText"
            ],
            "properties": {
                "messageText": {
                    "type": "string",
                    "maxLength": 2000
                }
            }
        },
        "PresignRequest": {
            "type": "object",
            "required": [
                "imageCount",
                "contentType"
            ],
            "properties": {
                "imageCount": {
                    "type": "integer"
                },
                "contentType": {
                    "type": "string",
                    "enum": [
                        "image/jpeg",
                        "image/png",
                        "image/webp",
                        "image/heic"
                    ]
                }
            }
        },
        "ImageRef": {
            "type": "object",
            "required": [
                "imageId",
                "key"
            ],
            "properties": {
                "imageId": {
                    "type": "string",
                    "format": "uuid"
                },
                "key": {
                    "type": "string"
                }
            }
        },
        "UpsertProfileRequest": {
            "type": "object",
            "required": [
                "role",
                "firstName",
                "lastName"
            ],
            "properties": {
                "role": {
                    "type": "string",
                    "enum": [
                        "trainer",
                        "student"
                    ]
                },
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "displayName": {"type": "string"},
                "bio": {"type": "string"},
                "phone": {"type": "string"},
                "specialty": {"type": "string"},
                "address1": {"type": "string"},
                "address2": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "zip": {"type": "string"},
                "gender": {"type": "string"},
                "images": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ImageRef"
                    }
                },
                "idImage": {
                    "$ref": "#/definitions/ImageRef"
                },
                "certifications": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "pricing": {
                    "type": "object",
                    "properties": {
                        "perClass": {"type": "number"},
                        "perWeek": {"type": "number"},
                        "perMonth": {"type": "number"}
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
