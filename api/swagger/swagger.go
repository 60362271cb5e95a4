package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Automated university timetable generation and conflict checking",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Planning", "description": "Timetable generation runs"},
        {"name": "Conflicts", "description": "Schedule audits"},
        {"name": "Sessions", "description": "Persisted session management"},
        {"name": "Rooms", "description": "Room availability"},
        {"name": "TimeSlots", "description": "Weekly slot grid"}
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
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus scrape endpoint",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/planning/generate": {
            "post": {
                "tags": ["Planning"],
                "summary": "Generate a timetable for a program set over a horizon",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanningRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request"},
                    "409": {"description": "Busy or store conflict"},
                    "422": {"description": "Infeasible"},
                    "504": {"description": "Timeout"}
                }
            }
        },
        "/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Detect conflicts among persisted sessions",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/available": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms free in a weekly window over a date range",
                "parameters": [
                    {"name": "day", "in": "query", "required": true, "type": "integer"},
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"name": "program_id", "in": "query", "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "room_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Insert a session manually",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invariant violation"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Sessions"],
                "summary": "Update session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invariant violation"}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/time-slots": {
            "get": {
                "tags": ["TimeSlots"],
                "summary": "List time slots",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-slots/seed-grid": {
            "post": {
                "tags": ["TimeSlots"],
                "summary": "Seed the generated day grid",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PlanningRequest": {
            "type": "object",
            "properties": {
                "horizon_start": {"type": "string"},
                "horizon_end": {"type": "string"},
                "program_ids": {"type": "array", "items": {"type": "string"}},
                "all_programs": {"type": "boolean"},
                "replace_existing": {"type": "boolean"},
                "solver_mode": {"type": "string", "enum": ["cp", "greedy"]},
                "solver_time_limit_seconds": {"type": "integer"},
                "seed": {"type": "integer"},
                "config": {"type": "object"}
            },
            "required": ["horizon_start", "horizon_end"]
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "room_id": {"type": "string"},
                "time_slot_id": {"type": "string"},
                "program_ids": {"type": "array", "items": {"type": "string"}},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["subject_id", "teacher_id", "room_id", "time_slot_id", "program_ids", "start_date", "end_date"]
        },
        "UpdateSessionRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "room_id": {"type": "string"},
                "time_slot_id": {"type": "string"},
                "program_ids": {"type": "array", "items": {"type": "string"}},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "Conflict": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "session_ids": {"type": "array", "items": {"type": "string"}},
                "summary": {"type": "string"}
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
