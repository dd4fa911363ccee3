package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HR Access API",
        "description": "Access request validation and fulfillment engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "AccessRequests", "description": "Access request lifecycle"},
        {"name": "Validations", "description": "Validator inbox and resolutions"},
        {"name": "Fulfillment", "description": "Role-pool implementation tasks"},
        {"name": "ValidatorConfigs", "description": "Per-system validator administration"},
        {"name": "Transfers", "description": "Department mobility"},
        {"name": "Checklists", "description": "Onboarding and offboarding checklists"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the authenticated user's profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests": {
            "get": {
                "tags": ["AccessRequests"],
                "summary": "List access requests visible to the caller",
                "parameters": [
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "employee_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["AccessRequests"],
                "summary": "Open an access request for an employee",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAccessRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No validators resolvable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["AccessRequests"],
                "summary": "Get an access request with entries and validations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/validations/inbox": {
            "get": {
                "tags": ["Validations"],
                "summary": "List the caller's pending validations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/validations/{id}/approve": {
            "post": {
                "tags": ["Validations"],
                "summary": "Approve a pending validation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ApproveValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/validations/{id}/reject": {
            "post": {
                "tags": ["Validations"],
                "summary": "Reject a pending validation with a note",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Fulfillment"],
                "summary": "List open fulfillment tasks for the caller's role",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{id}/complete": {
            "post": {
                "tags": ["Fulfillment"],
                "summary": "Mark a fulfillment task done",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/systems/{systemId}/validators": {
            "get": {
                "tags": ["ValidatorConfigs"],
                "summary": "List validator configurations for a system",
                "parameters": [
                    {"name": "systemId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ValidatorConfigs"],
                "summary": "Add a validator configuration to a system",
                "parameters": [
                    {"name": "systemId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WriteValidatorConfigRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/validators/{id}": {
            "put": {
                "tags": ["ValidatorConfigs"],
                "summary": "Rewrite a validator configuration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WriteValidatorConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ValidatorConfigs"],
                "summary": "Soft-disable a validator configuration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/validators/{id}/enable": {
            "post": {
                "tags": ["ValidatorConfigs"],
                "summary": "Re-enable a validator configuration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/transfers/preview": {
            "post": {
                "tags": ["Transfers"],
                "summary": "Preview the combined decisions for a transfer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transfers": {
            "post": {
                "tags": ["Transfers"],
                "summary": "Record a transfer and spawn an access request when needed",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{employeeId}/transfers": {
            "get": {
                "tags": ["Transfers"],
                "summary": "List an employee's transfers",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checklists": {
            "post": {
                "tags": ["Checklists"],
                "summary": "Instantiate a checklist from the active template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateChecklistRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checklists/{id}": {
            "get": {
                "tags": ["Checklists"],
                "summary": "Get a checklist with its tasks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checklists/tasks/{id}/complete": {
            "post": {
                "tags": ["Checklists"],
                "summary": "Mark a checklist task done",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateAccessRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "justification": {"type": "string"},
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/RequestedAccessInput"}
                }
            },
            "required": ["employee_id", "justification", "entries"]
        },
        "RequestedAccessInput": {
            "type": "object",
            "properties": {
                "system_id": {"type": "string"},
                "access_level_id": {"type": "string"}
            },
            "required": ["system_id", "access_level_id"]
        },
        "ApproveValidationRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            }
        },
        "RejectValidationRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            },
            "required": ["note"]
        },
        "WriteValidatorConfigRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["SPECIFIC_USER", "DEPARTMENT_MANAGER_GROUP"]},
                "user_id": {"type": "string"},
                "department_id": {"type": "string"},
                "rank": {"type": "integer"},
                "required": {"type": "boolean"}
            },
            "required": ["kind"]
        },
        "TransferRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "from_department": {"type": "string"},
                "to_department": {"type": "string"},
                "justification": {"type": "string"},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/TransferItem"}
                }
            },
            "required": ["employee_id", "from_department", "to_department", "justification", "items"]
        },
        "TransferItem": {
            "type": "object",
            "properties": {
                "system_id": {"type": "string"},
                "access_level_id": {"type": "string"},
                "old_decision": {"type": "string", "enum": ["KEEP", "ADD", "MODIFY", "REMOVE"]},
                "new_decision": {"type": "string", "enum": ["KEEP", "ADD", "MODIFY", "REMOVE"]}
            }
        },
        "CreateChecklistRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "kind": {"type": "string", "enum": ["ONBOARDING", "OFFBOARDING"]}
            },
            "required": ["employee_id", "kind"]
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
