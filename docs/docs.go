// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with `swag init` after changing controller annotations.
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
        "/api/admin/catalog/import": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/yaml"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Import a YAML catalog document",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/service.ImportSummary"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/admin/evaluations/{id}": {
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Delete an evaluation",
                "parameters": [
                    {
                        "description": "evaluation id",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/admin/reports/companies/{id}/forms/{formId}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Company risk summary for a form",
                "parameters": [
                    {
                        "description": "company id",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "form id",
                        "name": "formId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/service.CompanyReport"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/admin/reports/companies/{id}/forms/{formId}/export": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Export the company summary as CSV",
                "parameters": [
                    {
                        "description": "company id",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "form id",
                        "name": "formId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/service.ExportResult"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/companies": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "catalog"
                ],
                "summary": "List the tenant's companies",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/companies/{id}/employees": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "catalog"
                ],
                "summary": "List a company's employees",
                "parameters": [
                    {
                        "description": "company id",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/employees/{id}/evaluations": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Employee evaluation history for a form",
                "parameters": [
                    {
                        "description": "employee id",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "form id, defaults to the session's form",
                        "name": "formId",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Start a session for an employee (and optionally a form)",
                "parameters": [
                    {
                        "description": "selection",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controller.StartSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            },
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Current session view",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Discard the caller's session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/answers/{questionId}": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Answer a question (true, false or null to clear)",
                "parameters": [
                    {
                        "description": "question id",
                        "name": "questionId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "response",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controller.AnswerRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/answers/{questionId}/observation": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Set the observation of a question",
                "parameters": [
                    {
                        "description": "question id",
                        "name": "questionId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "observation",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controller.ObservationRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/answers/{questionId}/options": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Set the selected options of a question",
                "parameters": [
                    {
                        "description": "question id",
                        "name": "questionId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "options",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controller.OptionsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/complete": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Complete the evaluation",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.IncompleteSubmissionError"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    },
                    "500": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/exit": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Leave the results view",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/forms/{formId}": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Select the form of the session",
                "parameters": [
                    {
                        "description": "form id",
                        "name": "formId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/history/{evaluationId}/reopen": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Reopen a past evaluation for editing",
                "parameters": [
                    {
                        "description": "evaluation id",
                        "name": "evaluationId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/history/{evaluationId}/view": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Show a past evaluation read-only",
                "parameters": [
                    {
                        "description": "evaluation id",
                        "name": "evaluationId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/new": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Start a new evaluation of the same employee and form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/next": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Next section",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/notes": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Set the evaluation notes",
                "parameters": [
                    {
                        "description": "notes",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controller.NotesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/previous": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Previous section",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/save": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Save partial progress",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    },
                    "500": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/evaluations/session/sections/{sectionId}": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "evaluation"
                ],
                "summary": "Jump to a section",
                "parameters": [
                    {
                        "description": "section id",
                        "name": "sectionId",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/session.View"
                                        }
                                    }
                                }
                            ]
                        }
                    }
                }
            }
        },
        "/api/forms": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "catalog"
                ],
                "summary": "List active forms",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/forms/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "catalog"
                ],
                "summary": "Form definition with sections, questions and risks",
                "parameters": [
                    {
                        "description": "form id",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "system"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    },
                    "503": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        },
        "/api/login": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controller.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/util.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/service.LoginResult"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/util.Response"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "controller.AnswerRequest": {
            "type": "object",
            "properties": {
                "response": {
                    "type": "boolean",
                    "x-nullable": true
                }
            }
        },
        "controller.LoginRequest": {
            "type": "object",
            "required": [
                "email",
                "password"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "controller.NotesRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string",
                    "maxLength": 10000
                }
            }
        },
        "controller.ObservationRequest": {
            "type": "object",
            "properties": {
                "observation": {
                    "type": "string",
                    "maxLength": 4000
                }
            }
        },
        "controller.OptionsRequest": {
            "type": "object",
            "properties": {
                "options": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "controller.StartSessionRequest": {
            "type": "object",
            "required": [
                "employeeId"
            ],
            "properties": {
                "employeeId": {
                    "type": "integer"
                },
                "formId": {
                    "type": "integer"
                }
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "tenantId": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "role": {
                    "type": "string",
                    "enum": [
                        "admin",
                        "analyst",
                        "viewer"
                    ]
                },
                "disabled": {
                    "type": "boolean"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                }
            }
        },
        "scoring.Breakdown": {
            "type": "object",
            "properties": {
                "light": {
                    "type": "integer"
                },
                "medium": {
                    "type": "integer"
                },
                "high": {
                    "type": "integer"
                }
            }
        },
        "scoring.Result": {
            "type": "object",
            "properties": {
                "questionCount": {
                    "type": "integer"
                },
                "answered": {
                    "type": "integer"
                },
                "totalYes": {
                    "type": "integer"
                },
                "totalNo": {
                    "type": "integer"
                },
                "severity": {
                    "$ref": "#/definitions/scoring.Breakdown"
                },
                "completionPercentage": {
                    "type": "integer"
                },
                "percentYes": {
                    "type": "number"
                },
                "riskLevel": {
                    "type": "string",
                    "enum": [
                        "Baixo",
                        "Moderado",
                        "Considerável",
                        "Alto",
                        "Extremo"
                    ]
                }
            }
        },
        "service.CompanyReport": {
            "type": "object",
            "properties": {
                "companyId": {
                    "type": "integer"
                },
                "companyName": {
                    "type": "string"
                },
                "formId": {
                    "type": "integer"
                },
                "formName": {
                    "type": "string"
                },
                "employees": {
                    "type": "integer"
                },
                "evaluated": {
                    "type": "integer"
                },
                "riskLevels": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/service.RiskLevelCount"
                    }
                },
                "severity": {
                    "$ref": "#/definitions/scoring.Breakdown"
                },
                "averagePercentYes": {
                    "type": "number"
                },
                "topRisks": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/service.RiskFrequency"
                    }
                },
                "rows": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/service.ReportRow"
                    }
                },
                "generatedAt": {
                    "type": "string"
                }
            }
        },
        "service.ExportResult": {
            "type": "object",
            "properties": {
                "file": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                },
                "rows": {
                    "type": "integer"
                }
            }
        },
        "service.ImportSummary": {
            "type": "object",
            "properties": {
                "forms": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "risks": {
                    "type": "integer"
                },
                "questions": {
                    "type": "integer"
                }
            }
        },
        "service.LoginResult": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string"
                },
                "user": {
                    "$ref": "#/definitions/model.User"
                }
            }
        },
        "service.ReportRow": {
            "type": "object",
            "properties": {
                "employeeId": {
                    "type": "integer"
                },
                "employeeName": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                },
                "evaluationId": {
                    "type": "string"
                },
                "completedAt": {
                    "type": "string"
                },
                "totalYes": {
                    "type": "integer"
                },
                "totalNo": {
                    "type": "integer"
                },
                "percentYes": {
                    "type": "number"
                },
                "riskLevel": {
                    "type": "string"
                },
                "severity": {
                    "$ref": "#/definitions/scoring.Breakdown"
                }
            }
        },
        "service.RiskFrequency": {
            "type": "object",
            "properties": {
                "riskId": {
                    "type": "integer"
                },
                "description": {
                    "type": "string"
                },
                "severity": {
                    "type": "string"
                },
                "severityLabel": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "service.RiskLevelCount": {
            "type": "object",
            "properties": {
                "level": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "session.HistoryEntry": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "isComplete": {
                    "type": "boolean"
                },
                "percentYes": {
                    "type": "number"
                },
                "riskLevel": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                }
            }
        },
        "session.IncompleteSubmissionError": {
            "type": "object",
            "properties": {
                "missing": {
                    "type": "integer"
                },
                "questionIds": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "missingObservations": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            }
        },
        "session.SectionView": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "answered": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                },
                "complete": {
                    "type": "boolean"
                },
                "active": {
                    "type": "boolean"
                }
            }
        },
        "session.View": {
            "type": "object",
            "properties": {
                "state": {
                    "type": "string",
                    "enum": [
                        "selecting",
                        "in_progress",
                        "awaiting_completion",
                        "completed",
                        "history_view"
                    ]
                },
                "employeeId": {
                    "type": "integer"
                },
                "formId": {
                    "type": "integer"
                },
                "formName": {
                    "type": "string"
                },
                "evaluationId": {
                    "type": "string"
                },
                "version": {
                    "type": "integer"
                },
                "readOnly": {
                    "type": "boolean"
                },
                "activeSectionId": {
                    "type": "integer"
                },
                "sections": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/session.SectionView"
                    }
                },
                "answers": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "object"
                    }
                },
                "completionPercentage": {
                    "type": "integer"
                },
                "notes": {
                    "type": "string"
                },
                "result": {
                    "$ref": "#/definitions/scoring.Result"
                },
                "history": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/session.HistoryEntry"
                    }
                }
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "data": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token returned by /api/login",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ISTAS21-BR evaluation API",
	Description:      "Psychosocial risk evaluations: catalog, evaluation sessions, history and company reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
