// Package swagger holds the OpenAPI document served at /swagger.json, kept in step
// with the handler annotations by hand. Running go generate in docs/ replaces this
// file with swag output.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/jackzampolin/timetable"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/prompts": {
            "get": {
                "description": "Get all registered prompts with configured overrides applied",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "prompts"
                ],
                "summary": "List all prompts",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.PromptsListResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/prompts/{key}": {
            "get": {
                "description": "Get a specific prompt by key",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "prompts"
                ],
                "summary": "Get a prompt",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prompt key (e.g., timetable.parse.system)",
                        "name": "key",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.PromptResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/timetable/default": {
            "get": {
                "description": "The empty ten-day, five-period schedule used when nothing can be parsed.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "timetable"
                ],
                "summary": "Default schedule",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/timetable.Schedule"
                        }
                    }
                }
            }
        },
        "/api/timetable/detect": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "timetable"
                ],
                "summary": "Detect timetable layout",
                "parameters": [
                    {
                        "description": "Text to inspect",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/endpoints.ParseRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.DetectResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/timetable/extract": {
            "post": {
                "description": "Run the subject, code, room and teacher extractors over each non-empty line.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "timetable"
                ],
                "summary": "Extract class fields",
                "parameters": [
                    {
                        "description": "Lines to extract from",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/endpoints.ParseRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ExtractResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/timetable/parse": {
            "post": {
                "description": "Parse pasted timetable text into a complete schedule. Never fails on content: unusable input yields the default schedule with fallback set.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "timetable"
                ],
                "summary": "Parse timetable text",
                "parameters": [
                    {
                        "description": "Text to parse",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/endpoints.ParseRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/importer.Result"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "Request Entity Too Large",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/timetable/upload": {
            "post": {
                "description": "Upload a text, CSV, XLSX or PDF timetable. Its text is extracted and parsed like pasted text.",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "timetable"
                ],
                "summary": "Upload and parse a timetable document",
                "parameters": [
                    {
                        "type": "file",
                        "description": "Timetable document (.txt, .tsv, .csv, .xlsx, .pdf)",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "boolean",
                        "description": "Try model-assisted parsing first",
                        "name": "remote",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.UploadResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "Request Entity Too Large",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    },
                    "415": {
                        "description": "Unsupported Media Type",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Unprocessable Entity",
                        "schema": {
                            "$ref": "#/definitions/endpoints.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.HealthResponse"
                        }
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Ready once the importer is wired. Remote reports whether model-assisted parsing is available.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/endpoints.HealthResponse"
                        }
                    }
                }
            }
        },
        "/status": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Detailed server status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/endpoints.StatusResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "endpoints.DetectResponse": {
            "type": "object",
            "properties": {
                "format": {
                    "$ref": "#/definitions/timetable.Format"
                }
            }
        },
        "endpoints.DocumentInfo": {
            "type": "object",
            "properties": {
                "chars": {
                    "type": "integer"
                },
                "kind": {
                    "$ref": "#/definitions/ingest.Kind"
                },
                "name": {
                    "type": "string"
                },
                "pages": {
                    "type": "integer"
                },
                "sheet": {
                    "type": "string"
                }
            }
        },
        "endpoints.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                }
            }
        },
        "endpoints.ExtractResponse": {
            "type": "object",
            "properties": {
                "lines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/endpoints.ExtractedLine"
                    }
                }
            }
        },
        "endpoints.ExtractedLine": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "placeholder": {
                    "type": "boolean"
                },
                "room": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "teacher": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "endpoints.HealthResponse": {
            "type": "object",
            "properties": {
                "remote": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                }
            }
        },
        "endpoints.ImportStatus": {
            "type": "object",
            "properties": {
                "max_upload_bytes": {
                    "type": "integer"
                },
                "remote_available": {
                    "type": "boolean"
                },
                "remote_enabled": {
                    "type": "boolean"
                },
                "remote_timeout": {
                    "type": "string"
                }
            }
        },
        "endpoints.ParseRequest": {
            "type": "object",
            "properties": {
                "remote": {
                    "description": "Remote asks for a model-assisted parse ahead of the local parser.",
                    "type": "boolean"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "endpoints.PromptResponse": {
            "type": "object",
            "properties": {
                "description": {
                    "type": "string"
                },
                "embedded_hash": {
                    "description": "EmbeddedHash identifies the built-in text when an override is active.",
                    "type": "string"
                },
                "hash": {
                    "type": "string"
                },
                "is_override": {
                    "type": "boolean"
                },
                "key": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                },
                "variables": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "endpoints.PromptsListResponse": {
            "type": "object",
            "properties": {
                "prompts": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/endpoints.PromptResponse"
                    }
                }
            }
        },
        "endpoints.ProviderStatus": {
            "type": "object",
            "properties": {
                "default": {
                    "type": "string"
                },
                "llm": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "endpoints.StatusResponse": {
            "type": "object",
            "properties": {
                "config_file": {
                    "type": "string"
                },
                "home": {
                    "type": "string"
                },
                "import": {
                    "$ref": "#/definitions/endpoints.ImportStatus"
                },
                "providers": {
                    "$ref": "#/definitions/endpoints.ProviderStatus"
                },
                "server": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                }
            }
        },
        "endpoints.UploadResponse": {
            "type": "object",
            "properties": {
                "classes": {
                    "type": "integer"
                },
                "document": {
                    "$ref": "#/definitions/endpoints.DocumentInfo"
                },
                "duration_ns": {
                    "type": "integer"
                },
                "fallback": {
                    "type": "boolean"
                },
                "fallback_reason": {
                    "type": "string"
                },
                "format": {
                    "$ref": "#/definitions/timetable.Format"
                },
                "id": {
                    "type": "string"
                },
                "notice": {
                    "type": "string"
                },
                "provider": {
                    "type": "string"
                },
                "schedule": {
                    "$ref": "#/definitions/timetable.Schedule"
                },
                "source": {
                    "$ref": "#/definitions/importer.Source"
                }
            }
        },
        "importer.Result": {
            "type": "object",
            "properties": {
                "classes": {
                    "type": "integer"
                },
                "duration_ns": {
                    "type": "integer"
                },
                "fallback": {
                    "type": "boolean"
                },
                "fallback_reason": {
                    "type": "string"
                },
                "format": {
                    "$ref": "#/definitions/timetable.Format"
                },
                "id": {
                    "type": "string"
                },
                "notice": {
                    "type": "string"
                },
                "provider": {
                    "type": "string"
                },
                "schedule": {
                    "$ref": "#/definitions/timetable.Schedule"
                },
                "source": {
                    "$ref": "#/definitions/importer.Source"
                }
            }
        },
        "importer.Source": {
            "type": "string",
            "enum": [
                "remote",
                "local",
                "default"
            ],
            "x-enum-varnames": [
                "SourceRemote",
                "SourceLocal",
                "SourceDefault"
            ]
        },
        "ingest.Kind": {
            "type": "string",
            "enum": [
                "text",
                "csv",
                "xlsx",
                "pdf"
            ],
            "x-enum-varnames": [
                "KindText",
                "KindCSV",
                "KindXLSX",
                "KindPDF"
            ]
        },
        "timetable.ClassEntry": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "endTime": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "startTime": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "teacher": {
                    "type": "string"
                }
            }
        },
        "timetable.Format": {
            "type": "string",
            "enum": [
                "tab_delimited_grid",
                "line_delimited_grid",
                "freeform"
            ],
            "x-enum-varnames": [
                "FormatTabDelimitedGrid",
                "FormatLineDelimitedGrid",
                "FormatFreeform"
            ]
        },
        "timetable.Period": {
            "type": "object",
            "properties": {
                "endTime": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "startTime": {
                    "type": "string"
                }
            }
        },
        "timetable.Schedule": {
            "type": "object",
            "properties": {
                "classes": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "object",
                        "additionalProperties": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/timetable.ClassEntry"
                            }
                        }
                    }
                },
                "days": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "periods": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/timetable.Period"
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Timetable API",
	Description:      "Turns pasted or uploaded school timetables into structured day/period/class schedules.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
