// Package protocol defines the put.io API request/response shapes.
package protocol

import "encoding/json"

// ListResponse is returned by GET /files/list.
// Files stays raw so malformed entries can be dropped one by one.
type ListResponse struct {
	Files  []json.RawMessage `json:"files"`
	Parent json.RawMessage   `json:"parent,omitempty"`
	Status string            `json:"status,omitempty"`
}

// FileResponse is returned by GET /files/{id}.
type FileResponse struct {
	File   json.RawMessage `json:"file"`
	Status string          `json:"status,omitempty"`
}

// StatusResponse is returned by the mutating endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	StatusCode   int    `json:"status_code"`
	Status       string `json:"status,omitempty"`
}

// StatusOK is the status string put.io sends with successful responses.
const StatusOK = "OK"
