// Package router maps put.io file operations onto HTTP endpoints.
package router

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultBase is the put.io v2 API root.
const DefaultBase = "https://api.put.io/v2"

// Route names, used as metric and log labels.
const (
	RouteFiles       = "files.list"
	RouteFile        = "files.get"
	RouteRenameFile  = "files.rename"
	RouteDeleteFiles = "files.delete"
	RouteMoveFiles   = "files.move"
)

// Endpoint describes a single request. Form values are sent as an
// application/x-www-form-urlencoded body.
type Endpoint struct {
	Name   string
	Method string
	Path   string
	Query  map[string]string
	Form   map[string]string
}

// Router builds endpoints relative to a base URL.
type Router struct {
	base string
}

// New returns a Router for base. An empty base selects DefaultBase.
func New(base string) *Router {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBase
	}
	return &Router{base: base}
}

// Base returns the API root without a trailing slash.
func (r *Router) Base() string {
	return r.base
}

// Files lists the children of parentID. 0 is the root folder.
func (r *Router) Files(parentID int64) Endpoint {
	return Endpoint{
		Name:   RouteFiles,
		Method: http.MethodGet,
		Path:   "/files/list",
		Query:  map[string]string{"parent_id": strconv.FormatInt(parentID, 10)},
	}
}

// File fetches one file including its resume position.
func (r *Router) File(id int64) Endpoint {
	return Endpoint{
		Name:   RouteFile,
		Method: http.MethodGet,
		Path:   "/files/" + strconv.FormatInt(id, 10),
		Query:  map[string]string{"start_from": "1"},
	}
}

// RenameFile renames id to name.
func (r *Router) RenameFile(id int64, name string) Endpoint {
	return Endpoint{
		Name:   RouteRenameFile,
		Method: http.MethodPost,
		Path:   "/files/rename",
		Form: map[string]string{
			"file_id": strconv.FormatInt(id, 10),
			"name":    name,
		},
	}
}

// DeleteFiles deletes every id in one request.
func (r *Router) DeleteFiles(ids []int64) Endpoint {
	return Endpoint{
		Name:   RouteDeleteFiles,
		Method: http.MethodPost,
		Path:   "/files/delete",
		Form:   map[string]string{"file_ids": JoinIDs(ids)},
	}
}

// MoveFiles moves every id under parentID in one request.
func (r *Router) MoveFiles(ids []int64, parentID int64) Endpoint {
	return Endpoint{
		Name:   RouteMoveFiles,
		Method: http.MethodPost,
		Path:   "/files/move",
		Form: map[string]string{
			"file_ids":  JoinIDs(ids),
			"parent_id": strconv.FormatInt(parentID, 10),
		},
	}
}

// JoinIDs renders ids as the comma separated list put.io expects.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs is the inverse of JoinIDs. Empty input yields no ids.
func ParseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
