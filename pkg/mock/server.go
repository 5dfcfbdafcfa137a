// Package mock implements an in-memory put.io files API for tests and
// sandboxing. Server is an http.Handler; mount it on httptest.NewServer.
package mock

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fruitsalade/putio/pkg/models"
	"github.com/fruitsalade/putio/pkg/protocol"
	"github.com/fruitsalade/putio/pkg/router"
)

// RootName is the name reported for folder 0.
const RootName = "Your Files"

// Entry seeds one file or folder.
type Entry struct {
	ID          int64 // 0 assigns the next free id
	ParentID    int64
	Name        string
	Size        int64
	ContentType string
	HasMP4      bool
	Accessed    bool
	IsShared    bool
	StartFrom   float64
	CreatedAt   string
}

// Server is an in-memory put.io files API.
type Server struct {
	mu        sync.RWMutex
	token     string
	files     map[int64]map[string]any
	raw       map[int64][]json.RawMessage
	overrides map[string]int
	nextID    int64
	mux       *http.ServeMux
}

// New returns an empty server. A non-empty token is required as a bearer
// token on every request.
func New(token string) *Server {
	s := &Server{
		token:     token,
		files:     make(map[int64]map[string]any),
		raw:       make(map[int64][]json.RawMessage),
		overrides: make(map[string]int),
		nextID:    1,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /files/list", s.handleList)
	s.mux.HandleFunc("GET /files/{id}", s.handleGet)
	s.mux.HandleFunc("POST /files/rename", s.handleRename)
	s.mux.HandleFunc("POST /files/delete", s.handleDelete)
	s.mux.HandleFunc("POST /files/move", s.handleMove)
	return s
}

// Add stores e and returns its id.
func (s *Server) Add(e Entry) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		e.ID = s.nextID
	}
	if e.ID >= s.nextID {
		s.nextID = e.ID + 1
	}
	obj := map[string]any{
		"id":                e.ID,
		"parent_id":         e.ParentID,
		"name":              e.Name,
		"size":              e.Size,
		"is_mp4_available":  e.HasMP4,
		"is_shared":         e.IsShared,
		"start_from":        e.StartFrom,
		"first_accessed_at": nil,
		"screenshot":        nil,
	}
	if e.ContentType != "" {
		obj["content_type"] = e.ContentType
	}
	if e.Accessed {
		obj["first_accessed_at"] = "2016-06-22T00:00:00"
	}
	if e.CreatedAt != "" {
		obj["created_at"] = e.CreatedAt
	}
	s.files[e.ID] = obj
	return e.ID
}

// AddFolder stores a folder and returns its id.
func (s *Server) AddFolder(parentID int64, name string) int64 {
	return s.Add(Entry{ParentID: parentID, Name: name, ContentType: models.DirectoryContentType})
}

// AddRaw appends a verbatim listing entry under parentID. It is used to
// serve entries the client cannot decode.
func (s *Server) AddRaw(parentID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[parentID] = append(s.raw[parentID], json.RawMessage(raw))
}

// SetStatus makes every request to path answer with status. 0 clears it.
func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.overrides, path)
		return
	}
	s.overrides[path] = status
}

// File returns the stored file with id.
func (s *Server) File(id int64) (*models.File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.files[id]
	if !ok {
		return nil, false
	}
	f, err := models.FileFromJSON(obj)
	return f, err == nil
}

// Len returns the number of stored files.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		writeError(w, http.StatusUnauthorized, "invalid_grant", "Invalid or missing token")
		return
	}
	s.mu.RLock()
	status, forced := s.overrides[r.URL.Path]
	s.mu.RUnlock()
	if forced {
		writeError(w, status, "FORCED", http.StatusText(status))
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	parentID, err := strconv.ParseInt(r.URL.Query().Get("parent_id"), 10, 64)
	if err != nil {
		parentID = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.folder(parentID)
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "Parent not found")
		return
	}

	ids := make([]int64, 0)
	for id, obj := range s.files {
		if pid, _ := obj["parent_id"].(int64); pid == parentID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	resp := protocol.ListResponse{Files: make([]json.RawMessage, 0, len(ids)), Status: protocol.StatusOK}
	for _, id := range ids {
		data, _ := json.Marshal(s.files[id])
		resp.Files = append(resp.Files, data)
	}
	resp.Files = append(resp.Files, s.raw[parentID]...)
	resp.Parent, _ = json.Marshal(parent)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "Invalid file id")
		return
	}

	s.mu.RLock()
	obj, ok := s.files[id]
	var data []byte
	if ok {
		data, _ = json.Marshal(obj)
	}
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "File not found")
		return
	}
	writeJSON(w, http.StatusOK, protocol.FileResponse{File: data, Status: protocol.StatusOK})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PostFormValue("file_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "Invalid file_id")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "BadRequest", "Name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.files[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "File not found")
		return
	}
	obj["name"] = name
	writeJSON(w, http.StatusOK, protocol.StatusResponse{Status: protocol.StatusOK})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ids, err := router.ParseIDs(r.PostFormValue("file_ids"))
	if err != nil || len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "BadRequest", "Invalid file_ids")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.files[id]; !ok {
			writeError(w, http.StatusNotFound, "NotFound", "File not found")
			return
		}
	}
	for _, id := range ids {
		s.removeTree(id)
	}
	writeJSON(w, http.StatusOK, protocol.StatusResponse{Status: protocol.StatusOK})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	ids, err := router.ParseIDs(r.PostFormValue("file_ids"))
	if err != nil || len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "BadRequest", "Invalid file_ids")
		return
	}
	target, err := strconv.ParseInt(r.PostFormValue("parent_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "Invalid parent_id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folder(target); !ok {
		writeError(w, http.StatusNotFound, "NotFound", "Target folder not found")
		return
	}
	for _, id := range ids {
		if _, ok := s.files[id]; !ok {
			writeError(w, http.StatusNotFound, "NotFound", "File not found")
			return
		}
		if id == target || s.isAncestor(id, target) {
			writeError(w, http.StatusBadRequest, "InvalidMove", "Cannot move a folder into itself")
			return
		}
	}
	for _, id := range ids {
		s.files[id]["parent_id"] = target
	}
	writeJSON(w, http.StatusOK, protocol.StatusResponse{Status: protocol.StatusOK})
}

// folder returns the JSON object of a folder. Callers hold s.mu.
func (s *Server) folder(id int64) (map[string]any, bool) {
	if id == 0 {
		return map[string]any{
			"id":           int64(0),
			"parent_id":    int64(0),
			"name":         RootName,
			"content_type": models.DirectoryContentType,
		}, true
	}
	obj, ok := s.files[id]
	if !ok || obj["content_type"] != models.DirectoryContentType {
		return nil, false
	}
	return obj, true
}

// isAncestor reports whether anc is on the parent chain of id. Callers
// hold s.mu.
func (s *Server) isAncestor(anc, id int64) bool {
	seen := make(map[int64]bool)
	for id != 0 && !seen[id] {
		seen[id] = true
		obj, ok := s.files[id]
		if !ok {
			return false
		}
		id, _ = obj["parent_id"].(int64)
		if id == anc {
			return true
		}
	}
	return false
}

// removeTree deletes id and everything below it. Callers hold s.mu.
func (s *Server) removeTree(id int64) {
	delete(s.files, id)
	for child, obj := range s.files {
		if pid, _ := obj["parent_id"].(int64); pid == id {
			s.removeTree(child)
		}
	}
	delete(s.raw, id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{
		ErrorType:    errType,
		ErrorMessage: msg,
		StatusCode:   status,
		Status:       "ERROR",
	})
}
