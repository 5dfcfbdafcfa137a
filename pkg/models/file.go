// Package models contains the data types returned by the put.io files API.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DirectoryContentType is the content type put.io reports for folders.
const DirectoryContentType = "application/x-directory"

// File represents a file or folder in the remote storage tree.
type File struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name,omitempty"`
	Size        int64   `json:"size"`
	ContentType *string `json:"content_type,omitempty"`
	HasMP4      bool    `json:"is_mp4_available"`
	ParentID    int64   `json:"parent_id"`
	Accessed    bool    `json:"accessed"`
	Screenshot  *string `json:"screenshot,omitempty"`
	IsShared    bool    `json:"is_shared"`
	StartFrom   float64 `json:"start_from"`
	CreatedAt   *string `json:"created_at,omitempty"`

	// Parent is set by callers walking the tree. It is never decoded from
	// or encoded to JSON.
	Parent *File `json:"-"`
}

// DecodeError is returned when a JSON object cannot be mapped to a File.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode file: field %q %s", e.Field, e.Reason)
}

// FileFromJSON maps a decoded JSON object onto a File. The id field is
// required; every other field falls back to its zero value when it is absent
// or carries the wrong type.
func FileFromJSON(obj map[string]any) (*File, error) {
	raw, ok := obj["id"]
	if !ok || raw == nil {
		return nil, &DecodeError{Field: "id", Reason: "is missing"}
	}
	id, ok := asInt(raw)
	if !ok {
		return nil, &DecodeError{Field: "id", Reason: fmt.Sprintf("is not an integer (%T)", raw)}
	}

	f := &File{ID: id}
	f.Name = optString(obj, "name")
	f.ContentType = optString(obj, "content_type")
	f.Screenshot = optString(obj, "screenshot")
	f.CreatedAt = optString(obj, "created_at")
	f.IsShared = optBool(obj, "is_shared")
	f.HasMP4 = optBool(obj, "is_mp4_available")
	f.ParentID, _ = asInt(obj["parent_id"])
	f.Size, _ = asInt(obj["size"])
	f.StartFrom, _ = asFloat(obj["start_from"])

	// Only presence matters, not the timestamp itself.
	if v, ok := obj["first_accessed_at"]; ok && v != nil {
		f.Accessed = true
	}
	return f, nil
}

// DecodeFile decodes a single JSON object and maps it with FileFromJSON.
func DecodeFile(data []byte) (*File, error) {
	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	if obj == nil {
		return nil, &DecodeError{Field: "id", Reason: "is missing"}
	}
	return FileFromJSON(obj)
}

// IsDirectory reports whether the node is a folder.
func (f *File) IsDirectory() bool {
	return f.ContentType != nil && *f.ContentType == DirectoryContentType
}

// DisplayName returns the name, or the id when the server sent none.
func (f *File) DisplayName() string {
	if f.Name != nil {
		return *f.Name
	}
	return strconv.FormatInt(f.ID, 10)
}

// HLSPlaylist builds the streaming playlist URL for a file id.
func HLSPlaylist(base string, id int64, token string) string {
	return fmt.Sprintf("%s/files/%d/hls/media.m3u8?oauth_token=%s&subtitle_key=all", base, id, token)
}

// ResumeSeconds returns the whole seconds of start_from in a file object,
// or 0 when the key is absent, not a number or out of the int range.
func ResumeSeconds(obj map[string]any) int {
	f, ok := asFloat(obj["start_from"])
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0
	}
	return int(f)
}

// IDs returns the ids of files in order.
func IDs(files []*File) []int64 {
	ids := make([]int64, 0, len(files))
	for _, f := range files {
		if f != nil {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

func optString(obj map[string]any, key string) *string {
	if s, ok := obj[key].(string); ok {
		return &s
	}
	return nil
}

func optBool(obj map[string]any, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

// asInt accepts the number representations encoding/json produces and
// rejects anything with a fractional part.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		fl, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(fl)
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
