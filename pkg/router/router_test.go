package router

import (
	"net/http"
	"testing"
)

func TestNew_Base(t *testing.T) {
	if got := New("").Base(); got != DefaultBase {
		t.Errorf("expected default base, got %s", got)
	}
	if got := New("http://localhost:8080/v2/ ").Base(); got != "http://localhost:8080/v2" {
		t.Errorf("trailing slash not trimmed: %s", got)
	}
}

func TestEndpoints(t *testing.T) {
	r := New("")

	ep := r.Files(0)
	if ep.Method != http.MethodGet || ep.Path != "/files/list" || ep.Query["parent_id"] != "0" {
		t.Errorf("unexpected list endpoint: %+v", ep)
	}

	ep = r.File(42)
	if ep.Method != http.MethodGet || ep.Path != "/files/42" || ep.Query["start_from"] != "1" {
		t.Errorf("unexpected file endpoint: %+v", ep)
	}

	ep = r.RenameFile(42, "new name.mkv")
	if ep.Method != http.MethodPost || ep.Path != "/files/rename" {
		t.Errorf("unexpected rename endpoint: %+v", ep)
	}
	if ep.Form["file_id"] != "42" || ep.Form["name"] != "new name.mkv" {
		t.Errorf("unexpected rename form: %v", ep.Form)
	}

	ep = r.DeleteFiles([]int64{1, 2, 3})
	if ep.Path != "/files/delete" || ep.Form["file_ids"] != "1,2,3" {
		t.Errorf("unexpected delete endpoint: %+v", ep)
	}

	ep = r.MoveFiles([]int64{4, 5}, 9)
	if ep.Path != "/files/move" || ep.Form["file_ids"] != "4,5" || ep.Form["parent_id"] != "9" {
		t.Errorf("unexpected move endpoint: %+v", ep)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("1, 2,3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("unexpected ids %v", ids)
	}
	if ids, _ := ParseIDs(""); ids != nil {
		t.Errorf("expected nil, got %v", ids)
	}
	if _, err := ParseIDs("1,x"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}
