package models

import "testing"

func strp(s string) *string { return &s }

func TestPath(t *testing.T) {
	root := &File{ID: 1, Name: strp("Movies")}
	sub := &File{ID: 2, Name: strp("2016")}
	leaf := &File{ID: 3, Name: strp("film.mkv")}
	AttachParent(root, []*File{sub})
	AttachParent(sub, []*File{leaf})

	if got := Path(leaf); got != "/Movies/2016/film.mkv" {
		t.Errorf("unexpected path %q", got)
	}
	if got := Path(nil); got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
}

func TestPath_Cycle(t *testing.T) {
	a := &File{ID: 1, Name: strp("a")}
	b := &File{ID: 2, Name: strp("b")}
	a.Parent = b
	b.Parent = a
	if got := Path(a); got != "/b/a" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestAttachParent_SkipsSelf(t *testing.T) {
	a := &File{ID: 1}
	AttachParent(a, []*File{a, nil})
	if a.Parent != nil {
		t.Error("a file must not become its own parent")
	}
}

func TestFindByIDAndDirectories(t *testing.T) {
	dir := DirectoryContentType
	files := []*File{{ID: 1}, {ID: 2, ContentType: &dir}, {ID: 3, ContentType: &dir}}
	if f := FindByID(files, 2); f == nil || f.ID != 2 {
		t.Errorf("expected id 2, got %v", f)
	}
	if f := FindByID(files, 99); f != nil {
		t.Errorf("expected nil, got %v", f)
	}
	dirs := Directories(files)
	if len(dirs) != 2 || dirs[0].ID != 2 || dirs[1].ID != 3 {
		t.Errorf("unexpected directories %v", dirs)
	}
	if ids := IDs(files); len(ids) != 3 || ids[2] != 3 {
		t.Errorf("unexpected ids %v", ids)
	}
}
