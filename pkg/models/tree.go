package models

import "strings"

// AttachParent sets Parent on every child to parent.
func AttachParent(parent *File, children []*File) {
	for _, child := range children {
		if child != nil && child != parent {
			child.Parent = parent
		}
	}
}

// Path joins the display names from the topmost known ancestor down to f.
// The walk stops if the parent chain loops back on itself.
func Path(f *File) string {
	if f == nil {
		return ""
	}
	var names []string
	seen := make(map[*File]bool)
	for n := f; n != nil && !seen[n]; n = n.Parent {
		seen[n] = true
		names = append(names, n.DisplayName())
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/")
}

// FindByID returns the first file with the given id, or nil.
func FindByID(files []*File, id int64) *File {
	for _, f := range files {
		if f != nil && f.ID == id {
			return f
		}
	}
	return nil
}

// Directories returns the folders in files, keeping their order.
func Directories(files []*File) []*File {
	var dirs []*File
	for _, f := range files {
		if f != nil && f.IsDirectory() {
			dirs = append(dirs, f)
		}
	}
	return dirs
}
