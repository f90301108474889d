// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrCanceled is returned by dialogs the user dismissed.
var ErrCanceled = errors.New("canceled by user")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a snapshot of the document the user is focused on.
// Path is its identity for auto-attach.
type Document struct {
	Path     string
	Language string
	Text     string
}

// Name returns the base name of the document path.
func (d Document) Name() string {
	return filepath.Base(d.Path)
}

// IsZero reports whether d describes no document.
func (d Document) IsZero() bool {
	return d.Path == ""
}

// =============================================================================
// FILTERS
// =============================================================================

// FileFilter constrains a selection dialog to a set of extensions.
// Extensions carry no leading dot.
type FileFilter struct {
	Name       string
	Extensions []string
}

// Matches reports whether path carries one of the filter's extensions.
// A filter without extensions matches everything.
func (f FileFilter) Matches(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range f.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// AllowedExtensions flattens filters into dotted extensions, the form the
// bubbles file picker expects.
func AllowedExtensions(filters []FileFilter) []string {
	var out []string
	for _, f := range filters {
		for _, e := range f.Extensions {
			out = append(out, "."+strings.ToLower(e))
		}
	}
	return out
}

// SourceFilters are offered by the attach-file dialog.
var SourceFilters = []FileFilter{
	{Name: "Source", Extensions: []string{
		"go", "py", "js", "ts", "tsx", "jsx", "java", "kt", "c", "h", "cc", "cpp", "hpp",
		"cs", "rs", "rb", "php", "swift", "scala", "sh", "sql", "lua", "zig",
	}},
	{Name: "Text", Extensions: []string{"md", "txt", "json", "yaml", "yml", "toml", "xml", "html", "css"}},
}

// ImageFilters are offered by the attach-image dialog. They match the media
// types the Messages API accepts.
var ImageFilters = []FileFilter{
	{Name: "Images", Extensions: []string{"png", "jpg", "jpeg", "gif", "webp"}},
}

// =============================================================================
// HOST
// =============================================================================

// Level is the severity of a host notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Host is everything the session layer needs from its environment.
//
// Dialog methods block until the user answers; they return ErrCanceled
// when dismissed. Implementations must be safe for concurrent use.
type Host interface {
	// FocusedDocument returns the current document, or false when none.
	FocusedDocument() (Document, bool)

	// SelectFiles opens a file selection dialog constrained by filters.
	SelectFiles(filters []FileFilter) ([]string, error)

	// SelectImages opens an image selection dialog.
	SelectImages() ([]string, error)

	// ReadFile returns the bytes at path.
	ReadFile(path string) ([]byte, error)

	// PromptSecret asks for a secret without echoing it.
	PromptSecret(prompt string) (string, error)

	// Notify shows a transient message.
	Notify(level Level, msg string)
}
