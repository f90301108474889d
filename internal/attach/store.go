// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jeranaias/rigrun-assist/internal/host"
)

// DefaultMaxImages is the image limit used when none is configured.
const DefaultMaxImages = 3

// =============================================================================
// TYPES
// =============================================================================

// File is an attached text file. OriginPath is empty for content that did
// not come from disk.
type File struct {
	Name       string
	Content    string
	Language   string
	OriginPath string
	Auto       bool
}

// Image is an attached image. Data is base64 encoded.
type Image struct {
	Name     string
	Data     string
	MIMEType string
}

// FileRef identifies an attached file without its content.
type FileRef struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Language string `json:"language,omitempty"`
	Size     int    `json:"size"`
	Auto     bool   `json:"auto,omitempty"`
}

// ImageRef identifies an attached image without its payload.
type ImageRef struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// Snapshot is the display view of a store.
type Snapshot struct {
	Files  []FileRef  `json:"files"`
	Images []ImageRef `json:"images"`
}

// Empty reports whether the snapshot holds no attachments.
func (s Snapshot) Empty() bool {
	return len(s.Files) == 0 && len(s.Images) == 0
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the attachments of one session. It is safe for concurrent
// use; the focus watcher and the panel both mutate it.
type Store struct {
	mu        sync.Mutex
	maxImages int
	files     []File
	images    []Image
	autoPath  string
}

// NewStore creates an empty store. maxImages <= 0 uses DefaultMaxImages.
func NewStore(maxImages int) *Store {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &Store{maxImages: maxImages}
}

// MaxImages returns the image limit.
func (s *Store) MaxImages() int {
	return s.maxImages
}

// AutoAttach makes doc the auto-attached file. Calling it again with the
// same document is a no-op. Otherwise the previous auto-attached entry is
// dropped and doc is inserted. It reports whether the store changed.
//
// A document that is already attached by hand is left alone and not
// tracked, so a later focus change cannot remove the manual entry.
func (s *Store) AutoAttach(doc host.Document) bool {
	if doc.IsZero() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Path == s.autoPath {
		return false
	}

	changed := false
	if s.autoPath != "" {
		changed = s.removeFileLocked(s.autoPath)
		s.autoPath = ""
	}

	if s.indexOfFileLocked(doc.Path) >= 0 {
		return changed
	}

	lang := doc.Language
	if lang == "" {
		lang = host.LanguageFor(doc.Path)
	}
	s.files = append(s.files, File{
		Name:       doc.Name(),
		Content:    doc.Text,
		Language:   lang,
		OriginPath: doc.Path,
		Auto:       true,
	})
	s.autoPath = doc.Path
	return true
}

// AutoAttachedPath returns the tracked auto-attach identity, or "".
func (s *Store) AutoAttachedPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPath
}

// AttachFile adds a file. It fails with ErrAlreadyAttached when an entry
// with the same path exists. An empty language is detected from the path.
func (s *Store) AttachFile(path, content, language string) error {
	if language == "" {
		language = host.LanguageFor(path)
	}
	name := filepath.Base(path)
	if path == "" {
		name = "untitled"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if path != "" && s.indexOfFileLocked(path) >= 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, path)
	}
	s.files = append(s.files, File{
		Name:       name,
		Content:    content,
		Language:   language,
		OriginPath: path,
	})
	return nil
}

// AttachImage adds an image. It fails with ErrAlreadyAttached on a
// duplicate name and ErrLimitExceeded once the limit is reached. An empty
// mimeType is derived from the name's extension.
func (s *Store) AttachImage(name, data, mimeType string) error {
	if mimeType == "" {
		mimeType = MIMETypeFor(name)
		if mimeType == "" {
			return fmt.Errorf("%w: %s", ErrUnsupportedImage, name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, img := range s.images {
		if img.Name == name {
			return fmt.Errorf("%w: %s", ErrAlreadyAttached, name)
		}
	}
	if len(s.images) >= s.maxImages {
		return fmt.Errorf("%w: at most %d images", ErrLimitExceeded, s.maxImages)
	}
	s.images = append(s.images, Image{Name: name, Data: data, MIMEType: mimeType})
	return nil
}

// Remove drops the file with the given origin path. Removing the
// auto-attached file clears the tracked identity, so focusing the same
// document again re-attaches it. It reports whether anything was removed.
func (s *Store) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == s.autoPath {
		s.autoPath = ""
	}
	return s.removeFileLocked(path)
}

// RemoveImage drops the image with the given name.
func (s *Store) RemoveImage(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, img := range s.images {
		if img.Name == name {
			s.images = append(s.images[:i], s.images[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the store and forgets the auto-attach identity.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
	s.images = nil
	s.autoPath = ""
}

// Snapshot returns names, paths and sizes. It never carries content.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Files:  make([]FileRef, 0, len(s.files)),
		Images: make([]ImageRef, 0, len(s.images)),
	}
	for _, f := range s.files {
		snap.Files = append(snap.Files, FileRef{
			Name:     f.Name,
			Path:     f.OriginPath,
			Language: f.Language,
			Size:     len(f.Content),
			Auto:     f.Auto,
		})
	}
	for _, img := range s.images {
		snap.Images = append(snap.Images, ImageRef{
			Name:     img.Name,
			MIMEType: img.MIMEType,
			Size:     len(img.Data),
		})
	}
	return snap
}

// Contents returns copies of every attachment in insertion order.
func (s *Store) Contents() ([]File, []Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]File, len(s.files))
	copy(files, s.files)
	images := make([]Image, len(s.images))
	copy(images, s.images)
	return files, images
}

func (s *Store) indexOfFileLocked(path string) int {
	for i, f := range s.files {
		if f.OriginPath == path {
			return i
		}
	}
	return -1
}

func (s *Store) removeFileLocked(path string) bool {
	if path == "" {
		return false
	}
	i := s.indexOfFileLocked(path)
	if i < 0 {
		return false
	}
	s.files = append(s.files[:i], s.files[i+1:]...)
	return true
}
