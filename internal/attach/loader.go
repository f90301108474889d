// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/util"
)

// MaxImageBytes is the largest raw image the Messages API accepts.
const MaxImageBytes = 5 * 1024 * 1024

// Reader reads file bytes. host.Host satisfies it.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MIMETypeFor returns the media type for an image name, or "" when the
// API does not accept that type.
func MIMETypeFor(name string) string {
	return imageTypes[strings.ToLower(filepath.Ext(name))]
}

// LoadFile reads a text file through r. maxSize <= 0 disables the limit.
func LoadFile(r Reader, path string, maxSize int64) (File, error) {
	data, err := r.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return File{}, fmt.Errorf("%w: %s is %s (limit %s)", ErrTooLarge,
			filepath.Base(path), util.HumanBytes(int64(len(data))), util.HumanBytes(maxSize))
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return File{}, fmt.Errorf("%s is not a text file", filepath.Base(path))
	}
	return File{
		Name:       filepath.Base(path),
		Content:    string(data),
		Language:   host.LanguageFor(path),
		OriginPath: path,
	}, nil
}

// LoadImage reads an image through r and base64 encodes it.
func LoadImage(r Reader, path string) (Image, error) {
	mimeType := MIMETypeFor(path)
	if mimeType == "" {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Base(path))
	}
	data, err := r.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: %s is %s (limit %s)", ErrTooLarge,
			filepath.Base(path), util.HumanBytes(int64(len(data))), util.HumanBytes(MaxImageBytes))
	}
	return Image{
		Name:     filepath.Base(path),
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}, nil
}
