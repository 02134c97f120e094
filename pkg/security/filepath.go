// Package security holds input checks shared by handlers that accept
// user-controlled names.
package security

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxFileNameLength bounds the length of a stored file name in bytes.
const MaxFileNameLength = 255

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrInvalidPath   = errors.New("invalid file name")
)

// ValidateFileName checks that name is a bare file name: no directory
// components, no traversal and no control characters.
func ValidateFileName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxFileNameLength {
		return ErrInvalidPath
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return ErrPathTraversal
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name || filepath.IsAbs(name) {
		return ErrPathTraversal
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrInvalidPath
		}
	}
	return nil
}
