package util

import (
	"errors"
	"strings"
)

// ErrBadFileName rejects empty or path-traversing upload names.
var ErrBadFileName = errors.New("invalid file name")

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// SanitizeFileName flattens path separators out of an upload name and
// rejects traversal sequences outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrBadFileName
	}
	clean := separatorReplacer.Replace(strings.TrimSpace(name))
	if clean == "" {
		return "", ErrBadFileName
	}
	return clean, nil
}
