package domain

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ValidPathSegment reports whether s can be used as a single directory or
// file name below the uploads root without escaping it. Names must be valid
// UTF-8 so the persisted record spells the same bytes as the file on disk.
func ValidPathSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if !utf8.ValidString(s) || strings.ContainsAny(s, "/\\\x00") {
		return false
	}
	return !filepath.IsAbs(s) && filepath.VolumeName(s) == ""
}

// SanitizeFileName reduces a client-supplied file name to its base name.
// Invalid UTF-8 sequences become "_". The result still has to pass
// ValidPathSegment.
func SanitizeFileName(name string) string {
	name = strings.ToValidUTF8(name, "_")
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}
