// sanitize.go - Filename validation for uploads.
package server

import (
	"path"
	"path/filepath"
	"strings"
)

// allowedExtensions lists the image types the service accepts.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// allowedFile reports whether the original filename carries a permitted
// image extension. The check is case-insensitive.
func allowedFile(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// secureFilename strips path components and replaces characters outside
// [A-Za-z0-9._-] so the name is safe to use as a flat storage key.
// The result may be empty if nothing safe remains.
func secureFilename(name string) string {
	// Drop any directory part, whichever separator the client used.
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "." || cleaned == ".." {
		return ""
	}
	return cleaned
}
