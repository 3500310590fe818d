// Package mime maps file extensions to content-type strings.
package mime

import (
	"path/filepath"
	"strings"
)

// DefaultType is returned for extensions not present in the table.
const DefaultType = "application/octet-stream"

var types = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "text/javascript",
	".json":  "application/json",
	".txt":   "text/plain",
	".xml":   "application/xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// TypeByExtension returns the content type for an extension written with its
// leading dot (".css"). Lookup is case-insensitive.
func TypeByExtension(ext string) string {
	if t, ok := types[strings.ToLower(ext)]; ok {
		return t
	}
	return DefaultType
}

// TypeByPath resolves the content type from a file path's extension.
func TypeByPath(path string) string {
	return TypeByExtension(filepath.Ext(path))
}
