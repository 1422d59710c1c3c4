package blobstore

import (
	"fmt"
	"path"
	"strings"
	"time"

	"intake/internal/docstore"
)

// ObjectPath builds the canonical location for a first-class upload:
// {owner}/{kind}/{timestamp}_{kind}.{ext}. The timestamp keeps repeated
// uploads for the same owner and kind from colliding.
func ObjectPath(ownerID string, kind docstore.DocumentKind, at time.Time, ext string) string {
	return path.Join(
		sanitizeSegment(ownerID),
		string(kind),
		fmt.Sprintf("%s_%s%s", at.UTC().Format("20060102T150405.000000000Z"), kind, normalizeExt(ext)),
	)
}

// TempPath builds a session-scoped staging location under temp/.
func TempPath(sessionID, fileName string) string {
	return path.Join("temp", sanitizeSegment(sessionID), sanitizeSegment(fileName))
}

// PermanentPath builds the post-claim location for a staged object:
// permanent/{owner}/{associatedId}/{category}/{fileName}.
func PermanentPath(ownerID, associatedID string, category docstore.DocumentCategory, fileName string) string {
	return path.Join(
		"permanent",
		sanitizeSegment(ownerID),
		sanitizeSegment(associatedID),
		string(category),
		sanitizeSegment(fileName),
	)
}

// ExtensionFor derives a file extension from a file name, falling back to
// the content type when the name carries none.
func ExtensionFor(fileName, contentType string) string {
	if idx := strings.LastIndexByte(fileName, '.'); idx >= 0 && idx < len(fileName)-1 {
		return strings.ToLower(fileName[idx+1:])
	}
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	case "application/pdf":
		return "pdf"
	default:
		return "bin"
	}
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return ""
	}
	return "." + strings.ToLower(ext)
}

// sanitizeSegment keeps path components from escaping their directory or
// injecting separators.
func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", "\x00", "")
	cleaned := replacer.Replace(segment)
	if cleaned == "" {
		return "_"
	}
	return cleaned
}
