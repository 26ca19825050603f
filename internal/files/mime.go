package files

import (
	"mime"
	"path/filepath"
	"strings"
)

const octetStream = "application/octet-stream"

var mimeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
	"avif": "image/avif",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",

	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"zip":  "application/zip",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"json": "application/json",

	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"webm": "video/webm",
}

// ResolveContentType trusts a concrete declared type and falls back to
// the extension table otherwise. Drag-dropped files frequently arrive
// with no type or the generic octet-stream, and the stored Content-Type
// decides whether a browser renders previews inline.
func ResolveContentType(declared, filename string) string {
	if declared != "" && declared != octetStream {
		return declared
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if mt, ok := mimeByExt[ext]; ok {
		return mt
	}

	return octetStream
}

// IsImage reports whether a file should get an inline image preview.
func IsImage(mimeType, filename string) bool {
	return strings.HasPrefix(ResolveContentType(mimeType, filename), "image/")
}

// AttachmentDisposition encodes the untrusted original name for a
// Content-Disposition header. mime.FormatMediaType applies RFC 5987
// percent-encoding for non-ASCII names.
func AttachmentDisposition(originalName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": originalName})
}

// InlineDisposition is AttachmentDisposition for inline rendering.
func InlineDisposition(originalName string) string {
	return mime.FormatMediaType("inline", map[string]string{"filename": originalName})
}
