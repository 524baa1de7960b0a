// Package mimetype maps asset file names to MIME types by extension.
package mimetype

import (
	"mime"
	"path"
	"strings"
)

// OctetStream is returned for extensions that cannot be classified.
const OctetStream = "application/octet-stream"

// knownTypes covers what a front-end build emits. It is consulted before the
// platform table so results do not depend on the host's mime.types files.
var knownTypes = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".css":         "text/css",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".cjs":         "application/javascript",
	".json":        "application/json",
	".map":         "application/json",
	".webmanifest": "application/manifest+json",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".avif":        "image/avif",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".otf":         "font/otf",
	".txt":         "text/plain",
	".xml":         "text/xml",
	".wasm":        "application/wasm",
	".pdf":         "application/pdf",
	".mp3":         "audio/mpeg",
	".mp4":         "video/mp4",
	".webm":        "video/webm",
	".zip":         "application/zip",
	".gz":          "application/gzip",
	".br":          OctetStream,
}

// ByExtension returns the MIME type for name based on its extension.
// The result never carries parameters such as charset.
func ByExtension(name string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
	if ext == "" {
		return OctetStream
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return OctetStream
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return OctetStream
	}
	return mediaType
}
