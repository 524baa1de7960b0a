package spacache

// CompressionPolicy reports whether assets of the given MIME type are worth
// precompressing. It is called once per file and should be inexpensive.
type CompressionPolicy func(mimeType string) bool

// DefaultCompressionPolicy is the policy Load uses unless overridden.
var DefaultCompressionPolicy CompressionPolicy = ShouldCompress

// ShouldCompress reports true for text-like formats that compress well:
// HTML, CSS, JavaScript, JSON and SVG. Images, fonts, archives and unknown
// binary types are stored as-is.
func ShouldCompress(mimeType string) bool {
	switch mimeType {
	case "text/html", "text/css", "application/javascript", "application/json", "image/svg+xml":
		return true
	default:
		return false
	}
}
