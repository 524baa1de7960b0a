package spacache

import (
	"path/filepath"
	"strings"
)

// KeyFromPath derives a cache key from a path relative to the asset root.
//
// The host's path separator and any backslash are translated to "/" and a
// leading "/" is added, so "assets\app.js" and "assets/app.js" both become
// "/assets/app.js" on every host. Keys never contain a backslash. Case,
// trailing slashes and dot segments are preserved.
func KeyFromPath(rel string) string {
	return keyFromPath(rel, filepath.Separator)
}

func keyFromPath(rel string, sep byte) string {
	if sep != '/' {
		rel = strings.ReplaceAll(rel, string(sep), "/")
	}
	return "/" + strings.ReplaceAll(rel, `\`, "/")
}
