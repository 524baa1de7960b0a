package http

import (
	"strconv"
	"strings"
)

// acceptsEncoding reports whether an Accept-Encoding header value allows the
// content-coding token. An explicit entry for the token takes precedence over
// "*"; a q-value of zero refuses the coding. An empty header accepts only
// identity.
func acceptsEncoding(header, token string) bool {
	exact, star := -1.0, -1.0
	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			continue
		case strings.EqualFold(name, token):
			exact = qValue(params)
		case name == "*":
			star = qValue(params)
		}
	}
	if exact >= 0 {
		return exact > 0
	}
	return star > 0
}

// qValue extracts the q parameter, defaulting to 1. A malformed value
// counts as 0.
func qValue(params string) float64 {
	for param := range strings.SplitSeq(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || q < 0 {
			return 0
		}
		return q
	}
	return 1
}
