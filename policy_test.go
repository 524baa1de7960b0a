package spacache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldCompress(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"text/html", true},
		{"text/css", true},
		{"application/javascript", true},
		{"application/json", true},
		{"image/svg+xml", true},
		{"image/png", false},
		{"image/jpeg", false},
		{"font/woff2", false},
		{"application/zip", false},
		{"application/octet-stream", false},
		{"text/plain", false},
		{"text/javascript", false},
		{"text/html; charset=utf-8", false},
		{"TEXT/HTML", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCompress(tt.mime))
		})
	}
}
