// Package http serves a spacache.Cache over HTTP.
package http

import (
	"bytes"
	"io"
	"log/slog"
	nethttp "net/http"
	"strconv"

	"github.com/meigma/spacache"
	"github.com/meigma/spacache/internal/codec"
)

// Observer is notified once per served request with the lookup outcome and
// the number of body bytes written. Implementations must be safe for
// concurrent calls.
type Observer interface {
	ObserveRequest(res spacache.Resolution, bytes int)
}

// Handler answers GET and HEAD requests from a frozen cache.
//
// Precompressed assets are sent as stored with a Content-Encoding header
// when the client accepts the cache's encoding. Clients that do not accept
// it receive the decoded bytes; assets are never compressed per request.
type Handler struct {
	cache    *spacache.Cache
	token    string
	logger   *slog.Logger
	observer Observer
	headers  nethttp.Header
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for request errors.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithObserver sets an observer for served requests.
func WithObserver(o Observer) Option {
	return func(h *Handler) {
		h.observer = o
	}
}

// WithHeader adds a header to every successful response, for example
// Cache-Control.
func WithHeader(key, value string) Option {
	return func(h *Handler) {
		if h.headers == nil {
			h.headers = make(nethttp.Header)
		}
		h.headers.Add(key, value)
	}
}

// NewHandler creates a Handler serving cache. A nil cache answers every
// request with not-found.
func NewHandler(cache *spacache.Cache, opts ...Option) *Handler {
	h := &Handler{
		cache: cache,
		token: cache.Encoding().Token(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	return h
}

// ServeHTTP implements net/http.Handler.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet && r.Method != nethttp.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		nethttp.Error(w, nethttp.StatusText(nethttp.StatusMethodNotAllowed), nethttp.StatusMethodNotAllowed)
		return
	}

	rec, res := h.cache.Resolve(r.URL.Path)
	if res == spacache.Miss {
		nethttp.NotFound(w, r)
		h.observe(res, 0)
		return
	}

	hdr := w.Header()
	for k, values := range h.headers {
		for _, v := range values {
			hdr.Add(k, v)
		}
	}
	hdr.Set("Content-Type", rec.ContentType)

	if !res.Compressed() {
		h.observe(res, h.write(w, r, rec.Data))
		return
	}

	hdr.Add("Vary", "Accept-Encoding")
	if acceptsEncoding(r.Header.Get("Accept-Encoding"), h.token) {
		hdr.Set("Content-Encoding", h.token)
		h.observe(res, h.write(w, r, rec.Data))
		return
	}
	h.observe(res, h.writeDecoded(w, r, rec))
}

// write sends data as the complete body.
func (h *Handler) write(w nethttp.ResponseWriter, r *nethttp.Request, data []byte) int {
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(nethttp.StatusOK)
	if r.Method == nethttp.MethodHead {
		return 0
	}
	n, err := w.Write(data)
	if err != nil {
		h.logger.Debug("write response", "path", r.URL.Path, "error", err)
	}
	return n
}

// writeDecoded streams the decoded form of a compressed record.
func (h *Handler) writeDecoded(w nethttp.ResponseWriter, r *nethttp.Request, rec *spacache.Record) int {
	dec, err := codec.NewReader(h.cache.Encoding(), bytes.NewReader(rec.Data))
	if err != nil {
		h.logger.Error("create decoder", "path", r.URL.Path, "error", err)
		hdr := w.Header()
		hdr.Del("Vary")
		for k := range h.headers {
			hdr.Del(k)
		}
		nethttp.Error(w, nethttp.StatusText(nethttp.StatusInternalServerError), nethttp.StatusInternalServerError)
		return 0
	}
	defer dec.Close()

	w.Header().Set("Content-Length", strconv.FormatInt(rec.OriginalSize, 10))
	w.WriteHeader(nethttp.StatusOK)
	if r.Method == nethttp.MethodHead {
		return 0
	}
	n, err := io.Copy(w, dec)
	if err != nil {
		h.logger.Warn("decode response", "path", r.URL.Path, "error", err)
	}
	return int(n)
}

func (h *Handler) observe(res spacache.Resolution, n int) {
	if h.observer != nil {
		h.observer.ObserveRequest(res, n)
	}
}
