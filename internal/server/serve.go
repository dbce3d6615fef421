package server

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// serveImageHandler handles GET /uploads/{filename}, streaming raw image
// bytes. No authentication: storage names are non-guessable and the gallery
// UI hotlinks them directly.
//
// The metadata row is resolved before the blob so a deleted record answers
// 404 even when its compensating blob delete had failed.
func (cfg Config) serveImageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		filename := strings.TrimPrefix(r.URL.Path, "/uploads/")
		if filename == "" || strings.Contains(filename, "/") {
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}

		rec, err := cfg.Assets.Stat(r.Context(), filename)
		if err != nil {
			if errors.Is(err, errImageNotFound) {
				writeMessage(w, http.StatusNotFound, "not found")
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=serve_stat_failed filename=%s err=%v", rid, filename, err)
			writeMessage(w, http.StatusInternalServerError, "storage error")
			return
		}

		blob, err := cfg.Assets.Open(r.Context(), filename)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=serve_open_failed filename=%s err=%v", rid, filename, err)
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}
		defer func() { _ = blob.Close() }()

		if rec.MimeType != "" {
			w.Header().Set("Content-Type", rec.MimeType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		if rec.FileSize > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(rec.FileSize, 10))
		}
		// The original name is client-supplied; FormatMediaType quotes and
		// escapes it so a stray `"` cannot mangle the header.
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("inline", map[string]string{"filename": rec.OriginalFilename}))

		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, blob)
	})
}
