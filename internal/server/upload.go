package server

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
)

// uploadResp is the JSON response returned after a successful upload.
type uploadResp struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
}

// uploadHandler handles POST /upload requests for streaming multipart image
// uploads. The file part is streamed straight into the blob store; the
// lifecycle manager records metadata and rolls the blob back if that fails.
//
// Required form field: file (the binary image data)
// Authentication: required; the upload is owned by the authenticated user.
func (cfg Config) uploadHandler() http.Handler {
	return cfg.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "bad multipart")
			return
		}

		var filePart io.Reader
		var origName, contentType string

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "bad multipart")
				return
			}
			defer func() { _ = part.Close() }()

			if part.FormName() != "file" {
				continue
			}

			filePart = part
			origName = part.FileName()
			contentType = part.Header.Get("Content-Type")
			break
		}

		if filePart == nil || origName == "" {
			writeMessage(w, http.StatusBadRequest, "no file provided")
			return
		}
		// Clients that don't sniff send a generic part type; prefer the
		// extension's type in that case so listings stay useful.
		if contentType == "" || contentType == "application/octet-stream" {
			if byExt := mime.TypeByExtension(filepath.Ext(origName)); byExt != "" {
				contentType = byExt
			}
		}

		owner := identityFromContext(r.Context())

		rec, err := cfg.Assets.Upload(r.Context(), owner, filePart, origName, contentType)
		if err != nil {
			if errors.Is(err, errInvalidFileType) {
				writeMessage(w, http.StatusBadRequest, "file type not allowed, upload png, jpg, jpeg or gif")
				return
			}

			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=upload_failed owner=%s err=%v", rid, owner, err)

			// If MaxBytesReader tripped, surface 413.
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}

			writeMessage(w, http.StatusInternalServerError, "upload failed")
			return
		}

		writeJSON(w, http.StatusOK, uploadResp{
			ID:               rec.ID,
			Filename:         rec.Filename,
			OriginalFilename: rec.OriginalFilename,
		})
	}))
}
