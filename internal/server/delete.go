package server

import (
	"errors"
	"log"
	"net/http"
	"strings"
)

// deleteImageHandler handles DELETE /images/{filename}. The metadata row is
// removed before the blob; a 404 covers both "absent" and "not yours".
func (cfg Config) deleteImageHandler() http.Handler {
	return cfg.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		filename := strings.TrimPrefix(r.URL.Path, "/images/")
		if filename == "" || strings.Contains(filename, "/") {
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}

		owner := identityFromContext(r.Context())

		if err := cfg.Assets.Delete(r.Context(), owner, filename); err != nil {
			if errors.Is(err, errImageNotFound) {
				writeMessage(w, http.StatusNotFound, "not found")
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=delete_image_failed owner=%s filename=%s err=%v", rid, owner, filename, err)
			writeMessage(w, http.StatusInternalServerError, "error deleting image")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "image deleted"})
	}))
}
