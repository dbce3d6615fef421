package server

import (
	"log"
	"net/http"
)

// listImagesHandler handles GET /images. Results are scoped to the
// authenticated owner and ordered newest first.
func (cfg Config) listImagesHandler() http.Handler {
	return cfg.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		owner := identityFromContext(r.Context())

		images, err := cfg.Assets.List(r.Context(), owner)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=list_images_failed owner=%s err=%v", rid, owner, err)
			writeMessage(w, http.StatusInternalServerError, "error retrieving images")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"images": images})
	}))
}
