// Package fuzzy implements the fuzzy content HTTP handler: it glues
// the Content Producer's Stream operation to HTTP Framing, answering
// GET/HEAD on any residual virtual path with blob bytes or a tree ZIP.
package fuzzy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"gitexplorer/internal/content"
	"gitexplorer/internal/core"
	"gitexplorer/internal/httpframing"
	"gitexplorer/internal/httprouter"
)

// Handler serves the fuzzy catch-all route.
type Handler struct {
	producer *content.Producer
}

// New returns a Handler backed by producer.
func New(producer *content.Producer) *Handler {
	return &Handler{producer: producer}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	reqPath := httprouter.Captures(r)["rest"]

	stream, err := h.producer.Stream(reqPath)
	if err != nil {
		var unfit *core.PathUnfitError
		if errors.As(err, &unfit) {
			http.Error(w, "", http.StatusNotFound)
			return
		}
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	defer stream.Body.Close()

	validator := httpframing.Validator{ETag: etagFor(stream)}
	if httpframing.NotModified(r, validator) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	httpframing.WriteValidators(w, validator)
	httpframing.SetContentDisposition(w, stream.Filename)

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", stream.MimeType)
		if stream.Size >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(stream.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	httpframing.WriteBody(w, stream.Body, stream.MimeType, stream.Size)
}

// etagFor keys the ETag to the resolved commit id, not wall-clock time
// or the request path alone — the "corrected" design SPEC_FULL.md §D.1
// calls for, so the same virtual path gets a new ETag exactly when the
// commit it resolved against changes, and never otherwise.
func etagFor(stream content.Stream) string {
	h := sha256.New()
	h.Write([]byte(stream.CommitID))
	h.Write([]byte(stream.Filename))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
