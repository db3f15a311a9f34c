package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
)

// FeedHandler serves the locally published RSS document.
type FeedHandler struct {
	path string
}

func NewFeedHandler(path string) *FeedHandler {
	return &FeedHandler{path: path}
}

func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "feed not generated yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open feed")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open feed")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
