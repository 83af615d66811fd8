package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// handleStream runs the pipeline to completion and delivers the final
// answer incrementally: one SSE data event per non-blank line, then a
// terminal done event. The pipeline itself is not incremental; only the
// delivery is.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	outcome := s.handler.Handle(r.Context(), query)
	s.log.Info("streaming answer",
		"session", outcome.SessionID,
		"capability", outcome.Capability,
		"lines", strings.Count(outcome.FinalAnswer, "\n")+1)

	for _, line := range strings.Split(outcome.FinalAnswer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", line)
		flusher.Flush()

		if s.streamDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.streamDelay):
			}
		}
	}

	fmt.Fprint(w, "event: done\ndata: Done\n\n")
	flusher.Flush()
}
