package server

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// handleTemplates lists the specialized templates the classifier knows.
func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	ids := s.deps.Templates
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "templates": ids})
}
