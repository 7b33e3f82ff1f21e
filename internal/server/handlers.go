package server

import (
	"encoding/json"
	"net/http"
)

// handleRepository serves repository metadata.
func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"name":   s.repo.Name(),
		"gitDir": s.repo.GitDir(),
	}
	writeJSON(w, response)
}

// handleReport serves the current report as JSON.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.Report()
	if report == nil {
		http.Error(w, errorText(err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, report)
}

// handleText serves the current report in the plain-text layout.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	report, err := s.Report()
	if report == nil {
		http.Error(w, errorText(err), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report.Text()))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func errorText(err error) string {
	if err == nil {
		return "history not loaded yet"
	}
	return err.Error()
}
