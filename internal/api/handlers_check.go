package api

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// handleCheck evaluates one chapter and responds with its conformance
// result. The chapter arrives either as a multipart "file" field or as the
// raw request body (with an optional ?name= for the report path).
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	name := "chapter.md"
	var content []byte

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(s.cfg.MaxBodyBytes); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		name = sanitizeFilename(header.Filename)
		content, err = io.ReadAll(file)
		if err != nil {
			jsonError(w, "failed to read file", http.StatusBadRequest)
			return
		}
	} else {
		if q := r.URL.Query().Get("name"); q != "" {
			name = sanitizeFilename(q)
		}
		var err error
		content, err = io.ReadAll(r.Body)
		if err != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}
	}

	if !strings.HasSuffix(name, ".md") {
		jsonError(w, "only .md chapters are checked", http.StatusBadRequest)
		return
	}

	result := s.runner.CheckContent(name, content)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// handleRules reports the active rule set for this server.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rs := s.runner.RuleSet()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"min_collapsible": rs.MinCollapsible,
		"min_diagrams":    rs.MinDiagrams,
		"min_retrieval":   rs.MinRetrieval,
		"min_mistakes":    rs.MinMistakes,
		"strict":          rs.Strict,
	})
}

func (s *Server) handleCheckStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats": s.runner.Stats.Snapshot(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename strips any path components from an uploaded filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "chapter.md"
	}
	return name
}
