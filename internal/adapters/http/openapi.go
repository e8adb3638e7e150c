package http

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
	openAPIJSON     []byte
	openAPIJSONOnce sync.Once
	openAPIJSONErr  error
)

// getOpenAPIJSON returns the OpenAPI document as JSON, converted once.
func getOpenAPIJSON() ([]byte, error) {
	openAPIJSONOnce.Do(func() {
		var doc map[string]interface{}
		if openAPIJSONErr = yaml.Unmarshal(openAPIYAML, &doc); openAPIJSONErr != nil {
			return
		}
		openAPIJSON, openAPIJSONErr = json.MarshalIndent(doc, "", "  ")
	})
	return openAPIJSON, openAPIJSONErr
}

// handleOpenAPI returns the OpenAPI specification as JSON.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to convert OpenAPI document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// handleOpenAPIYAML returns the OpenAPI specification as written.
func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPIYAML)
}
