package handler

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/musicreward/musicreward/internal/openapi"
)

// OpenAPIHandler serves the API description. The document is built once at
// startup since routes do not change at runtime.
type OpenAPIHandler struct {
	doc []byte
	err error
}

// NewOpenAPIHandler renders the document for opts.
func NewOpenAPIHandler(opts openapi.Options) *OpenAPIHandler {
	doc, err := json.Marshal(openapi.Generate(opts))
	return &OpenAPIHandler{doc: doc, err: err}
}

// ServeSpec writes the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	if h.err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render OpenAPI document", h.err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.doc)
}
