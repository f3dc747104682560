package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/render"
)

// exportInvoice snapshots the document's fields and streams the snapshot back
// in the requested format.
func (rt *Router) exportInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields []string `json:"fields"`
		Format string   `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Format == "" {
		req.Format = string(domain.ExportJSON)
	}

	names := make([]domain.FieldName, 0, len(req.Fields))
	for _, f := range req.Fields {
		names = append(names, domain.FieldName(f))
	}

	export, err := rt.exporter.Export(r.Context(), r.PathValue("id"), names, domain.ExportFormat(req.Format))
	if err != nil {
		writeError(w, err)
		return
	}

	body, contentType, err := render.Render(export)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, string(export.Format))
	}

	filename := fmt.Sprintf("invoice-%s.%s", export.DocumentID, render.FileExtension(export.Format))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Export-Id", export.ID)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (rt *Router) listExports(w http.ResponseWriter, r *http.Request) {
	exports, err := rt.exports.ListByDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": exports})
}
