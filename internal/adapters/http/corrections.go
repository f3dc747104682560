package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

func (rt *Router) recordCorrection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field          string `json:"field_name"`
		CorrectedValue string `json:"corrected_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field_name is required"})
		return
	}

	field, err := rt.corrections.Record(
		r.Context(),
		r.PathValue("id"),
		domain.FieldName(req.Field),
		req.CorrectedValue,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordCorrection(serviceName, req.Field)
	}
	writeJSON(w, http.StatusOK, field)
}

func (rt *Router) selectField(w http.ResponseWriter, r *http.Request) {
	selected := true
	if r.ContentLength != 0 {
		var req struct {
			Selected *bool `json:"selected"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if req.Selected != nil {
			selected = *req.Selected
		}
	}

	err := rt.corrections.Select(
		r.Context(),
		r.PathValue("id"),
		domain.FieldName(r.PathValue("field")),
		selected,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) correctionHistory(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter 'field' is required"})
		return
	}

	history, err := rt.corrections.History(
		r.Context(),
		domain.FieldName(field),
		queryInt(r, "limit", 0),
		queryInt(r, "offset", 0),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"corrections": history})
}

type fieldDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

var fieldDescriptors = map[domain.FieldName]fieldDescriptor{
	domain.FieldVendor:        {Type: "string", Description: "Issuing company or merchant name"},
	domain.FieldInvoiceNumber: {Type: "string", Description: "Invoice identifier as printed"},
	domain.FieldDate:          {Type: "date", Description: "Invoice issue date"},
	domain.FieldDueDate:       {Type: "date", Description: "Payment due date"},
	domain.FieldSubtotal:      {Type: "currency", Description: "Amount before tax"},
	domain.FieldTax:           {Type: "currency", Description: "Tax amount"},
	domain.FieldTotal:         {Type: "currency", Description: "Total amount due"},
	domain.FieldLineItem:      {Type: "string", Description: "Representative line item"},
}

func (rt *Router) fieldVocabulary(w http.ResponseWriter, _ *http.Request) {
	out := make([]fieldDescriptor, 0, len(domain.Vocabulary()))
	for _, name := range domain.Vocabulary() {
		d := fieldDescriptors[name]
		d.Name = string(name)
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": out})
}

func (rt *Router) fieldStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.fields.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": stats})
}
