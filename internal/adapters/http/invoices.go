package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type uploadResponse struct {
	Document *domain.Document        `json:"document"`
	Fields   []domain.ExtractedField `json:"fields"`
}

func (rt *Router) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "upload exceeds the size limit",
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "multipart field 'file' is required",
		})
		return
	}
	defer file.Close()

	doc, fields, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		// The wait timeout is not a failure: the document exists and the
		// pipeline finishes in the background, so hand back a pollable id.
		if doc != nil && domain.IsKind(err, domain.ErrTemporary) {
			rt.recordUpload(string(domain.StatusExtracting), 0)
			writeJSON(w, http.StatusAccepted, uploadResponse{Document: doc})
			return
		}
		if doc != nil {
			rt.recordUpload(string(doc.Status), 0)
		}
		writeError(w, err)
		return
	}

	rt.recordUpload(string(doc.Status), len(fields))
	writeJSON(w, http.StatusCreated, uploadResponse{Document: doc, Fields: fields})
}

func (rt *Router) recordUpload(status string, fieldCount int) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordUpload(serviceName, status, fieldCount)
}

func (rt *Router) getInvoice(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.reader.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listInvoices(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !knownDocumentStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown status filter " + strconv.Quote(status),
		})
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	docs, err := rt.reader.List(r.Context(), domain.DocumentStatus(status), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": docs})
}

func (rt *Router) listFields(w http.ResponseWriter, r *http.Request) {
	fields, err := rt.reader.Fields(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (rt *Router) purgeInvoice(w http.ResponseWriter, r *http.Request) {
	if err := rt.purger.Purge(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) enqueueReextract(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := rt.reextract.Enqueue(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":      "queued",
		"document_id": id,
	})
}

func knownDocumentStatus(status string) bool {
	switch domain.DocumentStatus(status) {
	case domain.StatusUploaded, domain.StatusExtracting, domain.StatusExtracted, domain.StatusFailed:
		return true
	}
	return false
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
