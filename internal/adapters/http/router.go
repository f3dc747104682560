package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/kirillkom/invoice-insight/internal/config"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
	"github.com/kirillkom/invoice-insight/internal/observability/metrics"
)

const serviceName = "invoice-api"

type Router struct {
	cfg config.Config

	ingest      ports.InvoiceIngestor
	reader      ports.InvoiceReader
	purger      ports.InvoicePurger
	corrections ports.CorrectionRecorder
	reextract   ports.Reextractor
	exporter    ports.InvoiceExporter
	extractor   ports.FieldExtractor
	fields      ports.FieldRepository
	exports     ports.ExportRepository

	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.InvoiceIngestor,
	reader ports.InvoiceReader,
	purger ports.InvoicePurger,
	corrections ports.CorrectionRecorder,
	reextract ports.Reextractor,
	exporter ports.InvoiceExporter,
	extractor ports.FieldExtractor,
	fields ports.FieldRepository,
	exports ports.ExportRepository,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		ingest:      ingest,
		reader:      reader,
		purger:      purger,
		corrections: corrections,
		reextract:   reextract,
		exporter:    exporter,
		extractor:   extractor,
		fields:      fields,
		exports:     exports,
		metrics:     serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/invoices", rt.uploadInvoice)
	mux.HandleFunc("GET /v1/invoices", rt.listInvoices)
	mux.HandleFunc("GET /v1/invoices/{id}", rt.getInvoice)
	mux.HandleFunc("DELETE /v1/invoices/{id}", rt.purgeInvoice)
	mux.HandleFunc("GET /v1/invoices/{id}/fields", rt.listFields)

	mux.HandleFunc("POST /v1/invoices/{id}/corrections", rt.recordCorrection)
	mux.HandleFunc("POST /v1/invoices/{id}/fields/{field}/select", rt.selectField)
	mux.HandleFunc("GET /v1/corrections", rt.correctionHistory)
	mux.HandleFunc("GET /v1/fields", rt.fieldVocabulary)
	mux.HandleFunc("GET /v1/fields/statistics", rt.fieldStatistics)

	mux.HandleFunc("POST /v1/invoices/{id}/reextract", rt.enqueueReextract)
	mux.HandleFunc("POST /v1/invoices/{id}/export", rt.exportInvoice)
	mux.HandleFunc("GET /v1/invoices/{id}/exports", rt.listExports)

	mux.HandleFunc("GET /v1/extractors", rt.extractorStatus)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) extractorStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.extractor.Status())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
