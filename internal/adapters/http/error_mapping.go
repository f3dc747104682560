package httpadapter

import (
	"net/http"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrCorruptDocument):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrUnknownField):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound),
		domain.IsKind(err, domain.ErrArtifactNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrExtractionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
