package gcs

import (
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

func TestWrapGCSErrorMarksServerFailuresTemporary(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		temporary bool
	}{
		{"internal", &googleapi.Error{Code: http.StatusInternalServerError}, true},
		{"unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"plain", errors.New("broken pipe"), false},
	}
	for _, tc := range cases {
		got := wrapGCSError("write artifact", tc.err)
		if domain.IsKind(got, domain.ErrTemporary) != tc.temporary {
			t.Fatalf("%s: temporary=%v, want %v (err %v)", tc.name, !tc.temporary, tc.temporary, got)
		}
	}
}

func TestCheckLocatorRejectsForeignShapes(t *testing.T) {
	store := &Store{name: "invoices"}

	cases := map[string]domain.StorageLocator{
		"local backend": {Backend: domain.BackendLocal, Path: "/tmp/x"},
		"missing key":   {Backend: domain.BackendGCS, Bucket: "invoices"},
		"other bucket":  {Backend: domain.BackendGCS, Bucket: "other", Key: "k"},
	}
	for name, locator := range cases {
		if err := store.checkLocator(locator); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input error, got %v", name, err)
		}
	}

	ok := domain.StorageLocator{Backend: domain.BackendGCS, Bucket: "invoices", Key: "doc_invoice.pdf"}
	if err := store.checkLocator(ok); err != nil {
		t.Fatalf("valid locator rejected: %v", err)
	}
}
