package domain

import "testing"

var testPriority = []string{"llm", "pattern"}

func TestResolveCandidatesHighestScoreWins(t *testing.T) {
	resolved := ResolveCandidates([]Candidate{
		{Field: FieldTotal, Value: "150.00", Score: 0.92, Extractor: "pattern"},
		{Field: FieldTotal, Value: "151.00", Score: 0.4, Extractor: "llm"},
	}, testPriority)

	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved field, got %d", len(resolved))
	}
	if resolved[0].Value != "150.00" {
		t.Fatalf("expected highest-score candidate, got %q", resolved[0].Value)
	}
}

func TestResolveCandidatesTieGoesToPrimaryExtractor(t *testing.T) {
	resolved := ResolveCandidates([]Candidate{
		{Field: FieldVendor, Value: "Acme Ltd", Score: 0.7, Extractor: "pattern"},
		{Field: FieldVendor, Value: "Acme Corporation", Score: 0.7, Extractor: "llm"},
	}, testPriority)

	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved field, got %d", len(resolved))
	}
	if resolved[0].Extractor != "llm" {
		t.Fatalf("expected primary extractor to win the tie, got %s", resolved[0].Extractor)
	}
}

func TestResolveCandidatesTieWithinSameExtractorPrefersSmallerValue(t *testing.T) {
	resolved := ResolveCandidates([]Candidate{
		{Field: FieldInvoiceNumber, Value: "INV-2", Score: 0.5, Extractor: "pattern"},
		{Field: FieldInvoiceNumber, Value: "INV-1", Score: 0.5, Extractor: "pattern"},
	}, testPriority)

	if resolved[0].Value != "INV-1" {
		t.Fatalf("expected lexicographically smaller value, got %q", resolved[0].Value)
	}
}

func TestResolveCandidatesOnePerFieldAndVocabularyOrder(t *testing.T) {
	resolved := ResolveCandidates([]Candidate{
		{Field: FieldTotal, Value: "10.00", Score: 0.9, Extractor: "llm"},
		{Field: FieldVendor, Value: "Acme", Score: 0.8, Extractor: "llm"},
		{Field: FieldVendor, Value: "Acme Inc", Score: 0.2, Extractor: "pattern"},
		{Field: FieldDate, Value: "2026-01-15", Score: 0.7, Extractor: "pattern"},
	}, testPriority)

	if len(resolved) != 3 {
		t.Fatalf("expected 3 resolved fields, got %d", len(resolved))
	}
	seen := map[FieldName]bool{}
	for _, c := range resolved {
		if seen[c.Field] {
			t.Fatalf("duplicate field %s in resolved set", c.Field)
		}
		seen[c.Field] = true
	}
	want := []FieldName{FieldVendor, FieldDate, FieldTotal}
	for i, f := range want {
		if resolved[i].Field != f {
			t.Fatalf("expected vocabulary order %v, got %s at %d", want, resolved[i].Field, i)
		}
	}
}

func TestResolveCandidatesDropsUnknownFieldsAndEmptyValues(t *testing.T) {
	resolved := ResolveCandidates([]Candidate{
		{Field: "shoe_size", Value: "44", Score: 0.9, Extractor: "llm"},
		{Field: FieldTotal, Value: "", Score: 0.9, Extractor: "llm"},
	}, testPriority)

	if len(resolved) != 0 {
		t.Fatalf("expected empty resolution, got %+v", resolved)
	}
}

func TestStorageLocatorValidate(t *testing.T) {
	valid := []StorageLocator{
		{Backend: BackendLocal, Path: "/data/storage/abc.pdf"},
		{Backend: BackendGCS, Bucket: "invoices", Key: "abc.pdf"},
	}
	for _, l := range valid {
		if err := l.Validate(); err != nil {
			t.Fatalf("Validate(%+v) error = %v", l, err)
		}
	}

	invalid := []StorageLocator{
		{},
		{Backend: BackendLocal},
		{Backend: BackendLocal, Path: "/x", Bucket: "b", Key: "k"},
		{Backend: BackendGCS, Bucket: "invoices"},
		{Backend: BackendGCS, Bucket: "b", Key: "k", Path: "/x"},
		{Backend: "ftp", Path: "/x"},
	}
	for _, l := range invalid {
		if err := l.Validate(); err == nil {
			t.Fatalf("Validate(%+v) expected error", l)
		}
	}
}
