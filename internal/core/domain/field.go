package domain

import "sort"

type FieldName string

const (
	FieldVendor        FieldName = "vendor"
	FieldInvoiceNumber FieldName = "invoice_number"
	FieldDate          FieldName = "date"
	FieldDueDate       FieldName = "due_date"
	FieldSubtotal      FieldName = "subtotal"
	FieldTax           FieldName = "tax"
	FieldTotal         FieldName = "total"
	FieldLineItem      FieldName = "line_item"
)

// Vocabulary returns the fixed field vocabulary in canonical order.
func Vocabulary() []FieldName {
	return []FieldName{
		FieldVendor,
		FieldInvoiceNumber,
		FieldDate,
		FieldDueDate,
		FieldSubtotal,
		FieldTax,
		FieldTotal,
		FieldLineItem,
	}
}

func KnownFieldName(name string) bool {
	for _, f := range Vocabulary() {
		if string(f) == name {
			return true
		}
	}
	return false
}

// ExtractedField is one resolved field of a document. At most one exists per
// field name within a document. Selected defaults from the tier but a user
// override persists independently of it.
type ExtractedField struct {
	Name          FieldName      `json:"field_name"`
	Value         string         `json:"field_value"`
	Score         float64        `json:"confidence_score"`
	Tier          ConfidenceTier `json:"confidence_tier"`
	Selected      bool           `json:"is_selected"`
	UserCorrected bool           `json:"user_corrected"`
}

// Candidate is a raw (field, value, score) triple produced by one extractor
// before tie-break resolution.
type Candidate struct {
	Field     FieldName
	Value     string
	Score     float64
	Extractor string
}

// Scores within this distance count as tied, so minor scoring jitter between
// extraction attempts cannot flip a winner away from the primary extractor.
const scoreTieEpsilon = 1e-6

// ResolveCandidates picks exactly one candidate per field name. Highest score
// wins; on a tie the extractor earliest in the priority list wins; the
// lexicographically smaller value is the last resort. The result is ordered by
// the canonical vocabulary order.
func ResolveCandidates(candidates []Candidate, priority []string) []Candidate {
	rank := make(map[string]int, len(priority))
	for i, name := range priority {
		rank[name] = i
	}
	extractorRank := func(name string) int {
		if r, ok := rank[name]; ok {
			return r
		}
		return len(priority)
	}

	best := make(map[FieldName]Candidate, len(candidates))
	for _, c := range candidates {
		if !KnownFieldName(string(c.Field)) || c.Value == "" {
			continue
		}
		current, ok := best[c.Field]
		if !ok {
			best[c.Field] = c
			continue
		}
		if beats(c, current, extractorRank) {
			best[c.Field] = c
		}
	}

	order := make(map[FieldName]int, len(Vocabulary()))
	for i, f := range Vocabulary() {
		order[f] = i
	}
	resolved := make([]Candidate, 0, len(best))
	for _, c := range best {
		resolved = append(resolved, c)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return order[resolved[i].Field] < order[resolved[j].Field]
	})
	return resolved
}

func beats(a, b Candidate, extractorRank func(string) int) bool {
	diff := a.Score - b.Score
	if diff > scoreTieEpsilon {
		return true
	}
	if diff < -scoreTieEpsilon {
		return false
	}
	ra, rb := extractorRank(a.Extractor), extractorRank(b.Extractor)
	if ra != rb {
		return ra < rb
	}
	return a.Value < b.Value
}

// ExtractorInfo describes one loaded extractor for the status boundary.
type ExtractorInfo struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
	Device  string   `json:"device"`
	Loaded  bool     `json:"loaded"`
}

type ExtractorStatus struct {
	Extractors []ExtractorInfo `json:"extractors"`
}
