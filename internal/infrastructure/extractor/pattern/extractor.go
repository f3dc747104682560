// Package pattern extracts invoice fields with regular expressions and
// context-derived confidence scores. It needs no model and no network, so it
// doubles as the always-available fallback behind the language model.
package pattern

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

const Name = "pattern"

type rule struct {
	re   *regexp.Regexp
	base float64
}

type booster struct {
	re    *regexp.Regexp
	boost float64
}

var rules = map[domain.FieldName][]rule{
	domain.FieldVendor: {
		{regexp.MustCompile(`(?im)(?:from|bill\s+to|vendor|company)[:\s]+([A-Za-z][A-Za-z&.,' ]{2,40})`), 0.8},
		{regexp.MustCompile(`(?m)^([A-Z][A-Za-z&.,' ]{2,40})$`), 0.6},
	},
	domain.FieldInvoiceNumber: {
		{regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)\s*[:\s]\s*([A-Za-z0-9][\w-]*)`), 0.9},
		{regexp.MustCompile(`#\s*(INV[\w-]+)`), 0.9},
		{regexp.MustCompile(`(?i)\binv\.?\s*#?\s*[:\s]\s*([A-Za-z0-9][\w-]*)`), 0.8},
	},
	domain.FieldDate: {
		{regexp.MustCompile(`(?i)(?:invoice\s+)?date\s*[:\s]\s*(\d{4}-\d{2}-\d{2})`), 0.9},
		{regexp.MustCompile(`(?i)(?:invoice\s+)?date\s*[:\s]\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), 0.85},
	},
	domain.FieldDueDate: {
		{regexp.MustCompile(`(?i)due\s+date\s*[:\s]\s*(\d{4}-\d{2}-\d{2})`), 0.9},
		{regexp.MustCompile(`(?i)due\s+date\s*[:\s]\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), 0.9},
		{regexp.MustCompile(`(?i)payment\s+due\s*[:\s]\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), 0.8},
	},
	domain.FieldSubtotal: {
		{regexp.MustCompile(`(?i)sub\s*-?\s*total\s*[:\s]\s*\$?([0-9,]+\.?[0-9]*)`), 0.85},
	},
	domain.FieldTax: {
		{regexp.MustCompile(`(?i)(?:sales\s+)?tax(?:\s*\([0-9.]+\s*%\))?\s*[:\s]\s*\$?([0-9,]+\.?[0-9]*)`), 0.85},
		{regexp.MustCompile(`(?i)\bvat\b\s*[:\s]\s*\$?([0-9,]+\.?[0-9]*)`), 0.8},
	},
	domain.FieldTotal: {
		{regexp.MustCompile(`(?i)total\s+amount(?:\s+due)?\s*[:\s]\s*\$?([0-9,]+\.?[0-9]*)`), 0.9},
		{regexp.MustCompile(`(?i)amount\s+due\s*[:\s]\s*\$?([0-9,]+\.?[0-9]*)`), 0.8},
		{regexp.MustCompile(`(?im)^(?:grand\s+)?total\s*[:\s]\s*\$?([0-9,]+\.?[0-9]*)`), 0.7},
		{regexp.MustCompile(`\$([0-9,]+\.[0-9]{2})\s*$`), 0.6},
	},
	domain.FieldLineItem: {
		{regexp.MustCompile(`(?im)^(\d+\s*x\s+\S.{2,60}?)\s+\$?[0-9,]+\.[0-9]{2}\s*$`), 0.65},
		{regexp.MustCompile(`(?im)^([A-Za-z]\S.{2,60}?)\s+\$[0-9,]+\.[0-9]{2}\s*$`), 0.55},
	},
}

var boosters = map[domain.FieldName][]booster{
	domain.FieldInvoiceNumber: {
		{regexp.MustCompile(`INV`), 0.1},
		{regexp.MustCompile(`[0-9]{4}`), 0.1},
		{regexp.MustCompile(`-`), 0.1},
	},
	domain.FieldVendor: {
		{regexp.MustCompile(`^[A-Z]`), 0.05},
		{regexp.MustCompile(`[a-z]{3,}`), 0.05},
	},
	domain.FieldSubtotal: amountBoosters,
	domain.FieldTax:      amountBoosters,
	domain.FieldTotal:    amountBoosters,
}

var amountBoosters = []booster{
	{regexp.MustCompile(`\.[0-9]{2}$`), 0.1},
	{regexp.MustCompile(`^[0-9]`), 0.05},
}

// Words that mean a "description $amount" line is a summary row, not a line
// item.
var summaryWords = []string{"total", "subtotal", "sub-total", "tax", "vat", "amount due", "balance"}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Name() string {
	return Name
}

func (e *Extractor) Info() domain.ExtractorInfo {
	return domain.ExtractorInfo{
		Name:    Name,
		Methods: []string{"regex", "context-scoring"},
		Device:  "cpu",
		Loaded:  true,
	}
}

func (e *Extractor) Extract(ctx context.Context, pages []string) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.Join(pages, "\n")

	candidates := make([]domain.Candidate, 0, len(rules))
	for _, field := range domain.Vocabulary() {
		value, score, ok := bestMatch(field, text)
		if !ok {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Field:     field,
			Value:     value,
			Score:     score,
			Extractor: Name,
		})
	}
	return candidates, nil
}

func bestMatch(field domain.FieldName, text string) (string, float64, bool) {
	var bestValue string
	var bestScore float64
	for _, r := range rules[field] {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if field == domain.FieldLineItem && isSummaryRow(value) {
			continue
		}
		score := scoreMatch(field, value, r.base)
		if score > bestScore {
			bestValue = value
			bestScore = score
		}
	}
	if bestValue == "" {
		return "", 0, false
	}
	return cleanValue(field, bestValue), round2(bestScore), true
}

func scoreMatch(field domain.FieldName, value string, base float64) float64 {
	score := base
	for _, b := range boosters[field] {
		if b.re.MatchString(value) {
			score += b.boost
		}
	}
	switch {
	case len(value) < 2:
		score *= 0.5
	case len(value) > 100:
		score *= 0.7
	}
	return math.Min(score, 1.0)
}

func isSummaryRow(value string) bool {
	lower := strings.ToLower(value)
	for _, w := range summaryWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func cleanValue(field domain.FieldName, value string) string {
	value = strings.Join(strings.Fields(value), " ")
	switch field {
	case domain.FieldSubtotal, domain.FieldTax, domain.FieldTotal:
		return cleanAmount(value)
	case domain.FieldVendor:
		return titleCase(value)
	case domain.FieldInvoiceNumber:
		return strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	}
	return value
}

var nonAmount = regexp.MustCompile(`[^\d.]`)

func cleanAmount(value string) string {
	value = nonAmount.ReplaceAllString(value, "")
	if !strings.Contains(value, ".") && len(value) > 2 {
		// Bare digit runs on invoices are almost always cents-inclusive.
		value = value[:len(value)-2] + "." + value[len(value)-2:]
	}
	return value
}

func titleCase(value string) string {
	words := strings.Fields(value)
	for i, w := range words {
		if len(w) == 0 {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
