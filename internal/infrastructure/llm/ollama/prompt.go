package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

const maxPromptChars = 8000

func buildExtractionPrompt(pages []string) string {
	names := make([]string, 0, len(domain.Vocabulary()))
	for _, f := range domain.Vocabulary() {
		names = append(names, string(f))
	}

	var text strings.Builder
	for idx, page := range pages {
		remaining := maxPromptChars - text.Len()
		if remaining <= 0 {
			break
		}
		if len(page) > remaining {
			page = page[:remaining]
		}
		text.WriteString(fmt.Sprintf("--- page %d ---\n%s\n", idx+1, page))
	}

	return fmt.Sprintf(`You extract fields from invoice text.
Return a strict JSON object: {"fields":[{"name":string,"value":string,"confidence":number}]}.
Allowed names: %s.
confidence is a number from 0 to 1. Omit fields that are not present.
No markdown, no extra keys.

Invoice text:
%s`, strings.Join(names, ", "), text.String())
}
