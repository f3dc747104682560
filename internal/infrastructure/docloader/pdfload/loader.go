package pdfload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

const pdfMagic = "%PDF-"

// Loader extracts per-page plain text from PDF bytes. Loading is pure: the
// same bytes always produce the same pages, so repeated extraction of one
// document is deterministic at this stage.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(ctx context.Context, data []byte, contentType string) ([]string, error) {
	if err := checkContentType(contentType); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte(pdfMagic)) {
		return nil, domain.WrapError(domain.ErrCorruptDocument, "load pdf",
			errors.New("missing pdf header"))
	}

	reader, err := openReader(data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorruptDocument, "load pdf", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, domain.WrapError(domain.ErrCorruptDocument, "load pdf",
			errors.New("document has no pages"))
	}

	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(reader, i)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCorruptDocument, "load pdf",
				fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, normalize(text))
	}
	return pages, nil
}

func checkContentType(contentType string) error {
	media := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		media = parsed
	}
	switch strings.ToLower(media) {
	case "application/pdf", "application/x-pdf":
		return nil
	}
	return domain.WrapError(domain.ErrUnsupportedFormat, "load document",
		fmt.Errorf("content type %q, only PDF is accepted", contentType))
}

// openReader isolates the parser's panics on malformed files so they surface
// as corrupt-document errors instead of killing the worker.
func openReader(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(reader *pdf.Reader, number int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()
	page := reader.Page(number)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// normalize collapses runs of whitespace within lines and trims the page so
// downstream pattern matching sees a stable shape regardless of the PDF
// producer's layout quirks.
func normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
