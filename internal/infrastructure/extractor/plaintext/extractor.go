// Package plaintext reads text volumes where pages are separated by form
// feeds, the layout written by pdftotext.
package plaintext

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

const pageBreak = "\f"

// ReadPages numbers the pages of r starting at firstPage. A trailing form
// feed does not start a page.
func ReadPages(r io.Reader, name string, firstPage int) ([]domain.Page, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text volume %s: %w", name, err)
	}
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrArtifactUnreadable, "read text volume",
			fmt.Errorf("%s is not valid UTF-8", name))
	}

	body := strings.TrimSuffix(string(raw), pageBreak)
	if strings.TrimSpace(body) == "" {
		return []domain.Page{}, nil
	}
	parts := strings.Split(body, pageBreak)
	pages := make([]domain.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, domain.Page{Number: firstPage + i, Text: strings.TrimSpace(part)})
	}
	return pages, nil
}
