package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/medref-rag/internal/core/domain"
	"github.com/kirillkom/medref-rag/internal/infrastructure/extractor/plaintext"
)

// Volume is one file of the textbook and the book page number of its first
// page. A ".txt" volume is read as pdftotext output.
type Volume struct {
	Path      string
	FirstPage int
}

// ParseVolume reads "path:firstPage"; a missing offset means page 1.
func ParseVolume(raw string) (Volume, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Volume{}, domain.WrapError(domain.ErrInvalidInput, "parse volume", fmt.Errorf("empty volume"))
	}
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 {
		return Volume{Path: raw, FirstPage: 1}, nil
	}
	first, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		// a colon inside the path, no offset
		return Volume{Path: raw, FirstPage: 1}, nil
	}
	if first < 1 {
		return Volume{}, domain.WrapError(domain.ErrInvalidInput, "parse volume", fmt.Errorf("first page %d < 1", first))
	}
	return Volume{Path: raw[:idx], FirstPage: first}, nil
}

// DefaultVolumes is the three-file split of the reference edition.
func DefaultVolumes(dir string) []Volume {
	dir = strings.TrimRight(dir, "/")
	return []Volume{
		{Path: dir + "/ABRAMEDE 0001-0900.pdf", FirstPage: 1},
		{Path: dir + "/ABRAMEDE 0901-1800.pdf", FirstPage: 901},
		{Path: dir + "/ABRAMEDE 1801-2412.pdf", FirstPage: 1801},
	}
}

type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns every page of every volume with trimmed text. Pages whose
// text cannot be decoded are kept with empty text. A missing volume is
// logged and skipped.
func (e *Extractor) Extract(ctx context.Context, volumes []Volume) ([]domain.Page, error) {
	var pages []domain.Page
	for _, v := range volumes {
		got, err := e.extractVolume(ctx, v)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("pdf_volume_skipped", "path", v.Path, "error", err)
			continue
		}
		pages = append(pages, got...)
	}
	return pages, nil
}

func (e *Extractor) extractVolume(ctx context.Context, v Volume) ([]domain.Page, error) {
	if strings.EqualFold(filepath.Ext(v.Path), ".txt") {
		return e.extractText(v)
	}
	file, reader, err := pdf.Open(v.Path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", v.Path, err)
	}
	defer file.Close()

	total := reader.NumPage()
	pages := make([]domain.Page, 0, total)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		number := v.FirstPage + i - 1
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			for _, name := range page.Fonts() {
				if _, ok := fonts[name]; !ok {
					f := page.Font(name)
					fonts[name] = &f
				}
			}
			plain, err := page.GetPlainText(fonts)
			if err != nil {
				e.logger.Warn("pdf_page_unreadable", "path", v.Path, "page", number, "error", err)
			} else {
				text = strings.TrimSpace(plain)
			}
		}
		pages = append(pages, domain.Page{Number: number, Text: text})
		if number%100 == 0 {
			e.logger.Debug("pdf_extract_progress", "path", v.Path, "page", number)
		}
	}
	e.logger.Info("pdf_volume_extracted", "path", v.Path, "pages", total, "first_page", v.FirstPage)
	return pages, nil
}

func (e *Extractor) extractText(v Volume) ([]domain.Page, error) {
	f, err := os.Open(v.Path)
	if err != nil {
		return nil, fmt.Errorf("open text volume %s: %w", v.Path, err)
	}
	defer f.Close()

	pages, err := plaintext.ReadPages(f, v.Path, v.FirstPage)
	if err != nil {
		return nil, err
	}
	e.logger.Info("text_volume_extracted", "path", v.Path, "pages", len(pages), "first_page", v.FirstPage)
	return pages, nil
}
