package excel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/medref-rag/internal/core/ports"
)

// Dictionary reads synonym clusters from a workbook: one cluster per row,
// one alias per cell. The first row is a header.
type Dictionary struct {
	store ports.ArtifactStore
	name  string
	sheet string
}

// New builds a dictionary over the named artifact. An empty sheet means the
// first sheet of the workbook.
func New(store ports.ArtifactStore, name, sheet string) *Dictionary {
	return &Dictionary{store: store, name: name, sheet: strings.TrimSpace(sheet)}
}

func (d *Dictionary) LoadSynonyms(ctx context.Context) ([][]string, error) {
	reader, err := d.store.Open(ctx, d.name)
	if err != nil {
		return nil, fmt.Errorf("open synonyms workbook: %w", err)
	}
	defer reader.Close()

	book, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse synonyms workbook %s: %w", d.name, err)
	}
	defer book.Close()

	sheet := d.sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	clusters := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cluster := make([]string, 0, len(row))
		for _, cell := range row {
			// a cell may hold several aliases separated by ';'
			for _, alias := range strings.Split(cell, ";") {
				if alias = strings.TrimSpace(alias); alias != "" {
					cluster = append(cluster, alias)
				}
			}
		}
		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters, nil
}
