package excel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type bytesStore map[string][]byte

func (s bytesStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	raw, ok := s[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s bytesStore) Save(_ context.Context, name string, r io.Reader) error {
	raw, err := io.ReadAll(r)
	s[name] = raw
	return err
}

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()
	if sheet != "Sheet1" {
		_, err := book.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, book.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))
	return buf.Bytes()
}

func TestLoadSynonymsSkipsHeaderAndSingletons(t *testing.T) {
	store := bytesStore{"sinonimos.xlsx": workbook(t, "Sheet1", [][]any{
		{"termo", "sinonimos"},
		{"PCR", "parada cardiorrespiratória; RCP"},
		{"sozinho"},
		{"", "  "},
		{"IAM", "infarto agudo do miocárdio"},
	})}

	clusters, err := New(store, "sinonimos.xlsx", "").LoadSynonyms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"PCR", "parada cardiorrespiratória", "RCP"},
		{"IAM", "infarto agudo do miocárdio"},
	}, clusters)
}

func TestLoadSynonymsReadsNamedSheet(t *testing.T) {
	store := bytesStore{"s.xlsx": workbook(t, "emergencia", [][]any{
		{"a", "b"},
		{"AVC", "acidente vascular cerebral"},
	})}

	clusters, err := New(store, "s.xlsx", "emergencia").LoadSynonyms(context.Background())
	require.NoError(t, err)
	assert.Len(t, clusters, 1)

	_, err = New(store, "s.xlsx", "missing").LoadSynonyms(context.Background())
	assert.Error(t, err)
}

func TestLoadSynonymsRejectsGarbage(t *testing.T) {
	store := bytesStore{"bad.xlsx": []byte("not a workbook")}
	_, err := New(store, "bad.xlsx", "").LoadSynonyms(context.Background())
	assert.Error(t, err)

	_, err = New(store, "absent.xlsx", "").LoadSynonyms(context.Background())
	assert.Error(t, err)
}
