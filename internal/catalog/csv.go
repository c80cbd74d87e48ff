package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/textnorm"
)

const utf8BOM = "\ufeff"

// table is a parsed CSV file addressed by header name
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable parses a header-first CSV file. Quoted fields may contain the delimiter.
// Every name in required must be present in the header.
func readTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrCatalogLoad, path, err)
	}
	defer f.Close()

	t, err := parseTable(f, required...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parseTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", domain.ErrCatalogLoad)
		}
		return nil, fmt.Errorf("%w: header: %v", domain.ErrCatalogLoad, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		columns[textnorm.Normalize(h)] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %w: %q", domain.ErrCatalogLoad, domain.ErrMissingColumn, name)
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
		}
		rows = append(rows, record)
	}

	return &table{columns: columns, rows: rows}, nil
}

// get returns the normalised cell of row under column, or "" when either is absent
func (t *table) get(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return textnorm.Normalize(row[idx])
}
