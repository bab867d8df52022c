package currency

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ticketcore/promoengine/pkg/money"
)

const expectedColumns = 7

// LoadMetaCSV loads currency metadata from a CSV file. An empty path loads the
// embedded table.
func LoadMetaCSV(path string) ([]Meta, error) {
	if path == "" {
		return parseMetaCSV(strings.NewReader(metaCSV))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parseMetaCSV(f)
}

func parseMetaCSV(r io.Reader) ([]Meta, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) < expectedColumns {
		return nil, fmt.Errorf("invalid CSV format: expected at least %d columns", expectedColumns)
	}

	metas := make([]Meta, 0, len(records)-1)
	for i, rec := range records[1:] {
		// Skip malformed and inactive rows
		if len(rec) < expectedColumns || !strings.EqualFold(rec[6], "true") {
			continue
		}
		code := money.Code(strings.TrimSpace(rec[0]))
		if !code.IsValid() {
			return nil, fmt.Errorf("row %d: %w: %q", i+2, money.ErrInvalidCurrency, rec[0])
		}
		decimals, err := strconv.Atoi(rec[3])
		if err != nil || decimals < 0 || decimals > 4 {
			return nil, fmt.Errorf("row %d: invalid decimals %q", i+2, rec[3])
		}
		metas = append(metas, Meta{
			Code:     code,
			Name:     rec[1],
			Symbol:   rec[2],
			Decimals: decimals,
			Country:  rec[4],
			Region:   rec[5],
		})
	}
	return metas, nil
}
