package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/convreg/convreg/internal/application/converters"
	"github.com/convreg/convreg/internal/domain"
)

// CSVToJSON converts text/csv to application/json. The first CSV row
// is treated as the header; each remaining row becomes an object.
func CSVToJSON() converters.Converter {
	return converters.Converter{
		Name: "csv-to-json",
		From: []string{"text/csv"},
		To:   "application/json",
		Fn: func(ctx context.Context, src domain.Dataset) (domain.Dataset, error) {
			data, err := src.Bytes(ctx)
			if err != nil {
				return domain.Dataset{}, err
			}

			reader := csv.NewReader(bytes.NewReader(data))
			rows, err := reader.ReadAll()
			if err != nil {
				return domain.Dataset{}, fmt.Errorf("failed to parse CSV: %w", err)
			}
			if len(rows) == 0 {
				return domain.NewBytesDataset(src.URL(), "application/json", []byte("[]")), nil
			}

			header := rows[0]
			records := make([]map[string]string, 0, len(rows)-1)
			for _, row := range rows[1:] {
				record := make(map[string]string, len(header))
				for i, field := range row {
					if i < len(header) {
						record[header[i]] = field
					}
				}
				records = append(records, record)
			}

			out, err := json.Marshal(records)
			if err != nil {
				return domain.Dataset{}, fmt.Errorf("failed to encode JSON: %w", err)
			}

			return domain.NewBytesDataset(src.URL(), "application/json", out), nil
		},
	}
}
