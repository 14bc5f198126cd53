// ABOUTME: CSV importer replacing the rate dataset snapshot in the store
// ABOUTME: Maps both snake_case headers and the upstream rate sheet's column names

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/caribefreight/regina-gateway/internal/config"
	"github.com/caribefreight/regina-gateway/internal/rates"
	"github.com/caribefreight/regina-gateway/internal/store"
)

// columnAliases maps recognized header spellings onto record fields. The
// upstream rate sheet uses Spanish column names; exports from other tools
// tend to use snake_case.
var columnAliases = map[string]string{
	"pol":                  "pol",
	"pod":                  "pod",
	"cost":                 "cost",
	"total flete y origen": "cost",
	"fdo":                  "fdo",
	"fdd":                  "fdd",
	"shipping_line":        "shipping_line",
	"línea":                "shipping_line",
	"linea":                "shipping_line",
	"validity":             "validity",
	"fecha fin flete":      "validity",
	"container_type":       "container_type",
	"tipo cont":            "container_type",
	"empty_pickup":         "empty_pickup",
	"empty pickup":         "empty_pickup",
}

func runImportRates(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: regina-gateway import-rates <csv-file>")
	}
	csvPath := os.Args[2]

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	records, err := readRatesCSV(csvPath)
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if err := s.ReplaceRates(ctx, records); err != nil {
		return fmt.Errorf("replacing rate dataset: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Imported %d rate records from %s\n", len(records), csvPath)
	return nil
}

// readRatesCSV parses the CSV into rate records. The first row must be a
// header; unrecognized columns are ignored.
func readRatesCSV(path string) ([]rates.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	fields := make(map[int]string)
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if field, ok := columnAliases[key]; ok {
			fields[i] = field
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no recognized columns in header: %v", rows[0])
	}

	records := make([]rates.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var r rates.Record
		for i, value := range row {
			value = strings.TrimSpace(value)
			switch fields[i] {
			case "pol":
				r.POL = value
			case "pod":
				r.POD = value
			case "cost":
				r.Cost = value
			case "fdo":
				r.FreeDaysPOL = value
			case "fdd":
				r.FreeDaysPOD = value
			case "shipping_line":
				r.ShippingLine = value
			case "validity":
				r.Validity = value
			case "container_type":
				r.ContainerType = value
			case "empty_pickup":
				r.EmptyPickup = value
			}
		}
		records = append(records, r)
	}
	return records, nil
}
