// Package excel loads datasets satisfying the engine contract from
// Excel workbooks or CSV files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gocausal/domain/causal"
)

// Mapping binds file columns to the dataset contract. IDColumn may be
// blank, in which case row numbers become unit IDs.
type Mapping struct {
	IDColumn          string
	TreatmentColumn   string
	OutcomeColumn     string
	ConfounderColumns []string
}

// DataReader reads Excel and CSV files into a Dataset.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	mapping  Mapping
}

// NewDataReader creates a reader; file type is inferred from the extension.
func NewDataReader(filePath string, mapping Mapping) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, mapping: mapping}
}

// Load reads the file and applies the column mapping.
func (r *DataReader) Load(ctx context.Context) (*causal.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	case "xlsx":
		rows, err = r.readExcel()
	default:
		err = fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	return r.toDataset(rows)
}

func (r *DataReader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) toDataset(rows [][]string) (*causal.Dataset, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file has no data rows")
	}

	header := rows[0]
	col := func(name string) (int, error) {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("column %q not found in header", name)
	}

	treatIdx, err := col(r.mapping.TreatmentColumn)
	if err != nil {
		return nil, err
	}
	outcomeIdx, err := col(r.mapping.OutcomeColumn)
	if err != nil {
		return nil, err
	}
	idIdx := -1
	if r.mapping.IDColumn != "" {
		if idIdx, err = col(r.mapping.IDColumn); err != nil {
			return nil, err
		}
	}
	confIdx := make([]int, len(r.mapping.ConfounderColumns))
	for i, name := range r.mapping.ConfounderColumns {
		if confIdx[i], err = col(name); err != nil {
			return nil, err
		}
	}

	units := make([]causal.Unit, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		treatment, err := parseBool(cell(row, treatIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: treatment: %w", rowNum+2, err)
		}
		outcome, err := parseFloat(cell(row, outcomeIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: outcome: %w", rowNum+2, err)
		}
		confounders := make([]float64, len(confIdx))
		for i, ci := range confIdx {
			if confounders[i], err = parseFloat(cell(row, ci)); err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", rowNum+2, r.mapping.ConfounderColumns[i], err)
			}
		}

		id := fmt.Sprintf("row_%06d", rowNum+1)
		if idIdx >= 0 {
			id = strings.TrimSpace(cell(row, idIdx))
		}
		units = append(units, causal.Unit{
			ID:          id,
			Treatment:   treatment,
			Outcome:     outcome,
			Confounders: confounders,
		})
	}

	return causal.NewDataset(causal.Schema{
		ConfounderNames: append([]string(nil), r.mapping.ConfounderColumns...),
	}, units)
}

// cell tolerates short rows: Excel drops trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n":
		return false, nil
	case "":
		return false, fmt.Errorf("empty boolean value")
	default:
		return false, fmt.Errorf("unrecognized boolean value %q", s)
	}
}
