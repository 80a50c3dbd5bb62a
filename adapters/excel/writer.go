package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gocausal/domain/causal"
)

// WriteCSV writes a dataset in the contract column layout, header first.
// Used by the CLI generate command to hand synthetic experiments to
// external tools.
func WriteCSV(filePath string, ds *causal.Dataset, mapping Mapping) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{mapping.IDColumn}
	header = append(header, ds.Schema.ConfounderNames...)
	header = append(header, mapping.TreatmentColumn, mapping.OutcomeColumn)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, u := range ds.Units {
		row := []string{u.ID}
		for _, c := range u.Confounders {
			row = append(row, strconv.FormatFloat(c, 'g', -1, 64))
		}
		treatment := "0"
		if u.Treatment {
			treatment = "1"
		}
		row = append(row, treatment, strconv.FormatFloat(u.Outcome, 'g', -1, 64))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
