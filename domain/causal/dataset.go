package causal

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gocausal/domain/core"
)

// Unit is one observed row: a user or session with a binary treatment flag,
// a continuous outcome, and the confounder vector in schema order.
type Unit struct {
	ID          string    `json:"id"`
	Treatment   bool      `json:"treatment"`
	Outcome     float64   `json:"outcome"`
	Confounders []float64 `json:"confounders"`
}

// Schema fixes the confounder layout for the lifetime of one engine run.
// Names, order, and encoding must be identical across treated and control
// populations.
type Schema struct {
	ConfounderNames []string `json:"confounder_names"`
}

// Index returns the position of a confounder by name.
func (s Schema) Index(name string) (int, error) {
	for i, n := range s.ConfounderNames {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
}

// Dataset is the immutable input the engine consumes. The engine never
// mutates it; refuters and segment analyses derive independent copies.
type Dataset struct {
	Schema Schema `json:"schema"`
	Units  []Unit `json:"units"`
}

// NewDataset validates the dataset contract: every unit carries a finite
// outcome and a confounder vector matching the schema width.
func NewDataset(schema Schema, units []Unit) (*Dataset, error) {
	width := len(schema.ConfounderNames)
	for _, u := range units {
		if len(u.Confounders) != width {
			return nil, fmt.Errorf("%w: unit %s has %d confounders, schema declares %d",
				core.ErrSchemaMismatch, u.ID, len(u.Confounders), width)
		}
		if math.IsNaN(u.Outcome) || math.IsInf(u.Outcome, 0) {
			return nil, fmt.Errorf("%w: unit %s outcome", core.ErrMissingValue, u.ID)
		}
		for j, c := range u.Confounders {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("%w: unit %s confounder %q",
					core.ErrMissingValue, u.ID, schema.ConfounderNames[j])
			}
		}
	}
	return &Dataset{Schema: schema, Units: units}, nil
}

// Len returns the number of units.
func (d *Dataset) Len() int { return len(d.Units) }

// TreatedCount returns the number of treated units.
func (d *Dataset) TreatedCount() int {
	n := 0
	for _, u := range d.Units {
		if u.Treatment {
			n++
		}
	}
	return n
}

// Outcomes returns a copy of the outcome column.
func (d *Dataset) Outcomes() []float64 {
	out := make([]float64, len(d.Units))
	for i, u := range d.Units {
		out[i] = u.Outcome
	}
	return out
}

// ConfounderMatrix returns the confounder columns as a row-major matrix copy.
func (d *Dataset) ConfounderMatrix() [][]float64 {
	rows := make([][]float64, len(d.Units))
	for i, u := range d.Units {
		rows[i] = append([]float64(nil), u.Confounders...)
	}
	return rows
}

// Clone deep-copies the dataset so perturbations never touch the original.
func (d *Dataset) Clone() *Dataset {
	units := make([]Unit, len(d.Units))
	for i, u := range d.Units {
		units[i] = Unit{
			ID:          u.ID,
			Treatment:   u.Treatment,
			Outcome:     u.Outcome,
			Confounders: append([]float64(nil), u.Confounders...),
		}
	}
	names := append([]string(nil), d.Schema.ConfounderNames...)
	return &Dataset{Schema: Schema{ConfounderNames: names}, Units: units}
}

// WithTreatment derives a copy whose treatment column is replaced. The
// replacement must cover every unit.
func (d *Dataset) WithTreatment(treatment []bool) (*Dataset, error) {
	if len(treatment) != len(d.Units) {
		return nil, fmt.Errorf("%w: treatment column length %d, dataset has %d units",
			core.ErrSchemaMismatch, len(treatment), len(d.Units))
	}
	out := d.Clone()
	for i := range out.Units {
		out.Units[i].Treatment = treatment[i]
	}
	return out, nil
}

// WithConfounder derives a copy with one additional confounder column
// appended to the schema.
func (d *Dataset) WithConfounder(name string, column []float64) (*Dataset, error) {
	if len(column) != len(d.Units) {
		return nil, fmt.Errorf("%w: column %q length %d, dataset has %d units",
			core.ErrSchemaMismatch, name, len(column), len(d.Units))
	}
	out := d.Clone()
	out.Schema.ConfounderNames = append(out.Schema.ConfounderNames, name)
	for i := range out.Units {
		out.Units[i].Confounders = append(out.Units[i].Confounders, column[i])
	}
	return out, nil
}

// WithoutConfounder derives a copy with the named confounder column removed.
// Used by segment analysis to avoid collinearity with the segment variable.
func (d *Dataset) WithoutConfounder(name string) (*Dataset, error) {
	idx, err := d.Schema.Index(name)
	if err != nil {
		return nil, err
	}
	out := d.Clone()
	out.Schema.ConfounderNames = append(
		out.Schema.ConfounderNames[:idx], out.Schema.ConfounderNames[idx+1:]...)
	for i := range out.Units {
		c := out.Units[i].Confounders
		out.Units[i].Confounders = append(c[:idx], c[idx+1:]...)
	}
	return out, nil
}

// Subset derives a copy containing only the units the predicate keeps.
func (d *Dataset) Subset(keep func(Unit) bool) *Dataset {
	out := &Dataset{Schema: Schema{ConfounderNames: append([]string(nil), d.Schema.ConfounderNames...)}}
	for _, u := range d.Units {
		if keep(u) {
			out.Units = append(out.Units, Unit{
				ID:          u.ID,
				Treatment:   u.Treatment,
				Outcome:     u.Outcome,
				Confounders: append([]float64(nil), u.Confounders...),
			})
		}
	}
	return out
}

// Hash computes a deterministic fingerprint of the dataset contents,
// independent of unit ordering.
func (d *Dataset) Hash() core.Hash {
	lines := make([]string, 0, len(d.Units)+1)
	lines = append(lines, "schema:"+strings.Join(d.Schema.ConfounderNames, ","))
	for _, u := range d.Units {
		var b strings.Builder
		fmt.Fprintf(&b, "%s|%t|%.12g", u.ID, u.Treatment, u.Outcome)
		for _, c := range u.Confounders {
			fmt.Fprintf(&b, "|%.12g", c)
		}
		lines = append(lines, b.String())
	}
	sort.Strings(lines[1:])
	return core.HashString(strings.Join(lines, "\n"))
}
