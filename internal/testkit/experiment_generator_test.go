package testkit

import (
	"testing"
)

func TestGenerate_ShapeAndSchema(t *testing.T) {
	cfg := DefaultExperimentConfig()
	ds, err := NewExperimentGenerator(cfg).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ds.Len() != cfg.SampleCount {
		t.Fatalf("want %d units, got %d", cfg.SampleCount, ds.Len())
	}
	want := []string{"account_age", "is_power_user"}
	for i, name := range want {
		if ds.Schema.ConfounderNames[i] != name {
			t.Fatalf("schema %v, want %v", ds.Schema.ConfounderNames, want)
		}
	}
	for _, u := range ds.Units {
		if u.Confounders[0] < 1 || u.Confounders[0] > 60 {
			t.Fatalf("account age %v outside [1, 60]", u.Confounders[0])
		}
		if p := u.Confounders[1]; p != 0 && p != 1 {
			t.Fatalf("power-user flag %v is not binary", p)
		}
	}
}

func TestGenerate_TreatmentPrevalenceNearThirtyPercent(t *testing.T) {
	cfg := DefaultExperimentConfig()
	cfg.SampleCount = 5000
	ds, err := NewExperimentGenerator(cfg).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	prevalence := float64(ds.TreatedCount()) / float64(ds.Len())
	if prevalence < 0.2 || prevalence > 0.4 {
		t.Fatalf("treatment prevalence %v outside [0.2, 0.4]", prevalence)
	}
}

func TestGenerate_DeterministicForFixedSeed(t *testing.T) {
	cfg := DefaultExperimentConfig()
	a, err := NewExperimentGenerator(cfg).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := NewExperimentGenerator(cfg).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Hash() != b.Hash() {
		t.Fatal("same seed produced different datasets")
	}

	cfg.Seed = 7
	c, err := NewExperimentGenerator(cfg).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Hash() == c.Hash() {
		t.Fatal("different seeds produced identical datasets")
	}
}

func TestGenerateDegenerate_ConstantConfounders(t *testing.T) {
	cfg := DefaultExperimentConfig()
	cfg.SampleCount = 100
	ds, err := NewExperimentGenerator(cfg).GenerateDegenerate()
	if err != nil {
		t.Fatalf("GenerateDegenerate: %v", err)
	}
	first := ds.Units[0].Confounders
	for _, u := range ds.Units {
		for j, v := range u.Confounders {
			if v != first[j] {
				t.Fatal("degenerate dataset should have constant confounders")
			}
		}
	}
	if ds.TreatedCount() == 0 || ds.TreatedCount() == ds.Len() {
		t.Fatal("degenerate dataset still needs both treated and control units")
	}
}

func TestGenerate_RejectsNonPositiveSampleCount(t *testing.T) {
	cfg := DefaultExperimentConfig()
	cfg.SampleCount = 0
	if _, err := NewExperimentGenerator(cfg).Generate(); err == nil {
		t.Fatal("expected an error for zero sample count")
	}
}
