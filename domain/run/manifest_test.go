package run

import (
	"testing"

	"gocausal/domain/causal"
	"gocausal/domain/core"
)

func TestNewFingerprint_StableForSameInputs(t *testing.T) {
	dsHash := core.HashString("dataset-a")
	opts := causal.DefaultOptions()

	a := NewFingerprint(dsHash, opts, "gocausal/1")
	b := NewFingerprint(dsHash, opts, "gocausal/1")
	if !a.Matches(b) {
		t.Fatal("same inputs produced different fingerprints")
	}
}

func TestNewFingerprint_ChangesWithInputs(t *testing.T) {
	dsHash := core.HashString("dataset-a")
	opts := causal.DefaultOptions()
	base := NewFingerprint(dsHash, opts, "gocausal/1")

	other := opts
	other.Caliper = 0.2
	if base.Matches(NewFingerprint(dsHash, other, "gocausal/1")) {
		t.Fatal("caliper change should change the fingerprint")
	}

	seeded := opts
	seeded.Seed = 7
	if base.Matches(NewFingerprint(dsHash, seeded, "gocausal/1")) {
		t.Fatal("seed change should change the fingerprint")
	}

	if base.Matches(NewFingerprint(core.HashString("dataset-b"), opts, "gocausal/1")) {
		t.Fatal("dataset change should change the fingerprint")
	}
	if base.Matches(NewFingerprint(dsHash, opts, "gocausal/2")) {
		t.Fatal("code version change should change the fingerprint")
	}
}
