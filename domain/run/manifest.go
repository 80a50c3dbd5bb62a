package run

import (
	"fmt"

	"gocausal/domain/causal"
	"gocausal/domain/core"
)

// Fingerprint ensures deterministic replay: two runs with the same
// fingerprint must produce identical estimates and refutation verdicts.
type Fingerprint struct {
	DatasetHash core.Hash `json:"dataset_hash"`
	OptionsHash core.Hash `json:"options_hash"`
	Seed        int64     `json:"seed"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"`
}

// NewFingerprint creates a fingerprint from the determinism parameters.
func NewFingerprint(datasetHash core.Hash, opts causal.Options, codeVersion string) Fingerprint {
	optsHash := hashOptions(opts)
	data := fmt.Sprintf("dataset:%s|options:%s|seed:%d|code:%s",
		datasetHash, optsHash, opts.Seed, codeVersion)
	return Fingerprint{
		DatasetHash: datasetHash,
		OptionsHash: optsHash,
		Seed:        opts.Seed,
		CodeVersion: codeVersion,
		Fingerprint: core.HashString(data),
	}
}

func hashOptions(o causal.Options) core.Hash {
	data := fmt.Sprintf("caliper:%.12g|policy:%s|k:%d|min:%d|maxunmatched:%.12g|conf:%.12g|placebo:%.12g|cc:%.12g",
		o.Caliper, o.Policy, o.KNeighbors, o.MinMatches,
		o.MaxUnmatchedFraction, o.ConfidenceLevel,
		o.PlaceboTolerance, o.CommonCauseTolerance)
	return core.HashString(data)
}

// Matches reports whether two fingerprints identify the same run inputs.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.Fingerprint == other.Fingerprint
}
