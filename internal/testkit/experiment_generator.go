// Package testkit simulates production logs for a SaaS feature-adoption
// experiment. The generated data is deliberately confounded: account age
// and power-user status drive both adoption and spend, so the naive
// treated-minus-control gap overstates the true causal uplift.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gocausal/domain/causal"
)

// ExperimentConfig configures the synthetic experiment generator.
type ExperimentConfig struct {
	SampleCount int     `json:"sample_count"`
	TrueEffect  float64 `json:"true_effect"`
	// PowerUserShare is the fraction of power users in the population.
	PowerUserShare float64 `json:"power_user_share"`
	NoiseSigma     float64 `json:"noise_sigma"`
	Seed           int64   `json:"seed"`
}

// DefaultExperimentConfig reproduces the reference scenario: 1000 units,
// ~30% treatment prevalence, a true $10 uplift, and confounding strong
// enough to push the naive gap near $14.50.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		SampleCount:    1000,
		TrueEffect:     10.0,
		PowerUserShare: 0.3,
		NoiseSigma:     5.0,
		Seed:           42,
	}
}

// ExperimentGenerator produces confounded feature-adoption datasets.
type ExperimentGenerator struct {
	config ExperimentConfig
	rng    *rand.Rand
}

// NewExperimentGenerator creates a generator with its own seeded stream.
func NewExperimentGenerator(config ExperimentConfig) *ExperimentGenerator {
	return &ExperimentGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the dataset:
//
//	account_age   ~ Uniform(1, 60) months
//	is_power_user ~ Bernoulli(PowerUserShare)
//	P(adopt)      = sigmoid(-2.2 + age/30 + 1.1*power)
//	spend         = 0.3*age + 8*power + TrueEffect*adopt + N(0, NoiseSigma)
//
// Older accounts and power users both adopt more and spend more, which is
// exactly the selection bias the engine must correct for.
func (g *ExperimentGenerator) Generate() (*causal.Dataset, error) {
	if g.config.SampleCount <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", g.config.SampleCount)
	}

	units := make([]causal.Unit, g.config.SampleCount)
	for i := range units {
		age := 1 + g.rng.Float64()*59
		power := 0.0
		if g.rng.Float64() < g.config.PowerUserShare {
			power = 1.0
		}

		pAdopt := 1 / (1 + math.Exp(-(-2.2 + age/30 + 1.1*power)))
		adopted := g.rng.Float64() < pAdopt

		spend := 0.3*age + 8*power + g.rng.NormFloat64()*g.config.NoiseSigma
		if adopted {
			spend += g.config.TrueEffect
		}

		units[i] = causal.Unit{
			ID:          fmt.Sprintf("user_%05d", i+1),
			Treatment:   adopted,
			Outcome:     spend,
			Confounders: []float64{age, power},
		}
	}

	return causal.NewDataset(causal.Schema{
		ConfounderNames: []string{"account_age", "is_power_user"},
	}, units)
}

// GenerateDegenerate builds a dataset whose confounders carry no variance,
// for exercising the degenerate-model abort path.
func (g *ExperimentGenerator) GenerateDegenerate() (*causal.Dataset, error) {
	if g.config.SampleCount <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", g.config.SampleCount)
	}
	units := make([]causal.Unit, g.config.SampleCount)
	for i := range units {
		adopted := g.rng.Float64() < 0.3
		spend := 50 + g.rng.NormFloat64()*g.config.NoiseSigma
		if adopted {
			spend += g.config.TrueEffect
		}
		units[i] = causal.Unit{
			ID:          fmt.Sprintf("user_%05d", i+1),
			Treatment:   adopted,
			Outcome:     spend,
			Confounders: []float64{12, 0},
		}
	}
	return causal.NewDataset(causal.Schema{
		ConfounderNames: []string{"account_age", "is_power_user"},
	}, units)
}
