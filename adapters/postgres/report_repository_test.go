package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocausal/domain/causal"
	"gocausal/domain/core"
)

// Integration test; requires a reachable database, e.g.
// TEST_DATABASE_URL=postgres://localhost/gocausal_test?sslmode=disable
func TestReportRepository_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	repo := NewReportRepository(db)
	report := &causal.AnalysisReport{
		ID:            core.AnalysisID(core.NewID()),
		DatasetHash:   core.HashString("ds"),
		Fingerprint:   core.HashString("fp"),
		Options:       causal.DefaultOptions(),
		NaiveEstimate: 14.5,
		Estimate:      causal.EstimateResult{Estimand: causal.EstimandATT, Estimate: 10.02},
		Verdict:       causal.VerdictRobust,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	require.NoError(t, repo.Save(ctx, report))

	loaded, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Fingerprint, loaded.Fingerprint)
	assert.Equal(t, report.Estimate.Estimate, loaded.Estimate.Estimate)
	assert.Equal(t, report.Verdict, loaded.Verdict)

	// Upsert replaces the payload for the same ID.
	report.Verdict = causal.VerdictFragile
	require.NoError(t, repo.Save(ctx, report))
	loaded, err = repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, causal.VerdictFragile, loaded.Verdict)

	recent, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)

	_, err = repo.GetByID(ctx, core.AnalysisID("missing"))
	assert.ErrorIs(t, err, core.ErrAnalysisNotFound)
}
