package config

import (
	"testing"
	"time"

	"gosigma/domain/doe"
	"gosigma/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "PORT", "REQUEST_TIMEOUT", "DEFAULT_SIGMA_LEVEL",
		"HISTOGRAM_BINS", "ANOVA_PVALUE_MODE", "BATCH_CONCURRENCY", "GOSIGMA_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 3.0, cfg.Analysis.DefaultSigmaLevel)
	assert.Equal(t, 20, cfg.Analysis.HistogramBins)
	assert.Equal(t, doe.PValueLegacy, cfg.Analysis.PValueMode)
	assert.Equal(t, 4, cfg.Analysis.BatchConcurrency)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/gosigma?sslmode=disable")
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("DEFAULT_SIGMA_LEVEL", "2.5")
	t.Setenv("ANOVA_PVALUE_MODE", "exact")
	t.Setenv("BATCH_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 2.5, cfg.Analysis.DefaultSigmaLevel)
	assert.Equal(t, doe.PValueExact, cfg.Analysis.PValueMode)
	assert.Equal(t, 4, cfg.Analysis.BatchConcurrency)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"DEFAULT_SIGMA_LEVEL": "-1",
		"HISTOGRAM_BINS":      "0",
		"ANOVA_PVALUE_MODE":   "bayesian",
		"BATCH_CONCURRENCY":   "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
