package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("POLICY_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30, cfg.Delinquency.NonPerformingAfterDays)
	assert.Equal(t, 180, cfg.Delinquency.FullProvisionAfterDays)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.GaugeInterval)
	assert.False(t, cfg.AutoClassify)
	assert.Equal(t, "dev-secret-change-in-production", cfg.JWTSecret)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POLICY_FILE", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("POLICY_FILE", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("AUTO_CLASSIFY", "true")
	t.Setenv("NON_PERFORMING_AFTER_DAYS", "60")
	t.Setenv("FULL_PROVISION_AFTER_DAYS", "360")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AutoClassify)
	assert.Equal(t, 60, cfg.Delinquency.NonPerformingAfterDays)
	assert.Equal(t, 360, cfg.Delinquency.FullProvisionAfterDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
currency: HNL
auto_classify: true
delinquency:
  non_performing_after_days: 45
`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("POLICY_FILE", path)
	t.Setenv("AUTO_CLASSIFY", "false")
	t.Setenv("NON_PERFORMING_AFTER_DAYS", "")
	t.Setenv("FULL_PROVISION_AFTER_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "HNL", cfg.Currency)
	assert.True(t, cfg.AutoClassify)
	assert.Equal(t, 45, cfg.Delinquency.NonPerformingAfterDays)
	assert.Equal(t, 180, cfg.Delinquency.FullProvisionAfterDays)
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("NON_PERFORMING_AFTER_DAYS", "200")
	t.Setenv("FULL_PROVISION_AFTER_DAYS", "100")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingPolicyFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("POLICY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
