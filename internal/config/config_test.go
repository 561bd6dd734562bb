package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty directory so no config.yaml is found, and
// clears credential variables that may leak in from the host.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	for _, name := range []string{
		"LINKEDIN_SESSION_COOKIE", "ENRICH_LINKEDIN_SESSION_COOKIE",
		"SERPER_KEY", "ENRICH_SERPER_KEY",
	} {
		t.Setenv(name, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, 5, cfg.Batch.CheckpointEvery)
	assert.Equal(t, 2*time.Second, cfg.Batch.Delay())
	assert.Equal(t, 4, cfg.Search.MaxContacts)
	assert.Equal(t, 3, cfg.Search.MaxRetries)
	assert.Equal(t, 1000, cfg.Search.BackoffInitialMs)
	assert.Equal(t, 5, cfg.Search.ResultsPerQuery)
	assert.Empty(t, cfg.Search.RolesFile)
	assert.Equal(t, "https://google.serper.dev", cfg.Serper.BaseURL)
	assert.Equal(t, 30, cfg.Serper.TimeoutSecs)
	assert.Equal(t, 60, cfg.LinkedIn.NavTimeoutSecs)
	assert.Equal(t, "a.org-top-card-summary-info-list__info-item-link span", cfg.LinkedIn.SizeSelector)
	assert.Equal(t, 11, cfg.Filter.MinEmployees)
	assert.Equal(t, 200, cfg.Filter.MaxEmployees)
	assert.Equal(t, []string{"IT Services and IT Consulting", "Software Development"}, cfg.Filter.Sectors)
	assert.Equal(t, "companyName", cfg.Columns.Name)
	assert.Equal(t, "companyUrl", cfg.Columns.URL)
	assert.Equal(t, "sector", cfg.Columns.Sector)
	assert.Equal(t, "Company_Size", cfg.Columns.Size)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
batch:
  workers: 5
  checkpoint_every: 10
search:
  roles_file: roles.yaml
filter:
  sectors:
    - Software Development
columns:
  name: Company
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Batch.Workers)
	assert.Equal(t, 10, cfg.Batch.CheckpointEvery)
	assert.Equal(t, "roles.yaml", cfg.Search.RolesFile)
	assert.Equal(t, []string{"Software Development"}, cfg.Filter.Sectors)
	assert.Equal(t, "Company", cfg.Columns.Name)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "companyUrl", cfg.Columns.URL)
	assert.Equal(t, 2000, cfg.Batch.DelayMs)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("batch: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("batch:\n  workers: 5\n"), 0644))

	t.Setenv("ENRICH_BATCH_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Batch.Workers)
}

func TestLoadCredentialsFromLegacyEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LINKEDIN_SESSION_COOKIE", "  cookie-value \n")
	t.Setenv("SERPER_KEY", "serper-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cookie-value", cfg.LinkedIn.SessionCookie)
	assert.Equal(t, "serper-key", cfg.Serper.Key)
}

func TestLoadPrefixedCredentialWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SERPER_KEY", "legacy")
	t.Setenv("ENRICH_SERPER_KEY", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Serper.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Batch.Workers = 3
	cfg.Batch.CheckpointEvery = 5
	cfg.Batch.DelayMs = 2000
	cfg.Search.MaxContacts = 4
	cfg.Search.MaxRetries = 3
	cfg.Filter.MinEmployees = 11
	cfg.Filter.MaxEmployees = 200
	return cfg
}

func TestValidateSize(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("size")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linkedin.session_cookie is required")

	cfg.LinkedIn.SessionCookie = "cookie"
	assert.NoError(t, cfg.Validate("size"))
}

func TestValidateContacts(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("contacts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serper.key is required")

	cfg.Serper.Key = "key"
	assert.NoError(t, cfg.Validate("contacts"))

	cfg.Search.MaxContacts = 9
	cfg.Search.MaxRetries = 0
	err = cfg.Validate("contacts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.max_contacts")
	assert.Contains(t, err.Error(), "search.max_retries")
}

func TestValidateBatchBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.LinkedIn.SessionCookie = "cookie"
	cfg.Batch.Workers = 0
	cfg.Batch.CheckpointEvery = 0
	cfg.Batch.DelayMs = -1

	err := cfg.Validate("size")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.workers")
	assert.Contains(t, err.Error(), "batch.checkpoint_every")
	assert.Contains(t, err.Error(), "batch.delay_ms")
}

func TestValidateFilter(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("filter"))

	cfg.Filter.MinEmployees = 500
	assert.Error(t, cfg.Validate("filter"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
