package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
environment: DEV
dev_mode_bypass: true
server:
  port: 9090
  read_timeout: 5s
db:
  host: db.internal
  port: 6543
  user: app
  password: secret
  name: producao
auth:
  okta_domain: "https://example.okta.com/oauth2/default/"
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.DevModeBypass)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, "https://example.okta.com/oauth2/default", cfg.Auth.OktaDomain)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "host=db.internal port=6543 user=app password=secret dbname=producao sslmode=disable", cfg.DSN())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
db:
  host: from-file
`)
	t.Setenv("APONTAMENTO_DB_HOST", "from-env")
	t.Setenv("APONTAMENTO_SERVER_PORT", "7070")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.DB.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_BypassOutsideDev(t *testing.T) {
	path := writeConfig(t, `
environment: PROD
dev_mode_bypass: true
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "dev_mode_bypass")
}

func TestLoadConfig_TLSRequiresFiles(t *testing.T) {
	path := writeConfig(t, `
tls:
  enable: true
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "tls.enable")
}

func TestNormalizeOktaIssuer(t *testing.T) {
	assert.Equal(t, "https://a.okta.com", normalizeOktaIssuer(" https://a.okta.com/ "))
	assert.Equal(t, "", normalizeOktaIssuer(""))
}

func TestLoadConfig_Telemetry(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, "prometheus", cfg.Telemetry.Exporter)
	assert.Equal(t, "apontamento", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.TraceSampleRatio)

	_, err = LoadConfig(writeConfig(t, "telemetry:\n  exporter: statsd\n"))
	assert.ErrorContains(t, err, "telemetry.exporter")

	_, err = LoadConfig(writeConfig(t, "telemetry:\n  trace_sample_ratio: 2\n"))
	assert.ErrorContains(t, err, "trace_sample_ratio")
}
