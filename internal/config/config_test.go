package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikuru0/oshatori/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Empty(t, cfg.Accounts)
}

func TestLoad_ParsesAccounts(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
store:
  backend: memory
accounts:
  - name: flashii
    protocol: sockchat
    autoConnect: true
    fields:
      url: wss://chat.example.com/sock
      token: tok3n
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Store.Backend)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "flashii", cfg.Accounts[0].Name)
	assert.Equal(t, "sockchat", cfg.Accounts[0].Protocol)
	assert.True(t, cfg.Accounts[0].AutoConnect)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "accounts: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestLoad_ExpandsEnvInFieldValues(t *testing.T) {
	t.Setenv("OSHATORI_TEST_TOKEN", "s3cret")
	path := writeConfig(t, `
accounts:
  - name: flashii
    protocol: sockchat
    fields:
      token: ${OSHATORI_TEST_TOKEN}
      missing: ${OSHATORI_TEST_UNSET_VAR}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "s3cret", cfg.Accounts[0].Fields["token"])
	// Unset variables are left as-is so the mistake is visible.
	assert.Equal(t, "${OSHATORI_TEST_UNSET_VAR}", cfg.Accounts[0].Fields["missing"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OSHATORI_LOG_LEVEL", "TRACE")
	t.Setenv("OSHATORI_STORE_BACKEND", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestAuthFields(t *testing.T) {
	acc := AccountConfig{
		Name:     "irc-libera",
		Protocol: "irc",
		Fields: map[string]any{
			"server":   "irc.libera.chat",
			"port":     6697,
			"tls":      true,
			"password": "hunter2",
			"advanced": map[string]any{
				"sasl": "true",
			},
		},
	}

	fields, err := acc.AuthFields()
	require.NoError(t, err)

	assert.Equal(t, "irc.libera.chat", domain.FieldString(fields, "server"))
	assert.Equal(t, "6697", domain.FieldString(fields, "port"))
	assert.Equal(t, "true", domain.FieldString(fields, "tls"))

	pw, ok := domain.FieldByName(fields, "password")
	require.True(t, ok)
	assert.Equal(t, domain.FieldPassword, pw.Value.Kind)
	assert.Equal(t, "hunter2", pw.Value.Value)

	adv, ok := domain.FieldByName(fields, "advanced")
	require.True(t, ok)
	assert.Equal(t, domain.FieldGroup, adv.Value.Kind)
	assert.Equal(t, "true", domain.FieldString(fields, "sasl"))
}

func TestAuthFields_UnsupportedType(t *testing.T) {
	acc := AccountConfig{Fields: map[string]any{"weird": []any{1, 2}}}
	_, err := acc.AuthFields()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty ok", Config{}, false},
		{"valid accounts", Config{Accounts: []AccountConfig{
			{Name: "a", Protocol: "mock"},
			{Name: "b", Protocol: "irc"},
		}}, false},
		{"missing name", Config{Accounts: []AccountConfig{{Protocol: "mock"}}}, true},
		{"missing protocol", Config{Accounts: []AccountConfig{{Name: "a"}}}, true},
		{"duplicate name", Config{Accounts: []AccountConfig{
			{Name: "a", Protocol: "mock"},
			{Name: "a", Protocol: "irc"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolvePaths_HomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("OSHATORI_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)

	require.NoError(t, p.EnsureDirs())
	assert.DirExists(t, p.Data)
	assert.DirExists(t, p.Logs)

	assert.Equal(t, filepath.Join(base, "data", "accounts.db"), p.AccountDB(StoreConfig{}))
	assert.Equal(t, "/tmp/x.db", p.AccountDB(StoreConfig{Path: "/tmp/x.db"}))
}
