// Package config loads the oshatori YAML configuration.
package config

import (
	"fmt"
	"sort"

	"github.com/saikuru0/oshatori/domain"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Config is the root configuration.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging,omitempty"`
	Store    StoreConfig     `yaml:"store,omitempty"`
	Accounts []AccountConfig `yaml:"accounts,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`
}

// StoreConfig selects the account store backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite" | "memory"
	Path    string `yaml:"path,omitempty"`    // sqlite database file; defaults under the data dir
}

// AccountConfig is one configured account: a protocol name plus the auth
// field values the protocol's descriptor asks for. Nested maps become
// grouped fields.
type AccountConfig struct {
	Name        string         `yaml:"name"`
	Protocol    string         `yaml:"protocol"`
	Fields      map[string]any `yaml:"fields,omitempty"`
	AutoConnect bool           `yaml:"autoConnect,omitempty"`
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
	}
}

// AuthFields converts the account's YAML field map into auth fields. Scalar
// values become text fields; keys containing "password" or "token" become
// password fields; nested maps become groups. Keys are emitted in sorted
// order so the result is deterministic.
func (a AccountConfig) AuthFields() ([]domain.AuthField, error) {
	return mapToFields(a.Fields)
}

func mapToFields(m map[string]any) ([]domain.AuthField, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.AuthField, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			val := domain.TextValue(v)
			if isSecretKey(k) {
				val = domain.PasswordValue(v)
			}
			out = append(out, domain.AuthField{Name: k, Value: val})
		case int:
			out = append(out, domain.AuthField{Name: k, Value: domain.TextValue(fmt.Sprintf("%d", v))})
		case bool:
			out = append(out, domain.AuthField{Name: k, Value: domain.TextValue(fmt.Sprintf("%t", v))})
		case map[string]any:
			inner, err := mapToFields(v)
			if err != nil {
				return nil, err
			}
			out = append(out, domain.AuthField{Name: k, Value: domain.GroupValue(inner...)})
		default:
			return nil, &ConfigError{Message: fmt.Sprintf("field %q has unsupported type %T", k, v)}
		}
	}
	return out, nil
}

func isSecretKey(k string) bool {
	switch k {
	case "password", "token", "secret", "api_key":
		return true
	}
	return false
}
