package config

import (
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandAccountFields processes ${ENV_VAR} references in account field
// values so credentials never have to live in the config file.
func expandAccountFields(cfg *Config) {
	for i := range cfg.Accounts {
		cfg.Accounts[i].Fields = expandFieldMap(cfg.Accounts[i].Fields)
	}
}

func expandFieldMap(m map[string]any) map[string]any {
	for k, v := range m {
		switch t := v.(type) {
		case string:
			m[k] = expandEnvVars(t)
		case map[string]any:
			m[k] = expandFieldMap(t)
		}
	}
	return m
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandAccountFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
}

// applyEnvOverrides reads OSHATORI_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OSHATORI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("OSHATORI_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("OSHATORI_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate checks account entries for the problems a typo most often
// causes: missing names, missing protocols and duplicate account names.
func Validate(cfg Config) error {
	seen := map[string]bool{}
	for _, acc := range cfg.Accounts {
		if acc.Name == "" {
			return &ConfigError{Message: "account missing name"}
		}
		if acc.Protocol == "" {
			return &ConfigError{Message: "account " + acc.Name + " missing protocol"}
		}
		if seen[acc.Name] {
			return &ConfigError{Message: "duplicate account name: " + acc.Name}
		}
		seen[acc.Name] = true
	}
	return nil
}
