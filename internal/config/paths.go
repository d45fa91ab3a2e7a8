package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".oshatori"

// Paths holds resolved filesystem paths for oshatori data.
type Paths struct {
	Base   string // ~/.oshatori
	Config string // ~/.oshatori/config.yaml
	Data   string // ~/.oshatori/data
	Logs   string // ~/.oshatori/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If OSHATORI_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("OSHATORI_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// AccountDB returns the sqlite database path, honoring an explicit
// override from the store config.
func (p Paths) AccountDB(store StoreConfig) string {
	if store.Path != "" {
		return store.Path
	}
	return filepath.Join(p.Data, "accounts.db")
}
