package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".intentd"

// Paths holds resolved filesystem paths for intentd data.
type Paths struct {
	Base   string // ~/.intentd
	Config string // ~/.intentd/config.yaml
	Data   string // ~/.intentd/data
	Logs   string // ~/.intentd/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If INTENTD_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("INTENTD_HOME")
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

// StorePath returns the SQLite database location, honoring an explicit
// store.path setting.
func (p Paths) StorePath(cfg StoreConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(p.Data, "intentd.db")
}
