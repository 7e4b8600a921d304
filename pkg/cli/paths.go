package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the ai01 directory layout.
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base directory (~/.ai01)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the config file path (~/.ai01/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// DataDir returns the data directory (~/.ai01/data), used for the
// persistent kv store.
func (p *Paths) DataDir() string {
	return filepath.Join(p.BaseDir(), "data")
}

// RecordingsDir returns the local recordings directory (~/.ai01/recordings).
func (p *Paths) RecordingsDir() string {
	return filepath.Join(p.BaseDir(), "recordings")
}

// EnsureBaseDir creates the base directory if it doesn't exist
func (p *Paths) EnsureBaseDir() error {
	return os.MkdirAll(p.BaseDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0755)
}

// EnsureRecordingsDir creates the recordings directory if it doesn't exist
func (p *Paths) EnsureRecordingsDir() error {
	return os.MkdirAll(p.RecordingsDir(), 0755)
}

// DataPath returns a path within the data directory
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir(), name)
}
