package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// ManifestName is the per-project configuration file.
const ManifestName = "stackflow.toml"

// Config holds tool-wide settings from stackflow.toml. Zero fields take
// defaults from Default.
type Config struct {
	// Out is the directory exported documents are written to.
	Out string `toml:"out"`
	// Pretty indents exported documents.
	Pretty bool `toml:"pretty"`
	// Color selects CLI coloring: auto, on or off.
	Color string `toml:"color"`
	// Jobs caps concurrent exports in batch mode.
	Jobs int `toml:"jobs"`
}

type manifest struct {
	Export Config `toml:"export"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Out:   ".",
		Color: "auto",
		Jobs:  runtime.GOMAXPROCS(0),
	}
}

// Load reads dir/stackflow.toml. A missing file yields the defaults; a
// malformed file is an error.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, ManifestName)
	m := manifest{Export: Default()}

	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if len(meta.Undecoded()) > 0 {
		return Config{}, fmt.Errorf("%s: unknown keys: %v", path, meta.Undecoded())
	}
	if err := m.Export.check(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return m.Export, nil
}

func (c Config) check() error {
	switch c.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("color must be auto, on or off, got %q", c.Color)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	return nil
}
