package gitcore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// Config holds the subset of a repository's config file that affects output.
type Config struct {
	Color ColorConfig
}

type ColorConfig struct {
	UI     string
	Branch string
}

// ReadConfig parses the Git config file at configPath. A missing file yields
// an empty Config.
func ReadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw := format.New()
	if err := format.NewDecoder(file).Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	// Subsections such as [color "branch"] hold slot colors, not modes.
	color := raw.Section("color")
	config.Color.UI = strings.ToLower(color.Option("ui"))
	config.Color.Branch = strings.ToLower(color.Option("branch"))

	return config, nil
}

// ColorSetting returns the effective color mode for branch labels: the
// color.branch value if set, otherwise color.ui. As in Git, true means auto; empty
// means unset.
func (c *Config) ColorSetting() string {
	value := c.Color.Branch
	if value == "" {
		value = c.Color.UI
	}
	switch value {
	case "always":
		return "always"
	case "false", "no", "off", "0", "never":
		return "never"
	case "true", "yes", "on", "1", "auto":
		return "auto"
	default:
		return ""
	}
}
