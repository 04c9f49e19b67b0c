package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".captouch.yaml"

// config carries the adapter defaults; command line flags override it.
type config struct {
	Adapter string `yaml:"adapter"`
	Bus     string `yaml:"bus"`
	I2CBus  int    `yaml:"i2c_bus"`
	Address byte   `yaml:"address"`
}

func defaultConfig() config {
	return config{
		Adapter: "mcp2221",
		I2CBus:  -1,
		Address: 0x28,
	}
}

func loadConfig(c *cli.Context) (config, error) {
	cfg := defaultConfig()
	path := c.String("config")
	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, defaultConfigFile)
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err = yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// no config file is fine, defaults apply
		default:
			return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.String("bus")
	}
	if c.IsSet("i2c-bus") {
		cfg.I2CBus = c.Int("i2c-bus")
	}
	if c.IsSet("addr") {
		cfg.Address = byte(c.Int("addr"))
	}
	return cfg, nil
}
