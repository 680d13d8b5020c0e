// Package config holds the on-disk configuration of the jdwp command
// line client: the default attach address, command aliases and the
// per-command timeout.
package config

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	dirName  = ".jdwp"
	fileName = "config.yml"
)

// Config is the contents of ~/.jdwp/config.yml. The zero value is a
// valid configuration.
type Config struct {
	// Aliases adds extra aliases for prompt commands, keyed by the
	// command's canonical name.
	Aliases map[string][]string `yaml:"aliases"`

	// Attach is the address of the JVM debug port used when --attach
	// is not given on the command line.
	Attach string `yaml:"attach,omitempty"`

	// CommandTimeout is the timeout, in seconds, applied to individual
	// JDWP commands. Zero means no timeout.
	CommandTimeout int `yaml:"command-timeout,omitempty"`
}

// Load reads the configuration file. A missing file yields the zero
// configuration; a file that is present but malformed or invalid is
// an error, so that a typo does not silently fall back to defaults.
func Load() (*Config, error) {
	path, err := Path(fileName)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("could not read %s: %v", path, err)
	}
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("could not parse %s: %v", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Attach != "" {
		if _, _, err := net.SplitHostPort(c.Attach); err != nil {
			return fmt.Errorf("attach address %q is not host:port: %v", c.Attach, err)
		}
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command-timeout must not be negative (got %d)", c.CommandTimeout)
	}
	return nil
}

// Timeout returns the configured per-command timeout, zero when none
// is set.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Second
}

// Path returns the location of name inside the configuration
// directory, creating the directory if needed. The directory is
// ~/.jdwp, or $JDWP_CONFIG_DIR when set.
func Path(name string) (string, error) {
	dir := os.Getenv("JDWP_CONFIG_DIR")
	if dir == "" {
		home := "."
		if usr, err := user.Current(); err == nil {
			home = usr.HomeDir
		}
		dir = filepath.Join(home, dirName)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
