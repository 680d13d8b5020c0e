package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func configDir(t *testing.T) string {
	dir := t.TempDir()
	os.Setenv("JDWP_CONFIG_DIR", dir)
	t.Cleanup(func() { os.Unsetenv("JDWP_CONFIG_DIR") })
	return dir
}

func writeConfig(t *testing.T, dir, contents string) {
	if err := ioutil.WriteFile(filepath.Join(dir, fileName), []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	configDir(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("expected zero config for missing file, got %v", err)
	}
	if c.Attach != "" || c.CommandTimeout != 0 || c.Aliases != nil {
		t.Fatalf("expected zero config, got %+v", c)
	}
}

func TestLoad(t *testing.T) {
	dir := configDir(t)
	writeConfig(t, dir, `
attach: "localhost:5005"
command-timeout: 10
aliases:
  break: ["bp"]
`)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Attach != "localhost:5005" {
		t.Fatalf("attach: %q", c.Attach)
	}
	if c.Timeout() != 10*time.Second {
		t.Fatalf("timeout: %v", c.Timeout())
	}
	if len(c.Aliases["break"]) != 1 || c.Aliases["break"][0] != "bp" {
		t.Fatalf("aliases: %+v", c.Aliases)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := configDir(t)
	writeConfig(t, dir, "atach: \"localhost:5005\"\n")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestLoadRejectsBadAttachAddress(t *testing.T) {
	dir := configDir(t)
	writeConfig(t, dir, "attach: \"localhost\"\n")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "host:port") {
		t.Fatalf("expected host:port error, got %v", err)
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	dir := configDir(t)
	writeConfig(t, dir, "command-timeout: -1\n")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "command-timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestPathCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	os.Setenv("JDWP_CONFIG_DIR", dir)
	defer os.Unsetenv("JDWP_CONFIG_DIR")

	p, err := Path("history")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if p != filepath.Join(dir, "history") {
		t.Fatalf("unexpected path %q", p)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("config directory not created: %v", err)
	}
}
