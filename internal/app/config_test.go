package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(body), 0644))
	return file
}

func TestLoadConfigDefaults(t *testing.T) {
	file := writeConfig(t, "controller:\n  display-id: room42\n")

	c, realpath, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, file, realpath)
	assert.Equal(t, "room42", c.Controller.DisplayID)
	assert.Equal(t, "ws://localhost:8082", c.Controller.ServerURL)
	assert.Equal(t, "krmx", c.Transport.Type)
	assert.Equal(t, "file", c.Identity.Backend)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, 15*time.Second, c.GetCommandTimeout())
	assert.Equal(t, 10*time.Second, c.GetKrmxConfig().HandshakeTimeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigSave(t *testing.T) {
	file := writeConfig(t, "controller:\n  display-id: room42\n")
	c, _, err := LoadConfig(file)
	require.NoError(t, err)

	c.Controller.DisplayID = "lobby"
	require.NoError(t, c.Save())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var saved AppConfig
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "lobby", saved.Controller.DisplayID)
	assert.Empty(t, saved.File)
}

func TestValidateController(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"ok", func(c *AppConfig) {}, false},
		{"wss", func(c *AppConfig) { c.Controller.ServerURL = "wss://display.example.com/krmx" }, false},
		{"no display", func(c *AppConfig) { c.Controller.DisplayID = " " }, true},
		{"slash in display", func(c *AppConfig) { c.Controller.DisplayID = "a/b" }, true},
		{"http scheme", func(c *AppConfig) { c.Controller.ServerURL = "http://localhost:8082" }, true},
		{"no host", func(c *AppConfig) { c.Controller.ServerURL = "ws://" }, true},
		{"memory skips url", func(c *AppConfig) { c.Transport.Type = "memory"; c.Controller.ServerURL = "" }, false},
		{"unknown transport", func(c *AppConfig) { c.Transport.Type = "carrier-pigeon" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, err := LoadConfig(writeConfig(t, "controller:\n  display-id: room42\n"))
			require.NoError(t, err)
			tc.mutate(c)
			if tc.wantErr {
				assert.Error(t, c.ValidateController())
			} else {
				assert.NoError(t, c.ValidateController())
			}
		})
	}
}

func TestWorkerPoolAndWriteQueueConfig(t *testing.T) {
	c, _, err := LoadConfig(writeConfig(t, "app:\n  worker-pool-max-workers: 2\n  write-queue-timeout: 3s\ntransport:\n  command-timeout: 1m\n"))
	require.NoError(t, err)

	wp := c.GetWorkerPoolConfig()
	assert.Equal(t, 2, wp.MaxWorkers)
	assert.Equal(t, time.Minute, wp.TaskTimeout)

	wq := c.GetWriteQueueConfig()
	assert.Equal(t, 3*time.Second, wq.WriteTimeout)
	assert.Equal(t, 10*time.Minute, wq.IdleTimeout)
}
