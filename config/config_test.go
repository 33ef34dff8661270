package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"gitexplorer/config"
)

func TestLoadDefaultsPort(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
}

func TestLoadEnvOverridesYaml(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yamlPath := dir + "/ges.yaml"
	require.NoError(t, os.WriteFile(yamlPath, []byte("content_path: /from/yaml\nport: \"9000\"\n"), 0o644))

	t.Setenv("GES_PORT", "9999")

	cfg, err := config.Load(yamlPath)
	require.NoError(t, err)
	require.Equal(t, "/from/yaml", cfg.ContentPath)
	require.Equal(t, "9999", cfg.Port)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GES_CONTENT_PATH", "GES_STATIC_CONTENT_PATH", "GES_URI_MARKER", "GES_PORT", "GES_LOG_FILE"} {
		t.Setenv(key, "")
	}
}
