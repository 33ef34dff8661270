// Package config loads the server's environment-variable
// configuration, with an optional ges.yaml file supplying the same
// keys for deployments that prefer a file over env vars.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the options spec.md §6 enumerates.
type Config struct {
	ContentPath       string `yaml:"content_path"`
	StaticContentPath string `yaml:"static_content_path"`
	URIMarker         string `yaml:"uri_marker"`
	Port              string `yaml:"port"`
	LogFile           string `yaml:"log_file"`
}

const defaultPort = "8080"

// Load reads ges.yaml (if present at path) as a base layer, then
// overlays GES_* environment variables, which win when both are set.
func Load(yamlPath string) (Config, error) {
	cfg := Config{Port: defaultPort}

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		}
	}

	cfg.ContentPath = getEnv("GES_CONTENT_PATH", cfg.ContentPath)
	cfg.StaticContentPath = getEnv("GES_STATIC_CONTENT_PATH", cfg.StaticContentPath)
	cfg.URIMarker = getEnv("GES_URI_MARKER", cfg.URIMarker)
	cfg.Port = getEnv("GES_PORT", cfg.Port)
	cfg.LogFile = getEnv("GES_LOG_FILE", cfg.LogFile)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
