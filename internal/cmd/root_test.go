package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgeBronner/golfapi-scapper/internal/config"
)

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "2025-06-01")
	assert.Equal(t, "1.2.3 (built 2025-06-01)", rootCmd.Version)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	// Without flags or environment the defaults come through untouched.
	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.BaseURL, cfg.BaseURL)
	assert.Equal(t, defaults.MaxCallsPerDay, cfg.MaxCallsPerDay)
	assert.Equal(t, defaults.Consecutive404Limit, cfg.Consecutive404Limit)
}

func TestShowConfigMasksAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIKey = "super-secret"

	// showCurrentConfig copies before masking; the original must be intact.
	require.NoError(t, showCurrentConfig(cfg))
	assert.Equal(t, "super-secret", cfg.APIKey)
}

func TestSubcommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, strings.Fields(c.Use)[0])
	}
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "set-start")
}
