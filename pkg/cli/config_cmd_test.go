package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShow_TableOutput(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Output: "table"},
			"prod":    {Host: "https://prices.example.com", Days: 30},
		},
	}))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"config", "show", "--output", "table"})
	out := captureStdout(t)

	require.NoError(t, rootCmd.Execute())
	output := out()

	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "ACTIVE")
	assert.Contains(t, output, "HOST")
	assert.Contains(t, output, "http://localhost:8080")
	assert.Contains(t, output, "https://prices.example.com")
	assert.Regexp(t, `(?m)^default\s+\*`, output)
	assert.Regexp(t, `(?m)^prod\s+https://prices\.example\.com\s+30$`, output)
	assert.NotContains(t, output, "current-profile:")
}

func TestConfigShow_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{"default": {Host: "http://h"}},
	}))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"--output", "json", "config", "show"})
	out := captureStdout(t)

	require.NoError(t, rootCmd.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out()), &got))
	assert.Equal(t, "default", got["CurrentProfile"])
}

func TestConfigShow_NoConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"config", "show"})
	require.Error(t, rootCmd.Execute())
}

func TestConfigSetAndUseProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"config", "set-profile", "--name", "prod",
		"--host", "https://prices.example.com", "--days", "7", "--output", "json"})
	out := captureStdout(t)
	require.NoError(t, rootCmd.Execute())
	_ = out()

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, Profile{Host: "https://prices.example.com", Output: "json", Days: 7}, cfg.Profiles["prod"])
	assert.Equal(t, "default", cfg.CurrentProfile)

	rootCmd = newRootCmd()
	rootCmd.SetArgs([]string{"config", "use-profile", "prod"})
	out = captureStdout(t)
	require.NoError(t, rootCmd.Execute())
	_ = out()

	cfg, err = LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.CurrentProfile)
}

func TestConfigSetProfile_RejectsBadOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"config", "set-profile", "--name", "x", "--output", "yaml"})
	err := rootCmd.Execute()
	require.ErrorContains(t, err, "unsupported output format")
}

func TestConfigUseProfile_Unknown(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, SaveUserConfig(&UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"config", "use-profile", "missing"})
	require.EqualError(t, rootCmd.Execute(), `profile "missing" not found`)
}
