package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Parallel()

	root := RootCommand()
	assert.Equal(t, "emotion-recognition", root.Use)
	assert.NotNil(t, root.RunE, "the window opens without a subcommand")

	for _, name := range []string{"gui", "probe", "run"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestRunCommandFlags(t *testing.T) {
	t.Parallel()

	run, _, err := RootCommand().Find([]string{"run"})
	require.NoError(t, err)

	require.NoError(t, run.ParseFlags([]string{"--device", "2", "--duration", "3s", "--snapshot", "out.png"}))
	device, err := run.Flags().GetInt("device")
	require.NoError(t, err)
	assert.Equal(t, 2, device)

	duration, err := run.Flags().GetDuration("duration")
	require.NoError(t, err)
	assert.Equal(t, "3s", duration.String())

	snapshot, err := run.Flags().GetString("snapshot")
	require.NoError(t, err)
	assert.Equal(t, "out.png", snapshot)
}

func TestInitLogger(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "debug", initLogger(true).GetLevel().String())
	assert.Equal(t, "info", initLogger(false).GetLevel().String())
}

func TestInitialize_BadConfig(t *testing.T) {
	root := RootCommand()
	root.SetArgs([]string{"probe", "--config", t.TempDir() + "/missing.yaml"})
	root.SilenceErrors = true
	assert.Error(t, root.Execute())
}

func TestProbeCommand_RejectsNonPositiveLimit(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("debug: false\n"), 0o600))

	for _, limit := range []string{"0", "-1"} {
		root := RootCommand()
		root.SetArgs([]string{"probe", "--config", configPath, "--limit=" + limit})
		root.SilenceErrors = true

		err := root.Execute()
		require.Error(t, err, "limit %s", limit)
		assert.Contains(t, err.Error(), "--limit must be positive")
	}
}
