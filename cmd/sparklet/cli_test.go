package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sparklet"
)

func TestWriteConfigIfMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, sparklet.ConfigFileName)

	cfg = sparklet.Config{Adapter: sparklet.AdapterSQLite, Path: dir, Name: "notes"}
	t.Cleanup(func() { cfg = sparklet.Config{} })

	require.NoError(t, writeConfigIfMissing(path))

	loaded, err := sparklet.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, sparklet.AdapterSQLite, loaded.Adapter)
	assert.Equal(t, "notes", loaded.Name)
	assert.Empty(t, loaded.Path, "data dir equal to the config dir is implied")

	require.NoError(t, os.WriteFile(path, []byte("adapter: memory\n"), 0644))
	require.NoError(t, writeConfigIfMissing(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "adapter: memory\n", string(data), "existing config is left alone")
}

func TestNewLoggerWritesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sparklet.log")
	logger := newLogger(true, logPath)
	logger.Debug("hello from test", "k", "v")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello from test"`)
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestIsLocalAdapter(t *testing.T) {
	assert.True(t, isLocalAdapter(""))
	assert.True(t, isLocalAdapter(sparklet.AdapterFS))
	assert.True(t, isLocalAdapter(sparklet.AdapterSQLite))
	assert.False(t, isLocalAdapter(sparklet.AdapterRedis))
	assert.False(t, isLocalAdapter(sparklet.AdapterBridge))
}

func TestPurgeCommand(t *testing.T) {
	ctx := context.Background()
	cfg = sparklet.Config{Adapter: sparklet.AdapterFS, Path: t.TempDir()}
	t.Cleanup(func() {
		cfg = sparklet.Config{}
		purgeCmd.SetIn(nil)
		purgeCmd.SetOut(nil)
	})

	m := openManager(ctx)
	n, err := m.CreateNote(ctx, "doomed", "")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	run := func(answer string) string {
		var out bytes.Buffer
		purgeCmd.SetIn(strings.NewReader(answer))
		purgeCmd.SetOut(&out)
		purgeCmd.Run(purgeCmd, []string{n.ID})
		return out.String()
	}

	out := run("n\n")
	assert.Contains(t, out, `Permanently delete "doomed"`)
	assert.Contains(t, out, "Aborted")

	out = run("y\n")
	assert.Contains(t, out, "Note purged: "+n.ID)

	out = run("")
	assert.Contains(t, out, "does not exist")
}
