package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUserAddAndRollup(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "user", "add", "admin@example.test", "--password", "s3cret-pass", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "created admin admin@example.test")

	out, err = run(t, "user", "add", "admin@example.test", "--password", "rotated-pass", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "updated password for admin@example.test")

	out, err = run(t, "rollup", "--date", "2026-03-10", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-10: 0 visits")

	_, err = run(t, "rollup", "--date", "10/03/2026", "--data-dir", dir)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
