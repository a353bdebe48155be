// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etc", "vidfetch.yaml")

	written, err := InitFile(path, false)
	require.NoError(t, err)
	assert.Len(t, written.Auth.JWTSecret, 64)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Setenv(EnvDataDir, dir)
	loaded, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	// DataDir and derived paths come from the environment here.
	loaded.DataDir = written.DataDir
	loaded.Extractor.CookiesFile = ""
	loaded.Auth.DBPath = ""
	if diff := cmp.Diff(written, loaded); diff != "" {
		t.Errorf("config round trip mismatch (-written +loaded):\n%s", diff)
	}
}

func TestInitFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o600))

	_, err := InitFile(path, false)
	require.Error(t, err)

	_, err = InitFile(path, true)
	require.NoError(t, err)
}
