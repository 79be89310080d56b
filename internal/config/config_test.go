package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-wrobel/dirsync/internal/compare"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DELETE_ORPHANS", "CHECK_CONTENT", "COMPARE_METHOD", "WORKERS"} {
		t.Setenv(EnvPrefix+k, "")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.DeleteOrphans)
	assert.True(t, s.CheckContent)
	assert.Equal(t, compare.Hash, s.CompareMethod)
	assert.Equal(t, 1, s.Workers)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	s, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSaveThenLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	want := Settings{
		LastSourcePath: "/data/photos",
		LastDestPath:   "/backup/photos",
		DeleteOrphans:  false,
		CheckContent:   true,
		CompareMethod:  compare.ByteCompare,
		Exclude:        []string{"*.tmp"},
		Workers:        4,
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp~")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_CorruptKeysFallBack(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.json")
	data := `{
		"lastSourcePath": "/src",
		"deleteOrphans": "yes",
		"checkContent": false,
		"compareMethod": "md5",
		"workers": 0,
		"exclude": null
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, "/src", s.LastSourcePath)
	assert.True(t, s.DeleteOrphans, "corrupt key keeps default")
	assert.False(t, s.CheckContent, "valid key is kept")
	assert.Equal(t, compare.Hash, s.CompareMethod)
	assert.Equal(t, 1, s.Workers)
	assert.Equal(t, []string{}, s.Exclude)
}

func TestLoad_BrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPrefix+"DELETE_ORPHANS", "false")
	t.Setenv(EnvPrefix+"COMPARE_METHOD", "bytes")
	t.Setenv(EnvPrefix+"WORKERS", "3")
	t.Setenv(EnvPrefix+"CHECK_CONTENT", "not-a-bool")

	s, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.False(t, s.DeleteOrphans)
	assert.True(t, s.CheckContent)
	assert.Equal(t, compare.ByteCompare, s.CompareMethod)
	assert.Equal(t, 3, s.Workers)
}

func TestSet(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, s.Set("deleteOrphans", "false"))
	require.NoError(t, s.Set("compareMethod", "SHA-256"))
	require.NoError(t, s.Set("exclude", "*.log, build/ ,"))
	require.NoError(t, s.Set("workers", "2"))
	require.NoError(t, s.Set("lastDestPath", "/b"))

	assert.False(t, s.DeleteOrphans)
	assert.Equal(t, compare.Hash, s.CompareMethod)
	assert.Equal(t, []string{"*.log", "build/"}, s.Exclude)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "/b", s.LastDestPath)

	assert.Error(t, s.Set("workers", "-1"))
	assert.Error(t, s.Set("checkContent", "maybe"))
	assert.Error(t, s.Set("colour", "blue"))
}

func TestOptions(t *testing.T) {
	s := DefaultSettings()
	s.Exclude = []string{"*.tmp"}
	opt := s.Options()
	assert.True(t, opt.CheckContent)
	assert.True(t, opt.DeleteOrphans)
	assert.Equal(t, compare.Hash, opt.Method)
	assert.Equal(t, []string{"*.tmp"}, opt.Exclude)
	assert.Equal(t, 1, opt.Workers)
}

func TestRead_IgnoresEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, Save(path, DefaultSettings()))
	t.Setenv(EnvPrefix+"CHECK_CONTENT", "false")

	stored, err := Read(path)
	require.NoError(t, err)
	assert.True(t, stored.CheckContent)

	effective := stored.WithEnv()
	assert.False(t, effective.CheckContent)
	assert.True(t, stored.CheckContent, "WithEnv works on a copy")
}
