package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadNameTable_ResizeAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- clock\n- shutter\n"), 0o644))

	table, err := LoadNameTable(path, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, "shutter", table.Name(1))
	assert.Empty(t, table.Name(3))
	assert.Empty(t, table.Name(10))

	var saved []string
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, []string{"clock", "shutter", "", ""}, saved)
}

func TestLoadNameTable_Truncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[a, b, c]\n"), 0o644))

	table, err := LoadNameTable(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "b", table.Name(1))
}

func TestLoadNameTable_NotAList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: value\n"), 0o644))

	_, err := LoadNameTable(path, 32)
	assert.Error(t, err)
}

func TestNameTable_ApplyAndEntries(t *testing.T) {
	table, err := LoadNameTable(filepath.Join(t.TempDir(), "ttl.yaml"), 8)
	require.NoError(t, err)

	applied, stopped := table.Apply([]byte("\x02aom\x00\x09far\x00\x05eom"))
	assert.Equal(t, 1, applied)
	assert.True(t, stopped)

	entries := table.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint8(2), entries[0].ID)
	assert.Equal(t, "aom", entries[0].Name)

	// 空名字清除该项
	applied, stopped = table.Apply([]byte("\x02\x00"))
	assert.Equal(t, 1, applied)
	assert.False(t, stopped)
	assert.Empty(t, table.Entries())
}
