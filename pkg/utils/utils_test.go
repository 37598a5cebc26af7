package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.WarnLevel)

	require.NoError(t, SetLogLevel("DEBUG"))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	require.NoError(t, SetLogLevel("warning"))
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())

	assert.Error(t, SetLogLevel("verbose"))
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.elf")

	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("elf"), 0o644))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(dir))

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "elf", string(data))

	_, err = ReadFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestJSONDumps(t *testing.T) {
	out, err := JSONDumps(map[string]interface{}{"b": 1, "a": []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": [\n        \"x\"\n    ],\n    \"b\": 1\n}", out)

	out, err = JSONDumps(json.RawMessage(`{"z": 12345678901234, "a": null}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": null,\n    \"z\": 12345678901234\n}", out)

	_, err = JSONDumps(json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestSortNodes(t *testing.T) {
	nodes := []string{
		"m3-10.grenoble.iot-lab.info",
		"a8-1.strasbourg.iot-lab.info",
		"m3-2.grenoble.iot-lab.info",
		"a8-3.grenoble.iot-lab.info",
		"m3-1.grenoble.iot-lab.info",
	}
	SortNodes(nodes)
	assert.Equal(t, []string{
		"a8-3.grenoble.iot-lab.info",
		"m3-1.grenoble.iot-lab.info",
		"m3-2.grenoble.iot-lab.info",
		"m3-10.grenoble.iot-lab.info",
		"a8-1.strasbourg.iot-lab.info",
	}, nodes)

	aliases := []string{"10", "2", "1"}
	SortNodes(aliases)
	assert.Equal(t, []string{"1", "2", "10"}, aliases)
}

func TestUniqueSortedNodes(t *testing.T) {
	nodes := UniqueSortedNodes([]string{"m3-3.lille", "m3-1.lille", "m3-3.lille"})
	assert.Equal(t, []string{"m3-1.lille", "m3-3.lille"}, nodes)
}
