package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/chocopy/compiler/internal/config"
)

func TestColorEnabled(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.Nil(t, err)
	defer f.Close()
	testData := []struct {
		Mode     string
		Expected bool
	}{
		{Mode: config.ColorAlways, Expected: true},
		{Mode: config.ColorNever, Expected: false},
		{Mode: config.ColorAuto, Expected: false},
	}
	for _, data := range testData {
		assert.Equal(t, data.Expected, colorEnabled(data.Mode, f), data.Mode)
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	testData := []struct {
		Path  string
		Error bool
	}{
		{Path: filepath.Join(dir, "out.s")},
		{Path: filepath.Join(dir, "missing", "out.s"), Error: true},
		{Path: dir, Error: true},
	}
	for _, data := range testData {
		err := writeOutput(data.Path, "  li a0, 10\n")
		if data.Error {
			assert.NotNil(t, err, data.Path)
			continue
		}
		require.Nil(t, err, data.Path)
		content, err := os.ReadFile(data.Path)
		require.Nil(t, err)
		assert.Equal(t, "  li a0, 10\n", string(content))
	}
}
