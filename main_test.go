package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_BuildsOnce(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"builds.yaml":         "styles:\n  - {slug: love, label: Love, icon: h.svg, stylesheet: love-style.css, root: true}\n",
		"template.html":       "<head><!--% STYLESHEET INSERTS %--></head>",
		"css/love.css":        "body{}",
		"css/love-style.css":  "p{}",
		"images/hearts/h.svg": "<svg/>",
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}

	rootCmd.SetArgs([]string{"--root", dir, "--config", "builds.yaml", "--out", "public"})
	require.NoError(t, rootCmd.Execute())

	page, err := os.ReadFile(filepath.Join(dir, "public", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<head><link href="/css/love-style.css" rel="stylesheet" title="Love" /></head>`, string(page))
	assert.FileExists(t, filepath.Join(dir, "public", "css", "love.css"))
	assert.FileExists(t, filepath.Join(dir, "public", "images", "hearts", "h.svg"))

	rootCmd.SetArgs([]string{"--root", filepath.Join(dir, "nope")})
	assert.Error(t, rootCmd.Execute())
}

func TestRootCommand_RefusesSourceTreeAsOutput(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "template.html")
	require.NoError(t, os.WriteFile(template, []byte("<head></head>"), 0644))

	rootCmd.SetArgs([]string{"--root", dir, "--out", "."})
	assert.Error(t, rootCmd.Execute())
	assert.FileExists(t, template)
}
