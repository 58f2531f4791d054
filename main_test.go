package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		storyDir = ""
		versionJSON = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeStory(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story.yaml"), []byte(content), 0o644))
}

const validStory = `
title: Valid
nodes:
  start:
    text: go
    choices: [end]
  end:
    title: The end
`

func TestRootCommand_Structure(t *testing.T) {
	assert.Equal(t, "pibot", rootCmd.Use)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))

	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, "command %s should have a short description", cmd.Name())
	}
	for _, want := range []string{"serve", "stories", "version"} {
		assert.True(t, names[want], want)
	}

	sub := map[string]bool{}
	for _, cmd := range storiesCmd.Commands() {
		sub[cmd.Name()] = true
	}
	assert.True(t, sub["list"])
	assert.True(t, sub["check"])
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v.Version)
}

func TestStoriesList(t *testing.T) {
	root := t.TempDir()
	writeStory(t, root, "zeta", validStory)
	writeStory(t, root, "alpha", validStory)

	out, err := execute(t, "stories", "list", "--dir", root)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nzeta\n", out)
}

func TestStoriesList_Empty(t *testing.T) {
	out, err := execute(t, "stories", "list", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "no story")
}

func TestStoriesCheck(t *testing.T) {
	root := t.TempDir()
	writeStory(t, root, "good", validStory)
	writeStory(t, root, "broken", `
nodes:
  start:
    choices:
      - {label: go, target: nowhere}
`)
	writeStory(t, root, "nomedia", `
nodes:
  start:
    media: [missing.png]
`)
	writeStory(t, root, "long", `
nodes:
  start:
    choices:
      - {label: `+strings.Repeat("x", 120)+`, target: start}
`)

	out, err := execute(t, "stories", "check", "good", "--dir", root)
	require.NoError(t, err)
	assert.Contains(t, out, "ok    good")

	out, err = execute(t, "stories", "check", "--dir", root)
	require.Error(t, err)
	assert.Contains(t, out, "ok    good")
	assert.Contains(t, out, "FAIL  broken")
	assert.Contains(t, out, "FAIL  nomedia")
	assert.Contains(t, out, "FAIL  long")
	assert.Contains(t, err.Error(), "3 of 4")
}
