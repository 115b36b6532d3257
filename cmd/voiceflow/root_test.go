package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCmd()

	for _, path := range [][]string{
		{"ask"},
		{"keys", "set"},
		{"keys", "get"},
		{"keys", "delete"},
		{"keys", "clear"},
		{"keys", "list"},
		{"validate"},
		{"export"},
	} {
		found, _, err := cmd.Find(path)
		require.NoError(t, err, "find %v", path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}

	for _, name := range []string{"config", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
	assert.NotNil(t, cmd.Flags().Lookup("script"))
}

func TestAskRequiresQuestion(t *testing.T) {
	cmd := newAskCmd(&rootFlags{})
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"why", "here?"}))
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"short":             "*****",
		"sk-1234567890abcd": "sk-1****abcd",
	}
	for in, want := range tests {
		assert.Equal(t, want, maskKey(in), "maskKey(%q)", in)
	}
}

func TestReadKey(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("  sk-test  \n"))
	cmd.SetErr(&strings.Builder{})

	key, err := readKey(cmd)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	cmd.SetIn(strings.NewReader(""))
	_, err = readKey(cmd)
	assert.Error(t, err)

	cmd.SetIn(strings.NewReader("sk-no-newline"))
	key, err = readKey(cmd)
	require.NoError(t, err)
	assert.Equal(t, "sk-no-newline", key)
}
