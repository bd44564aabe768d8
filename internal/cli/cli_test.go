package cli

import (
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Equal(t, "greentab 0.1.0-test", strings.TrimSpace(output))
}

func TestVersionAfterSeparatorIsNotAFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--", "--version"})
	})

	assert.Error(t, err)
	assert.NotContains(t, output, "greentab test")
}

func TestSubcommandsRegistered(t *testing.T) {
	parser, _, _ := buildParser("test")

	for _, name := range []string{"ingest", "status", "dashboard", "export", "records", "add", "measure"} {
		assert.NotNil(t, parser.Find(name), name)
	}
	assert.Nil(t, parser.Find("prune"))
}

func TestUnknownSubcommand(t *testing.T) {
	err := RunWithArgs("test", []string{"nonexistent"})
	require.Error(t, err)

	var flagsErr *goflags.Error
	require.ErrorAs(t, err, &flagsErr)
	assert.Equal(t, goflags.ErrUnknownCommand, flagsErr.Type)
}

func TestHelpIsNotAnError(t *testing.T) {
	captureOutput(t, func() {
		assert.NoError(t, RunWithArgs("test", []string{"--help"}))
	})
}

func TestGlobalFlagsParsed(t *testing.T) {
	parser, globals, cmds := buildParser("test")
	parser.SubcommandsOptional = true

	_, err := parser.ParseArgs([]string{"--json", "--db-path", "/tmp/x.db", "--config", "/tmp/c.yaml"})
	require.NoError(t, err)

	assert.True(t, globals.JSON)
	assert.Equal(t, "/tmp/x.db", globals.DBPath)
	assert.Equal(t, "/tmp/c.yaml", globals.Config)
	assert.Same(t, globals, cmds.Records.globals)
}
