package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "casstore", cmd.Use)
	assert.Contains(t, cmd.Long, "BLAKE3")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"write", "get", "get-all", "delete", "delete-all", "tags", "hash"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDBFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"write", "get", "get-all", "delete", "delete-all", "tags"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			for _, flag := range []string{"db", "config", "read-only", "create-if-missing"} {
				assert.NotNil(t, sub.Flags().Lookup(flag), "--%s", flag)
			}
			assert.Equal(t, "true", sub.Flags().Lookup("create-if-missing").DefValue)
		})
	}
}

func TestWriteCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	writeCmd, _, err := cmd.Find([]string{"write"})
	require.NoError(t, err)

	for _, flag := range []string{"ty", "value", "schema"} {
		require.NotNil(t, writeCmd.Flags().Lookup(flag))
	}
}

func TestHashCommandHasNoDB(t *testing.T) {
	cmd := NewRootCommand()
	hashCmd, _, err := cmd.Find([]string{"hash"})
	require.NoError(t, err)
	assert.Nil(t, hashCmd.Flags().Lookup("db"))
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "hash", "--value", "1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	quiet := newLogger(&buf, false)
	quiet.Info("hidden")
	quiet.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	loud := newLogger(&buf, true)
	loud.Debug("details", "ty", "pkg::Foo")
	assert.Contains(t, buf.String(), "details")
	assert.Contains(t, buf.String(), "ty=pkg::Foo")
	assert.NotContains(t, buf.String(), "\x1b[", "no color when not a terminal")
}
