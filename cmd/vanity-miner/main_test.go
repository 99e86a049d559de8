package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/screa/eth-vanity-miner/internal/config"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRunMinerFindsMatch(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "miner.log")
	out, err := runCmd(t, "--prefix", "0x0", "--workers", "2", "--log-file", logFile)
	require.NoError(t, err)

	require.Contains(t, out, "Found match!")
	require.Regexp(t, regexp.MustCompile(`Address:\s+\S*0x0[0-9a-fA-F]{39}`), out)
	require.Regexp(t, regexp.MustCompile(`Private key:\s+\S*[0-9a-f]{64}`), out)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(content), "Target: prefix: 0x0")
	require.Contains(t, string(content), "Zero prefix has no letters")
}

func TestRunMinerLetterPrefixSkipsZeroNote(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "miner.log")
	_, err := runCmd(t, "--prefix", "a", "--workers", "2", "--log-file", logFile)
	require.NoError(t, err)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.NotContains(t, string(content), "Zero prefix")
}

func TestRunMinerRejectsInvalidPattern(t *testing.T) {
	_, err := runCmd(t, "--prefix", "xyz", "--workers", "1")
	require.ErrorIs(t, err, config.ErrInvalidPattern)
}

func TestRunMinerTimeoutReportsClosest(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "miner.log")
	out, err := runCmd(t,
		"--prefix", strings.Repeat("0", 40),
		"--workers", "1",
		"--timeout", "300ms",
		"--log-file", logFile,
	)
	require.NoError(t, err)
	require.Contains(t, out, "Closest address found")
}

func TestFormatETA(t *testing.T) {
	require.Equal(t, "> 100 years", formatETA(^uint64(0)))
	require.NotEmpty(t, formatETA(120))
}
