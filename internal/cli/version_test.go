package cli

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "v1.2.3", formatVersion("v1.2.3"))
}

func TestPrintVersion(t *testing.T) {
	old := [3]string{version, commit, date}
	t.Cleanup(func() { SetVersionInfo(old[0], old[1], old[2]) })
	SetVersionInfo("0.3.0", "abc123", "2026-01-02")

	var buf bytes.Buffer
	printVersion(&buf, false)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "rbnvfd v0.3.0\n"))
	assert.Contains(t, out, "commit: abc123")
	assert.Contains(t, out, "built: 2026-01-02")
	assert.Contains(t, out, runtime.Version())

	buf.Reset()
	printVersion(&buf, true)
	assert.Equal(t, "0.3.0\n", buf.String())
	assert.Equal(t, "0.3.0", GetVersion())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "monitor", "spots", "tune", "init", "config", "doctor", "version", "completion"} {
		assert.True(t, names[want], want)
	}
}
