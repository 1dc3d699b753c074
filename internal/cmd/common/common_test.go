package common

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomWriter(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	w := &CustomWriter{Writer: file}
	n, err := w.Write([]byte("line\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	data, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	want := "line\n"
	if runtime.GOOS == "windows" {
		want = "line\n\r"
	}
	assert.Equal(t, want, string(data))
}

func TestFormatLevelWithHitColor(t *testing.T) {
	colored := formatLevelWithHitColor(true)
	plain := formatLevelWithHitColor(false)

	assert.Equal(t, "\x1b[35mhit\x1b[0m", colored("hit"))
	assert.Equal(t, "\x1b[31merror\x1b[0m", colored("error"))
	assert.Equal(t, "debug", colored("debug"))
	assert.Equal(t, "hit", plain("hit"))
	assert.Equal(t, "", plain(42))
}

func TestSetGlobalLogLevel(t *testing.T) {
	defer func() {
		LogLevel = ""
		LogDebug = false
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	tests := []struct {
		name  string
		level string
		debug bool
		want  zerolog.Level
	}{
		{name: "default", want: zerolog.InfoLevel},
		{name: "verbose", debug: true, want: zerolog.DebugLevel},
		{name: "explicit wins over verbose", level: "error", debug: true, want: zerolog.ErrorLevel},
		{name: "hit", level: "hit", want: zerolog.WarnLevel},
		{name: "invalid", level: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			LogLevel = tt.level
			LogDebug = tt.debug
			SetGlobalLogLevel(&cobra.Command{})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestAddCommonFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddCommonFlags(cmd)

	for _, name := range []string{"json", "logfile", "verbose", "log-level", "color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
}
