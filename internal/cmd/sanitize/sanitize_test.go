package sanitize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CompassSecurity/flowleek/pkg/workflow"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

const exportedWorkflow = `{
  "name": "Notify",
  "nodes": [
    {
      "name": "Call",
      "type": "n8n-nodes-base.httpRequest",
      "parameters": {"url": "https://hooks.example.org/notify"},
      "credentials": {"httpHeaderAuth": {"id": "12", "name": "Prod header"}}
    }
  ],
  "connections": {}
}`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestNewSanitizeCmd(t *testing.T) {
	cmd := NewSanitizeCmd()

	assert.Equal(t, "sanitize <workflow.json|->", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.Run)

	for _, name := range []string{"config", "output", "format", "manifest", "max-size", "keep-host", "rules", "gitleaks", "trufflehog", "threads", "detector-timeout"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
	for _, flag := range optionFlags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "option bound to missing flag %s", flag)
	}
}

func TestReadInput(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		path := writeFile(t, "wf.json", []byte(exportedWorkflow))
		data, err := readInput(path, 1024)
		require.NoError(t, err)
		assert.Equal(t, exportedWorkflow, string(data))
	})

	t.Run("byte order mark", func(t *testing.T) {
		path := writeFile(t, "wf.json", append([]byte("\xef\xbb\xbf"), exportedWorkflow...))
		data, err := readInput(path, 1024)
		require.NoError(t, err)
		assert.Equal(t, exportedWorkflow, string(data))
	})

	t.Run("too large", func(t *testing.T) {
		path := writeFile(t, "wf.json", []byte(exportedWorkflow))
		_, err := readInput(path, 16)
		assert.ErrorContains(t, err, "max input size")
	})

	t.Run("archive", func(t *testing.T) {
		path := writeFile(t, "wf.json.gz", []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00})
		_, err := readInput(path, 1024)
		assert.ErrorContains(t, err, "archive")
	})

	t.Run("image", func(t *testing.T) {
		path := writeFile(t, "wf.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
		_, err := readInput(path, 1024)
		assert.ErrorContains(t, err, "image/png")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := readInput(filepath.Join(t.TempDir(), "missing.json"), 1024)
		assert.Error(t, err)
	})
}

func TestDecodeWorkflow(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "strict json", input: exportedWorkflow},
		{
			name: "json5",
			input: `{
  // exported by hand
  name: 'Notify',
  nodes: [
    {name: 'Call', type: 'n8n-nodes-base.httpRequest', parameters: {url: 'https://hooks.example.org/notify'},},
  ],
}`,
		},
		{name: "garbage", input: `not a workflow`, wantErr: true},
		{name: "wrong shape", input: `{"nodes": {}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := decodeWorkflow([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, workflow.ErrInvalidDefinition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Notify", def.Name)
			require.Len(t, def.Nodes, 1)
			assert.Equal(t, "https://hooks.example.org/notify", def.Nodes[0].Parameters["url"])
		})
	}
}

func TestRender(t *testing.T) {
	def, err := workflow.Parse([]byte(exportedWorkflow))
	require.NoError(t, err)

	out, err := render(def, "json")
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(out))
	assert.Equal(t, "Notify", gjson.GetBytes(out, "name").String())

	out, err = render(def, "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "name: Notify")
	assert.Contains(t, string(out), "url: https://hooks.example.org/notify")
}

func TestLoadOptions(t *testing.T) {
	configFile := writeFile(t, "flowleek.yaml", []byte("keep-hosts:\n  - example.org\nthreads: 8\ndetector-timeout: 5s\ngitleaks: true\n"))

	t.Run("config file", func(t *testing.T) {
		cmd := NewSanitizeCmd()
		opts, err := loadOptions(cmd, configFile)
		require.NoError(t, err)
		assert.Equal(t, []string{"example.org"}, opts.KeepHosts)
		assert.Equal(t, 8, opts.MaxScanGoRoutines)
		assert.Equal(t, 5*time.Second, opts.DetectorTimeout)
		assert.True(t, opts.Gitleaks)
		assert.False(t, opts.TruffleHog)
	})

	t.Run("flags override config file", func(t *testing.T) {
		cmd := NewSanitizeCmd()
		require.NoError(t, cmd.Flags().Parse([]string{"--threads", "2", "--keep-host", "api.openai.com"}))
		opts, err := loadOptions(cmd, configFile)
		require.NoError(t, err)
		assert.Equal(t, 2, opts.MaxScanGoRoutines)
		assert.Equal(t, []string{"api.openai.com"}, opts.KeepHosts)
		assert.Equal(t, 5*time.Second, opts.DetectorTimeout)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := loadOptions(NewSanitizeCmd(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, "wf.json", []byte(exportedWorkflow))
	output := filepath.Join(dir, "template.json")
	manifestFile := filepath.Join(dir, "manifest.json")

	cmd := NewSanitizeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--output", output, "--manifest", manifestFile}))

	require.NoError(t, run(cmd, input))

	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "${HOOKS_EXAMPLE_ORG_URL}", gjson.GetBytes(out, "nodes.0.parameters.url").String())
	assert.Equal(t, "${HTTP_HEADER_AUTH_CREDENTIAL}", gjson.GetBytes(out, "nodes.0.credentials.httpHeaderAuth.name").String())
	assert.NotContains(t, string(out), "Prod header")

	m, err := os.ReadFile(manifestFile)
	require.NoError(t, err)
	assert.Equal(t, "HOOKS_EXAMPLE_ORG_URL", gjson.GetBytes(m, "detected.variables.0.name").String())
	assert.Equal(t, "Prod header", gjson.GetBytes(m, "detected.credentials.0.displayNames.0").String())
	assert.NotEmpty(t, gjson.GetBytes(m, "fingerprint").String())
}

func TestRunRejectsSecrets(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, "wf.json", []byte(`{"nodes": [{"name": "Call", "type": "n8n-nodes-base.httpRequest", "parameters": {"headerValue": "Bearer abcdefghijklmnopqrstuvwxyz012345"}}]}`))
	output := filepath.Join(dir, "template.json")

	cmd := NewSanitizeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"-o", output}))

	err := run(cmd, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bearer Token")
	assert.NoFileExists(t, output)
}

func TestRunInvalidFormat(t *testing.T) {
	cmd := NewSanitizeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--format", "xml"}))

	err := run(cmd, writeFile(t, "wf.json", []byte(exportedWorkflow)))
	assert.ErrorContains(t, err, "unsupported output format")
}
