package sanitize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/CompassSecurity/flowleek/pkg/config"
	"github.com/CompassSecurity/flowleek/pkg/format"
	"github.com/CompassSecurity/flowleek/pkg/report"
	pkgsanitize "github.com/CompassSecurity/flowleek/pkg/sanitize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type SanitizeCmdOptions struct {
	config.SanitizeOptions
	ConfigFile   string
	Output       string
	OutputFormat string
	Manifest     string
	MaxInputSize string
}

var options SanitizeCmdOptions

// optionFlags maps configuration keys to the flags overriding them.
var optionFlags = map[string]string{
	"keep-hosts":       "keep-host",
	"rules":            "rules",
	"gitleaks":         "gitleaks",
	"trufflehog":       "trufflehog",
	"threads":          "threads",
	"detector-timeout": "detector-timeout",
}

func NewSanitizeCmd() *cobra.Command {
	sanitizeCmd := &cobra.Command{
		Use:   "sanitize <workflow.json|->",
		Short: "Sanitize an exported workflow for publishing",
		Long: `Sanitize an exported workflow so it can be shared as a template.

The workflow is rejected when it contains a secret: API keys, tokens and passwords
in parameters, in code node scripts or referenced through expressions. Nothing is
written in that case.

Otherwise instance specific values are replaced by named placeholders:
- absolute URLs become ${HOST_URL} variables
- resource locators picked from a list become ${FIELD} variables in id mode
- credential bindings lose their id and are named ${TYPE_CREDENTIAL}

### Configuration
All sanitizer options can be set in a YAML, JSON or TOML file passed with --config.
Flags take precedence over FLOWLEEK_* environment variables, which take precedence over the file.
		`,
		Example: `
# Sanitize an export and print it to stdout
flowleek sanitize workflow.json

# Keep public API URLs and write YAML
flowleek sanitize workflow.json --keep-host api.openai.com --keep-host hooks.slack.com --format yaml -o template.yaml

# Read from stdin, run the extended detector banks and write a manifest of the placeholders
cat workflow.json | flowleek sanitize - --gitleaks --trufflehog --manifest manifest.json
		`,
		Args: cobra.ExactArgs(1),
		Run:  Sanitize,
	}

	defaults := config.DefaultSanitizeOptions()
	flags := sanitizeCmd.Flags()
	flags.StringVarP(&options.ConfigFile, "config", "c", "", "Configuration file with sanitizer options")
	flags.StringVarP(&options.Output, "output", "o", "", "Write the sanitized workflow to this file instead of stdout")
	flags.StringVarP(&options.OutputFormat, "format", "f", "json", "Output format: json or yaml")
	flags.StringVarP(&options.Manifest, "manifest", "m", "", "Write the detected variables, credentials and warnings to this JSON file")
	flags.StringVarP(&options.MaxInputSize, "max-size", "", "10MB", "Max input size, e.g. 500KB, 10MB")

	flags.StringSliceVarP(&options.KeepHosts, "keep-host", "k", defaults.KeepHosts, "Host whose URLs are kept as they are, subdomains included (repeatable)")
	flags.StringVarP(&options.RulesFile, "rules", "r", defaults.RulesFile, "YAML file with additional rules and expressions")
	flags.BoolVarP(&options.Gitleaks, "gitleaks", "", defaults.Gitleaks, "Also run the gitleaks detector bank")
	flags.BoolVarP(&options.TruffleHog, "trufflehog", "", defaults.TruffleHog, "Also run the trufflehog detector bank, secrets are never verified")
	flags.IntVarP(&options.MaxScanGoRoutines, "threads", "", defaults.MaxScanGoRoutines, "Number of concurrent trufflehog detectors")
	flags.DurationVarP(&options.DetectorTimeout, "detector-timeout", "", defaults.DetectorTimeout, "Time limit for the detector banks, 0 disables it")

	return sanitizeCmd
}

func Sanitize(cmd *cobra.Command, args []string) {
	if err := run(cmd, args[0]); err != nil {
		var rejected *pkgsanitize.Error
		if errors.As(err, &rejected) {
			report.Rejection(rejected)
			log.Fatal().Msg("Refusing to publish a workflow containing secrets")
		}
		log.Fatal().Err(err).Msg("Sanitizing workflow failed")
	}
}

func run(cmd *cobra.Command, input string) error {
	opts, err := loadOptions(cmd, options.ConfigFile)
	if err != nil {
		return err
	}
	outputFormat := strings.ToLower(options.OutputFormat)
	if outputFormat != "json" && outputFormat != "yaml" {
		return fmt.Errorf("unsupported output format %q", options.OutputFormat)
	}
	maxSize, err := config.ParseMaxInputSize(options.MaxInputSize)
	if err != nil {
		return err
	}

	data, err := readInput(input, maxSize)
	if err != nil {
		return err
	}
	def, err := decodeWorkflow(data)
	if err != nil {
		return err
	}

	sanitizer, err := pkgsanitize.New(opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := sanitizer.SanitizeContext(ctx, def)
	if err != nil {
		return err
	}
	report.Result(result)

	out, err := render(result.Sanitized, outputFormat)
	if err != nil {
		return err
	}
	if err := writeOutput(options.Output, out); err != nil {
		return err
	}
	if options.Manifest != "" {
		if err := writeManifest(options.Manifest, result); err != nil {
			return err
		}
	}
	return nil
}

// loadOptions merges flags, the configuration file and FLOWLEEK_* environment
// variables into sanitizer options.
func loadOptions(cmd *cobra.Command, configFile string) (config.SanitizeOptions, error) {
	v := viper.New()
	v.SetEnvPrefix("FLOWLEEK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range optionFlags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return config.SanitizeOptions{}, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return config.SanitizeOptions{}, fmt.Errorf("config file not found at %s: %w", configFile, err)
			}
			return config.SanitizeOptions{}, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		log.Debug().Str("file", configFile).Msg("Loaded config file")
	}

	opts := config.DefaultSanitizeOptions()
	if err := v.Unmarshal(&opts); err != nil {
		return config.SanitizeOptions{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return opts, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, format.FilePublicRead); err != nil {
		return fmt.Errorf("failed writing sanitized workflow: %w", err)
	}
	log.Info().Str("file", path).Msg("Wrote sanitized workflow")
	return nil
}
