package sanitize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/CompassSecurity/flowleek/pkg/format"
	pkgsanitize "github.com/CompassSecurity/flowleek/pkg/sanitize"
	"github.com/CompassSecurity/flowleek/pkg/scanner/rules"
	"github.com/CompassSecurity/flowleek/pkg/workflow"
	"github.com/rs/zerolog/log"
)

func render(def *workflow.Definition, outputFormat string) ([]byte, error) {
	data, err := workflow.MarshalIndent(def)
	if err != nil {
		return nil, err
	}
	if outputFormat == "yaml" {
		return format.PrettyPrintYAML(data)
	}
	return data, nil
}

// manifest is everything a result holds except the artifact itself.
type manifest struct {
	Detected     pkgsanitize.Detected   `json:"detected"`
	SecretCounts map[rules.Category]int `json:"secretCounts"`
	Warnings     []pkgsanitize.Warning  `json:"warnings"`
	Fingerprint  string                 `json:"fingerprint"`
}

func writeManifest(path string, result *pkgsanitize.Result) error {
	data, err := json.MarshalIndent(manifest{
		Detected:     result.Detected,
		SecretCounts: result.SecretCounts,
		Warnings:     result.Warnings,
		Fingerprint:  result.Fingerprint,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed marshalling manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), format.FilePublicRead); err != nil {
		return fmt.Errorf("failed writing manifest: %w", err)
	}
	log.Info().Str("file", path).Msg("Wrote manifest")
	return nil
}
