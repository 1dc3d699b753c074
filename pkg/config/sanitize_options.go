// Package config provides the configuration types of the sanitizer and the
// helpers used to validate them.
package config

import "time"

// SanitizeOptions configures a sanitizer run. The mapstructure keys are the
// keys accepted in a configuration file.
type SanitizeOptions struct {
	// KeepHosts lists public hosts whose URLs are left as they are. Subdomains
	// of a listed host are kept too.
	KeepHosts []string `mapstructure:"keep-hosts" validate:"dive,hostname_rfc1123"`
	// RulesFile is an optional YAML file with additional rules and expressions.
	RulesFile string `mapstructure:"rules" validate:"omitempty,file"`
	// Gitleaks enables the gitleaks detector bank.
	Gitleaks bool `mapstructure:"gitleaks"`
	// TruffleHog enables the trufflehog detector bank. Secrets are never verified.
	TruffleHog bool `mapstructure:"trufflehog"`
	// MaxScanGoRoutines bounds the number of concurrent trufflehog detectors.
	MaxScanGoRoutines int `mapstructure:"threads" validate:"min=1,max=100"`
	// DetectorTimeout bounds the time spent in the detector banks. Zero disables it.
	DetectorTimeout time.Duration `mapstructure:"detector-timeout" validate:"gte=0"`
}

// DefaultSanitizeOptions returns the options used when nothing is configured.
func DefaultSanitizeOptions() SanitizeOptions {
	return SanitizeOptions{
		KeepHosts:         []string{},
		MaxScanGoRoutines: 4,
		DetectorTimeout:   60 * time.Second,
	}
}
