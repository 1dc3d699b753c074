// Package engine runs the extended detector banks (gitleaks, trufflehog) on
// top of the built-in rule table. Detectors never verify a secret against its
// provider, so no network call is made.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rxwycdh/rxhash"
)

// Finding is a secret reported by a detector. Secret is only used for
// deduplication and must never be logged.
type Finding struct {
	Detector string
	Rule     string
	Secret   string
}

// RuleName is the rule label used when merging the finding into scan hits.
func (f Finding) RuleName() string {
	return f.Detector + ": " + f.Rule
}

type Detector interface {
	Name() string
	Detect(ctx context.Context, data []byte) ([]Finding, error)
}

// Bank is a set of detectors run one after the other.
type Bank []Detector

// Run feeds data to every detector of the bank and returns the deduplicated
// findings. It fails when a detector fails or timeout elapses.
func (b Bank) Run(ctx context.Context, data []byte, timeout time.Duration) ([]Finding, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var all []Finding
	for _, detector := range b {
		start := time.Now()
		findings, err := detector.Detect(ctx, data)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%s detection timed out (%s)", detector.Name(), timeout)
			}
			return nil, fmt.Errorf("%s detection failed: %w", detector.Name(), err)
		}
		log.Debug().Str("detector", detector.Name()).Int("findings", len(findings)).Dur("took", time.Since(start)).Msg("Detector finished")
		all = append(all, findings...)
	}
	return deduplicateFindings(all), nil
}

func deduplicateFindings(findings []Finding) []Finding {
	seen := map[string]struct{}{}
	deduped := []Finding{}
	for _, finding := range findings {
		hash, err := rxhash.HashStruct(finding)
		if err != nil {
			hash = finding.Detector + "\x00" + finding.Rule + "\x00" + finding.Secret
		}
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		deduped = append(deduped, finding)
	}
	return deduped
}
