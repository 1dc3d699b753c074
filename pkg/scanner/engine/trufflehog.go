package engine

import (
	"bytes"
	"context"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/trufflesecurity/trufflehog/v3/pkg/detectors"
	"github.com/trufflesecurity/trufflehog/v3/pkg/engine/defaults"
	"github.com/wandb/parallel"
)

// TruffleHogDetector runs the trufflehog detectors whose keywords occur in the
// scanned data, with verification disabled.
type TruffleHogDetector struct {
	threads   int
	detectors []detectors.Detector
}

func NewTruffleHogDetector(threads int) *TruffleHogDetector {
	if threads < 1 {
		threads = 1
	}
	return &TruffleHogDetector{threads: threads, detectors: defaults.DefaultDetectors()}
}

func (t *TruffleHogDetector) Name() string {
	return "trufflehog"
}

func (t *TruffleHogDetector) Detect(ctx context.Context, data []byte) ([]Finding, error) {
	lower := bytes.ToLower(data)
	group := parallel.Collect[[]Finding](parallel.Limited(ctx, t.threads))

	for _, detector := range t.detectors {
		if !containsKeyword(lower, detector.Keywords()) {
			continue
		}
		group.Go(func(ctx context.Context) ([]Finding, error) {
			results, err := detector.FromData(ctx, false, data)
			if err != nil {
				return nil, err
			}

			findings := []Finding{}
			for _, result := range results {
				secret := result.Raw
				if len(result.RawV2) > 0 {
					secret = result.RawV2
				}
				findings = append(findings, Finding{Detector: t.Name(), Rule: result.DetectorType.String(), Secret: string(secret)})
			}
			return findings, nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		log.Debug().Err(err).Msg("Trufflehog detector failed")
		return nil, err
	}
	return slices.Concat(results...), nil
}

func containsKeyword(lower []byte, keywords []string) bool {
	for _, keyword := range keywords {
		if bytes.Contains(lower, bytes.ToLower([]byte(keyword))) {
			return true
		}
	}
	return false
}
