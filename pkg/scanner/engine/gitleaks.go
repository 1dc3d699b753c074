package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// GitleaksDetector runs the default gitleaks rule set.
type GitleaksDetector struct {
	mu       sync.Mutex
	detector *detect.Detector
}

func NewGitleaksDetector() (*GitleaksDetector, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("error creating default gitleaks detector: %w", err)
	}
	return &GitleaksDetector{detector: detector}, nil
}

func (g *GitleaksDetector) Name() string {
	return "gitleaks"
}

func (g *GitleaksDetector) Detect(ctx context.Context, data []byte) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// the gitleaks detector keeps per-run state
	g.mu.Lock()
	defer g.mu.Unlock()

	var findings []Finding
	for _, f := range g.detector.DetectBytes(data) {
		findings = append(findings, Finding{Detector: g.Name(), Rule: f.RuleID, Secret: f.Secret})
	}
	return findings, nil
}
