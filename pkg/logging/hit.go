// Package logging provides the "hit" log level used to report rejected
// secrets. Hits are always emitted, whatever the global log level.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Source names the scanner that reported a hit.
type Source string

const (
	// SourceDefinition is the pattern scan over the whole serialized definition.
	SourceDefinition Source = "definition"
	// SourceCode is the pattern scan restricted to script bodies of code nodes.
	SourceCode Source = "code"
	// SourceExpression is the templated expression scan.
	SourceExpression Source = "expression"
	// SourceDetector is an extended detector bank (gitleaks, trufflehog).
	SourceDetector Source = "detector"
)

// HitLevel is written as warn by zerolog and renamed to "hit" in the output.
const HitLevel zerolog.Level = zerolog.WarnLevel

// HitLevelWriter wraps an io.Writer and rewrites the level of the next entry
// to "hit" when it was marked.
type HitLevelWriter struct {
	out       io.Writer
	mu        sync.Mutex
	nextIsHit bool
}

func (w *HitLevelWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	isHit := w.nextIsHit
	w.nextIsHit = false
	out := w.out
	w.mu.Unlock()

	if isHit && len(p) > 0 {
		var logEntry map[string]any
		if err := json.Unmarshal(p, &logEntry); err == nil {
			if logEntry["level"] == "warn" || logEntry["level"] == "error" {
				logEntry["level"] = "hit"
			}
			delete(logEntry, "_hit")

			if newBytes, err := json.Marshal(logEntry); err == nil {
				newBytes = append(newBytes, '\n')
				if _, err := out.Write(newBytes); err != nil {
					return 0, err
				}
				return len(p), nil
			}
		}
	}

	return out.Write(p)
}

func (w *HitLevelWriter) markNextAsHit() {
	w.mu.Lock()
	w.nextIsHit = true
	w.mu.Unlock()
}

func (w *HitLevelWriter) SetOutput(out io.Writer) {
	w.mu.Lock()
	w.out = out
	w.mu.Unlock()
}

func NewHitLevelWriter(out io.Writer) *HitLevelWriter {
	return &HitLevelWriter{out: out}
}

// HitEvent wraps a zerolog.Event logged with the hit level.
type HitEvent struct {
	event  *zerolog.Event
	writer *HitLevelWriter
}

func (h *HitEvent) Str(key, val string) *HitEvent {
	h.event.Str(key, val)
	return h
}

func (h *HitEvent) Strs(key string, vals []string) *HitEvent {
	h.event.Strs(key, vals)
	return h
}

func (h *HitEvent) Int(key string, val int) *HitEvent {
	h.event.Int(key, val)
	return h
}

func (h *HitEvent) Source(source Source) *HitEvent {
	h.event.Str("source", string(source))
	return h
}

func (h *HitEvent) Msg(msg string) {
	if h.writer != nil {
		h.writer.markNextAsHit()
	}
	h.event.Bool("_hit", true).Msg(msg)
}

var (
	globalHitWriter     *HitLevelWriter
	globalHitWriterOnce sync.Once
)

func setupGlobalHitWriter() {
	globalHitWriterOnce.Do(func() {
		globalHitWriter = &HitLevelWriter{out: os.Stderr}
		log.Logger = zerolog.New(globalHitWriter).With().Timestamp().Logger()
	})
}

// Hit creates a hit level event.
// Example: logging.Hit().Source(logging.SourceCode).Str("rule", "Slack Token").Msg("SECRET")
func Hit() *HitEvent {
	if globalHitWriter == nil {
		setupGlobalHitWriter()
	}
	return &HitEvent{
		event:  log.WithLevel(zerolog.ErrorLevel),
		writer: globalHitWriter,
	}
}

// ParseLevel extends zerolog.ParseLevel with the "hit" level.
func ParseLevel(levelStr string) (zerolog.Level, error) {
	if levelStr == "hit" {
		return HitLevel, nil
	}
	return zerolog.ParseLevel(levelStr)
}

// SetGlobalHitWriter replaces the writer Hit marks entries on. It must wrap
// the output of log.Logger.
func SetGlobalHitWriter(writer *HitLevelWriter) {
	globalHitWriter = writer
}
