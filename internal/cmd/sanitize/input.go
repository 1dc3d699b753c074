package sanitize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/CompassSecurity/flowleek/pkg/workflow"
	units "github.com/docker/go-units"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// readInput reads the exported workflow from path, or stdin for "-".
func readInput(path string, maxSize int64) ([]byte, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		// #nosec G304 - input path is chosen by the user
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed opening workflow: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed reading workflow: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("workflow exceeds the max input size of %s", units.HumanSize(float64(maxSize)))
	}
	if err := checkContentType(data); err != nil {
		return nil, err
	}

	log.Debug().Str("input", path).Str("size", units.HumanSize(float64(len(data)))).Msg("Read workflow")
	return bytes.TrimPrefix(data, utf8BOM), nil
}

// checkContentType rejects binary input. Exports are plain text, so every
// type filetype recognizes is wrong.
func checkContentType(data []byte) error {
	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return nil
	}
	if filetype.IsArchive(data) {
		return fmt.Errorf("input is a %s archive, extract the exported workflow first", kind.Extension)
	}
	return fmt.Errorf("input is a %s file, not an exported workflow", kind.MIME.Value)
}

// decodeWorkflow parses strict JSON and falls back to JSON5 for hand edited
// exports with comments or trailing commas.
func decodeWorkflow(data []byte) (*workflow.Definition, error) {
	if gjson.ValidBytes(data) {
		return workflow.Parse(data)
	}

	var relaxed any
	if err := json5.Unmarshal(data, &relaxed); err != nil {
		return nil, fmt.Errorf("%w: neither JSON nor JSON5: %w", workflow.ErrInvalidDefinition, err)
	}
	strict, err := json.Marshal(relaxed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workflow.ErrInvalidDefinition, err)
	}
	log.Debug().Msg("Parsed workflow as JSON5")
	return workflow.Parse(strict)
}
