package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
)

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate checks the options against their struct tags.
func (o SanitizeOptions) Validate() error {
	err := validate().Struct(o)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("invalid sanitize options: %w", err)
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid sanitize options: %s", strings.Join(msgs, "; "))
}

// ParseMaxInputSize parses a human-readable size string (e.g., "5MB") into bytes.
func ParseMaxInputSize(sizeStr string) (int64, error) {
	size, err := units.FromHumanSize(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse max input size: %w", err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("max input size must be positive, got %s", sizeStr)
	}
	return size, nil
}
