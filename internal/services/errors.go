// Package services holds the error taxonomy shared by the pipeline stages
// and external tool clients.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks a nonzero exit or launch failure of flac or 7z.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks structural or metadata problems in an album
	// directory; these exclude the directory but never abort the batch.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable settings or missing required binaries;
	// these abort the run before any output is produced.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a referenced file that does not exist.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
