package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/pipeline"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// errorText is the one-line form of err shown in the status bar.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrNotFound):
		return "Movie not found"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return pipeline.DefaultErrorMessage
}
