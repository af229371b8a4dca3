// Package expert provides the optional free-text planning review that a
// compliance check can attach at the EXPERT level. Every analyzer failure is
// recoverable: callers record it on the report and carry on.
package expert

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no expert analysis can be produced,
// either because none is configured or because the circuit is open.
var ErrUnavailable = errors.New("expert analysis unavailable")

// Analyzer turns a structured prompt into free-form analysis text.
type Analyzer interface {
	Analyze(ctx context.Context, prompt Prompt) (string, error)
}

// ModelNamer is implemented by analyzers backed by a named model.
type ModelNamer interface {
	Model() string
}

// ModelOf returns the model behind a, or "" if it does not name one.
func ModelOf(a Analyzer) string {
	if n, ok := a.(ModelNamer); ok {
		return n.Model()
	}
	return ""
}

// Unavailable is the Analyzer used when no model is configured.
type Unavailable struct{}

func (Unavailable) Analyze(context.Context, Prompt) (string, error) {
	return "", ErrUnavailable
}
