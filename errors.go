package nutrisense

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when the latest user message is blank.
	ErrEmptyQuery = errors.New("empty or invalid query")

	// ErrConflictingContent is returned when more than one of recipe, diet
	// plan and nutritional info is populated on a single state.
	ErrConflictingContent = errors.New("state holds more than one generated content kind")
)

type ModelErrorKind string

const (
	ModelErrorTimeout     ModelErrorKind = "timeout"
	ModelErrorQuota       ModelErrorKind = "quota"
	ModelErrorMalformed   ModelErrorKind = "malformed_output"
	ModelErrorUnavailable ModelErrorKind = "unavailable"
)

// ModelError is a step-scoped failure of a single model invocation.
type ModelError struct {
	Model string
	Kind  ModelErrorKind
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError classifies err by context state. Backends that can detect
// quota errors build the error themselves.
func NewModelError(model string, err error) *ModelError {
	kind := ModelErrorUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ModelErrorTimeout
	}
	return &ModelError{Model: model, Kind: kind, Err: err}
}

// IsModelError reports whether err is a ModelError of the given kind.
func IsModelError(err error, kind ModelErrorKind) bool {
	var me *ModelError
	return errors.As(err, &me) && me.Kind == kind
}
