package nutrisense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type validator interface {
	Validate() error
}

// InvokeStructured runs req against m and decodes the result into T. A result
// that does not decode or fails validation is a malformed-output ModelError.
func InvokeStructured[T any](ctx context.Context, m Model, req ModelRequest) (*T, error) {
	raw, err := m.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	out := new(T)
	dec := json.NewDecoder(bytes.NewReader(StripCodeFence(raw)))
	if err := dec.Decode(out); err != nil {
		return nil, &ModelError{Model: req.Name, Kind: ModelErrorMalformed, Err: fmt.Errorf("decode %s: %w", req.Name, err)}
	}

	if v, ok := any(out).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &ModelError{Model: req.Name, Kind: ModelErrorMalformed, Err: fmt.Errorf("validate %s: %w", req.Name, err)}
		}
	}
	return out, nil
}

// StripCodeFence removes a surrounding ```json fence some models add.
func StripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
