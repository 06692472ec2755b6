package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Outcome records how a decode ended. Reason is set only on fallback and is
// meant for logs, never for API responses.
type Outcome struct {
	Fallback bool
	Reason   string
}

func fellBack(reason string) Outcome { return Outcome{Fallback: true, Reason: reason} }

var errNoObject = errors.New("no JSON object in model output")

// DecodeInto asks client for JSON, extracts the first object, decodes it into
// T and runs validate. Any failure along the way returns fallback.
// validate may normalise the value in place.
func DecodeInto[T any](ctx context.Context, client Client, system, user string, fallback T, validate func(*T) error) (T, Outcome) {
	if client == nil {
		return fallback, fellBack(ErrDisabled.Error())
	}
	raw, err := client.GenerateJSON(ctx, system, user)
	if err != nil {
		return fallback, fellBack(fmt.Sprintf("generate: %v", err))
	}
	out, err := ParseInto[T](raw)
	if err != nil {
		return fallback, fellBack(err.Error())
	}
	if validate != nil {
		if err := validate(&out); err != nil {
			return fallback, fellBack(fmt.Sprintf("validate: %v", err))
		}
	}
	return out, Outcome{}
}

// ParseInto decodes the first balanced object in raw that unmarshals into T.
// When none does, the error of the last attempt is returned.
func ParseInto[T any](raw string) (T, error) {
	var out T
	candidates := JSONObjectCandidates(raw)
	if len(candidates) == 0 {
		return out, errNoObject
	}
	var lastErr error
	for _, obj := range candidates {
		var v T
		if err := json.Unmarshal([]byte(obj), &v); err != nil {
			lastErr = err
			continue
		}
		return v, nil
	}
	return out, fmt.Errorf("decode: %w", lastErr)
}
