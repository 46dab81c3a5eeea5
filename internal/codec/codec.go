// Package codec serializes role messages to a compact TOML wire form and
// parses model output back against per-phase shapes. The wire format has no
// null: list fields are normalized to empty lists before serialization, and
// fractional fields keep their floating type so 0.0 never truncates to 0.
package codec

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Normalizable is implemented by message shapes that can scrub
// null-equivalent fields before hitting the wire.
type Normalizable interface {
	Normalize()
}

// Serialize renders a message shape as TOML.
func Serialize(v Normalizable) (string, error) {
	v.Normalize()
	out, err := toml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec: serialize: %w", err)
	}
	return string(out), nil
}

// Parse decodes model output into out, tolerating fenced code blocks and
// leading prose. Integer-looking values are accepted for fractional fields.
func Parse[T any](raw string, out *T) error {
	var lastErr error
	for _, cand := range candidates(raw) {
		if cand == "" {
			continue
		}
		var attempt T
		if err := toml.Unmarshal([]byte(cand), &attempt); err != nil {
			lastErr = err
			continue
		}
		*out = attempt
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no structured payload found")
	}
	return fmt.Errorf("codec: parse: %w", lastErr)
}
