// Package outfmt carries the output mode (text or JSON) through the command
// context and renders JSON results, optionally filtered by a jq expression.
package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

var errInvalidMode = errors.New("invalid --output (expected text|json)")

// Parse resolves a mode string. Empty means text.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText, "":
		return ModeText, nil
	case ModeJSON:
		return ModeJSON, nil
	default:
		return "", errInvalidMode
	}
}

type modeKey struct{}

type jqKey struct{}

// WithMode attaches the output mode to the context.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// WithJQ attaches a jq expression applied to JSON output.
func WithJQ(ctx context.Context, expr string) context.Context {
	if expr == "" {
		return ctx
	}

	return context.WithValue(ctx, jqKey{}, expr)
}

// FromContext returns the output mode, defaulting to text.
func FromContext(ctx context.Context) Mode {
	if v := ctx.Value(modeKey{}); v != nil {
		if m, ok := v.(Mode); ok {
			return m
		}
	}

	return ModeText
}

// JQFromContext returns the jq expression, or "".
func JQFromContext(ctx context.Context) string {
	if v := ctx.Value(jqKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return ""
}

// IsJSON reports whether the context requests JSON output.
func IsJSON(ctx context.Context) bool {
	return FromContext(ctx) == ModeJSON
}

// WriteJSON encodes v as indented JSON. When the context carries a jq
// expression the encoded value is filtered through it first.
func WriteJSON(ctx context.Context, w io.Writer, v any) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	if expr := JQFromContext(ctx); expr != "" {
		out, err := ApplyJQ(buf.Bytes(), expr)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(out))

		return err
	}

	_, err := w.Write(buf.Bytes())

	return err
}
