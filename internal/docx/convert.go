package docx

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Astalist/AutoStyleOfReport/internal/config"
	"github.com/Astalist/AutoStyleOfReport/internal/markup"
)

// MIMEDocx is the media type of the produced document blob.
const MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrMissingStyles is returned under the strict style policy when the
// merged document lacks style IDs the input requires.
var ErrMissingStyles = errors.New("required styles missing from template")

// ConvertOptions tunes a conversion.
type ConvertOptions struct {
	// Filename is the desired output name; a missing .docx suffix is
	// appended (case-insensitive check). Empty defaults to "document".
	Filename string

	// Styles maps block kinds to style IDs. Zero value means defaults.
	Styles config.StyleMap

	// StrictStyles selects the missing-style policy (see config.Config).
	StrictStyles bool
}

// Result is the outcome of a successful conversion.
type Result struct {
	Data     []byte `json:"-"`
	Filename string `json:"filename"`
	MIME     string `json:"mime_type"`
	Size     int    `json:"size"`
	Blocks   int    `json:"blocks"`
}

// Convert runs the full pipeline: validate the template, merge its style
// parts into a blank package, parse the markup, and append the resulting
// blocks to the styled shell. It returns complete document bytes or an
// error, never a partial document.
func Convert(templateBytes []byte, markupText string, opts ConvertOptions) (*Result, error) {
	if err := ValidateTemplate(templateBytes); err != nil {
		return nil, err
	}

	merged, err := MergeStyles(templateBytes)
	if err != nil {
		return nil, fmt.Errorf("merge styles: %w", err)
	}

	session, err := OpenBytes(merged)
	if err != nil {
		return nil, fmt.Errorf("open merged package: %w", err)
	}

	blocks := markup.Parse(markupText)
	slog.Debug("parsed markup", "blocks", len(blocks))

	styles, err := resolveStyles(session, blocks, opts)
	if err != nil {
		return nil, err
	}

	if err := AppendBlocks(session, blocks, styles); err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	data, err := session.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}

	return &Result{
		Data:     data,
		Filename: EnsureDocxName(opts.Filename),
		MIME:     MIMEDocx,
		Size:     len(data),
		Blocks:   len(blocks),
	}, nil
}

// EnsureDocxName appends a .docx suffix when the name lacks one
// (case-insensitive). An empty name becomes "document.docx".
func EnsureDocxName(name string) string {
	if name == "" {
		name = "document"
	}

	if !strings.HasSuffix(strings.ToLower(name), ".docx") {
		name += ".docx"
	}

	return name
}

// configuredStyle returns the configured style ID for a paragraph kind.
func configuredStyle(m config.StyleMap, kind markup.Kind) string {
	switch kind {
	case markup.KindTitle:
		return m.Title
	case markup.KindHeading1:
		return m.Heading1
	case markup.KindHeading2:
		return m.Heading2
	case markup.KindHeading3:
		return m.Heading3
	default:
		return m.Body
	}
}

// resolveStyles binds each paragraph kind used by the block stream to a
// style ID, applying the missing-style policy against the styles the merged
// document actually defines.
//
// Strict policy: any used kind whose configured ID is undefined fails the
// conversion, listing every missing ID. Lenient policy: an undefined
// configured ID falls back to the built-in default for that kind when the
// default is defined, and otherwise keeps the configured ID (the document
// renders with Word's own fallback formatting).
func resolveStyles(session *Session, blocks []markup.Block, opts ConvertOptions) (StyleNames, error) {
	styleMap := opts.Styles
	if styleMap == (config.StyleMap{}) {
		styleMap = config.DefaultStyles()
	}

	defined, err := StyleIDs(session)
	if err != nil {
		return nil, err
	}

	defaults := config.DefaultStyles()
	resolved := make(StyleNames)

	var missing []string

	for _, b := range blocks {
		if b.Kind == markup.KindTable {
			continue
		}

		if _, done := resolved[b.Kind]; done {
			continue
		}

		want := configuredStyle(styleMap, b.Kind)

		switch {
		case defined[want]:
			resolved[b.Kind] = want
		case opts.StrictStyles:
			missing = append(missing, want)
		default:
			fallback := configuredStyle(defaults, b.Kind)
			if defined[fallback] {
				slog.Debug("style fallback", "kind", b.Kind.String(), "want", want, "using", fallback)
				resolved[b.Kind] = fallback
			} else {
				resolved[b.Kind] = want
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)

		return nil, fmt.Errorf("%w: %s", ErrMissingStyles, strings.Join(missing, ", "))
	}

	return resolved, nil
}
