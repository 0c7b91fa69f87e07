// Package markup parses the constrained HTML-tagged dialect used as input
// for report generation. The input is line-oriented: every line is classified
// into a title, a text paragraph, or the start of a multi-line table region.
package markup

import (
	"regexp"
	"strings"
)

// Kind identifies the block type a line (or line region) was classified as.
type Kind int

const (
	// KindText is a body-text paragraph.
	KindText Kind = iota
	// KindTitle is the document main title.
	KindTitle
	// KindHeading1 through KindHeading3 are section heading levels.
	KindHeading1
	KindHeading2
	KindHeading3
	// KindTable is a table region parsed from <table>...</table>.
	KindTable
)

// String returns a short name for the kind, used in logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindHeading1:
		return "heading1"
	case KindHeading2:
		return "heading2"
	case KindHeading3:
		return "heading3"
	case KindTable:
		return "table"
	default:
		return "text"
	}
}

// Block is one parsed unit of input. Text is set for paragraph kinds,
// Rows for KindTable (first row is the header when one was present).
type Block struct {
	Kind Kind
	Text string
	Rows [][]string
}

// divTextRe extracts the inner text of a single-line <div ...>text</div>.
// The capture is non-greedy so trailing markup on the same line is ignored.
var divTextRe = regexp.MustCompile(`>(.*?)</div>`)

// openers maps a tagged-div prefix to the block kind it produces.
// Order matters: "title" must be checked after none of the longer
// class names could match, which the distinct prefixes guarantee.
var openers = []struct {
	prefix string
	kind   Kind
}{
	{`<div class="title"`, KindTitle},
	{`<div class="text"`, KindText},
	{`<div class="onetitle"`, KindHeading1},
	{`<div class="twotitle"`, KindHeading2},
	{`<div class="threetitle"`, KindHeading3},
}

// Parse walks the input line by line and returns the ordered block sequence.
//
// Classification happens on the trimmed line, first match wins:
// tagged divs become single-line title/text blocks, "<table>" opens a
// multi-line capture that ends at the matching "</table>" (or end of input),
// any other non-empty line that is not a stray closing tag falls back to a
// text block. Empty lines and unmatched closing tags produce nothing.
func Parse(input string) []Block {
	lines := strings.Split(input, "\n")

	var blocks []Block

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if kind, ok := matchOpener(line); ok {
			if text, found := divText(line); found {
				blocks = append(blocks, Block{Kind: kind, Text: text})
			}

			continue
		}

		if strings.HasPrefix(line, "<table>") {
			var region []string

			// Skip the <table> line, then buffer every raw line until the
			// closing tag. The loop leaves i on the </table> line; the outer
			// increment steps past it.
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "</table>") {
				region = append(region, lines[i])
				i++
			}

			rows := parseTableRegion(strings.Join(region, "\n"))
			if len(rows) > 0 {
				blocks = append(blocks, Block{Kind: KindTable, Rows: rows})
			}

			continue
		}

		// Fallback: untagged prose becomes body text. Stray closing tags
		// (e.g. a </div> on its own line) are ignored.
		if line != "" && !strings.HasPrefix(line, "</") {
			blocks = append(blocks, Block{Kind: KindText, Text: line})
		}
	}

	return blocks
}

// matchOpener returns the block kind for a tagged-div line.
func matchOpener(line string) (Kind, bool) {
	for _, o := range openers {
		if strings.HasPrefix(line, o.prefix) {
			return o.kind, true
		}
	}

	return KindText, false
}

// divText extracts the text between the first ">" and the first "</div>"
// on the line. Lines without a closing tag yield no block at all.
func divText(line string) (string, bool) {
	m := divTextRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	return m[1], true
}
