package markup

import (
	"regexp"
	"strings"
)

// Table-section patterns. (?s) makes "." span newlines so a section can be
// spread over several lines; captures are non-greedy so sibling sections
// never merge.
var (
	theadRe = regexp.MustCompile(`(?s)<thead>(.*?)</thead>`)
	tbodyRe = regexp.MustCompile(`(?s)<tbody>(.*?)</tbody>`)
	trRe    = regexp.MustCompile(`(?s)<tr>(.*?)</tr>`)
	thRe    = regexp.MustCompile(`(?s)<th>(.*?)</th>`)

	// Body cells accept <th> as well as <td>: real-world input frequently
	// uses header cell tags inside tbody rows.
	cellRe = regexp.MustCompile(`(?s)<(?:th|td)>(.*?)</(?:th|td)>`)
)

// parseTableRegion extracts the row matrix from the buffered lines between
// <table> and </table>. The header row (from <thead>, if any cells matched)
// comes first, followed by one row per <tbody> <tr> that yielded at least
// one cell. All cell text is trimmed. An empty result means the region had
// no usable rows and no table should be emitted.
func parseTableRegion(text string) [][]string {
	var rows [][]string

	if m := theadRe.FindStringSubmatch(text); m != nil {
		header := extractCells(thRe, m[1])
		if len(header) > 0 {
			rows = append(rows, header)
		}
	}

	if m := tbodyRe.FindStringSubmatch(text); m != nil {
		for _, tr := range trRe.FindAllStringSubmatch(m[1], -1) {
			cells := extractCells(cellRe, tr[1])
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}

	return rows
}

// extractCells runs a cell pattern over a row or section and returns the
// trimmed captures in order.
func extractCells(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	cells := make([]string, 0, len(matches))
	for _, m := range matches {
		cells = append(cells, strings.TrimSpace(m[1]))
	}

	return cells
}
