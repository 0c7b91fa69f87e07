package docx

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// StyleInfo describes one style definition from word/styles.xml.
type StyleInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// Precompiled XPath expressions over the styles part. local-name() keeps
// the queries namespace-prefix agnostic.
var (
	styleExpr     = xpath.MustCompile(`//*[local-name()='style']`)
	styleNameExpr = xpath.MustCompile(`*[local-name()='name']`)
)

// ListStyles returns every style defined in the package's styles part, in
// definition order. A package without a styles part yields an empty list.
func ListStyles(session *Session) ([]StyleInfo, error) {
	if !session.HasPart(stylesPart) {
		return nil, nil
	}

	raw, err := session.RawPart(stylesPart)
	if err != nil {
		return nil, err
	}

	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", stylesPart, err)
	}

	var styles []StyleInfo

	for _, node := range xmlquery.QuerySelectorAll(doc, styleExpr) {
		info := StyleInfo{
			ID:   selectAttr(node, "styleId"),
			Type: selectAttr(node, "type"),
		}

		if name := xmlquery.QuerySelector(node, styleNameExpr); name != nil {
			info.Name = selectAttr(name, "val")
		}

		if info.ID == "" {
			continue
		}

		styles = append(styles, info)
	}

	return styles, nil
}

// StyleIDs returns the set of defined style IDs for membership checks.
func StyleIDs(session *Session) (map[string]bool, error) {
	styles, err := ListStyles(session)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(styles))
	for _, s := range styles {
		ids[s.ID] = true
	}

	return ids, nil
}

// selectAttr returns an attribute value matching the local name with any
// (or no) namespace prefix.
func selectAttr(node *xmlquery.Node, local string) string {
	for _, attr := range node.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}

	return ""
}
