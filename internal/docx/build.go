package docx

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/Astalist/AutoStyleOfReport/internal/markup"
)

// Fixed table formatting: the visual table style, the run size in
// half-points (10pt), and the header background fill.
const (
	tableStyleName  = "TableGrid"
	tableFontSize   = "20"
	headerShadeFill = "5B9BD5"
)

// headerShadingXML is the raw cell-properties fragment injected into each
// header cell's w:tcPr.
const headerShadingXML = `<w:shd xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" w:val="clear" w:color="auto" w:fill="` + headerShadeFill + `"/>`

// StyleNames is the resolved block-kind to style-ID binding used while
// appending paragraph blocks.
type StyleNames map[markup.Kind]string

// AppendBlocks appends one document node per block (a styled paragraph, or
// a table for table blocks) to the document body, in input order. A trailing
// w:sectPr is kept at the end of the body. Blocks of unknown kind append
// nothing.
func AppendBlocks(session *Session, blocks []markup.Block, styles StyleNames) error {
	doc, err := session.Part(documentPart)
	if err != nil {
		return err
	}

	body := findBody(doc)
	if body == nil {
		return errNoBody
	}

	// Detach the section properties so appended content stays before them.
	var sectPr *etree.Element

	children := body.ChildElements()
	if len(children) > 0 {
		last := children[len(children)-1]
		if last.Tag == "sectPr" {
			sectPr = last
			body.RemoveChild(last)
		}
	}

	for _, b := range blocks {
		switch b.Kind {
		case markup.KindTable:
			if len(b.Rows) == 0 {
				continue
			}

			tbl, err := buildTable(b.Rows)
			if err != nil {
				return fmt.Errorf("build table: %w", err)
			}

			body.AddChild(tbl)
		case markup.KindTitle, markup.KindHeading1, markup.KindHeading2, markup.KindHeading3, markup.KindText:
			body.AddChild(buildStyledParagraph(b.Text, styles[b.Kind]))
		}
	}

	if sectPr != nil {
		body.AddChild(sectPr)
	}

	session.MarkDirty(documentPart)

	return nil
}

// findBody locates the w:body element in the document.
func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}

	for _, child := range root.ChildElements() {
		if child.Tag == "body" {
			return child
		}
	}

	return nil
}

// buildStyledParagraph creates a w:p bound to the given style with a single
// run holding the text.
func buildStyledParagraph(text, style string) *etree.Element {
	p := etree.NewElement("w:p")

	if style != "" {
		pPr := p.CreateElement("w:pPr")
		pStyle := pPr.CreateElement("w:pStyle")
		pStyle.CreateAttr("w:val", style)
	}

	r := p.CreateElement("w:r")
	setRunText(r, text)

	return p
}

// setRunText gives a run a single w:t with the text, preserving significant
// leading/trailing spaces.
func setRunText(r *etree.Element, text string) {
	t := r.CreateElement("w:t")
	t.SetText(text)

	if len(text) > 0 && (text[0] == ' ' || text[len(text)-1] == ' ') {
		t.CreateAttr("xml:space", "preserve")
	}
}

// buildTable creates a w:tbl from the row matrix. The first row is the
// header: bold, centered, 10pt, shaded. Remaining rows are body rows:
// centered, 10pt, no bold, no shading. The header fixes the column count;
// shorter body rows leave trailing cells empty and longer rows are
// truncated positionally.
func buildTable(rows [][]string) (*etree.Element, error) {
	cols := len(rows[0])

	tbl := etree.NewElement("w:tbl")

	tblPr := tbl.CreateElement("w:tblPr")
	tblStyle := tblPr.CreateElement("w:tblStyle")
	tblStyle.CreateAttr("w:val", tableStyleName)
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", "0")
	tblW.CreateAttr("w:type", "auto")

	header := tbl.CreateElement("w:tr")

	for j := 0; j < cols; j++ {
		cell, err := buildTableCell(rows[0][j], true)
		if err != nil {
			return nil, err
		}

		header.AddChild(cell)
	}

	for _, row := range rows[1:] {
		tr := tbl.CreateElement("w:tr")

		for j := 0; j < cols; j++ {
			if j >= len(row) {
				// Cells past the row's width stay in their default
				// empty state.
				tr.AddChild(buildEmptyCell())

				continue
			}

			cell, err := buildTableCell(row[j], false)
			if err != nil {
				return nil, err
			}

			tr.AddChild(cell)
		}
	}

	return tbl, nil
}

// buildTableCell creates a w:tc holding one centered 10pt run. Header cells
// additionally get bold runs and the background shade fragment in w:tcPr.
func buildTableCell(text string, header bool) (*etree.Element, error) {
	tc := etree.NewElement("w:tc")

	if header {
		tcPr := tc.CreateElement("w:tcPr")

		shd, err := parseShadingFragment()
		if err != nil {
			return nil, err
		}

		tcPr.AddChild(shd)
	}

	p := tc.CreateElement("w:p")
	pPr := p.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", "center")

	r := p.CreateElement("w:r")
	rPr := r.CreateElement("w:rPr")

	if header {
		rPr.CreateElement("w:b")
	}

	sz := rPr.CreateElement("w:sz")
	sz.CreateAttr("w:val", tableFontSize)
	szCs := rPr.CreateElement("w:szCs")
	szCs.CreateAttr("w:val", tableFontSize)

	setRunText(r, text)

	return tc, nil
}

// buildEmptyCell creates a w:tc with an empty paragraph.
func buildEmptyCell() *etree.Element {
	tc := etree.NewElement("w:tc")
	tc.CreateElement("w:p")

	return tc
}

// parseShadingFragment parses the raw shading XML into an element ready to
// attach to a w:tcPr.
func parseShadingFragment() (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(headerShadingXML); err != nil {
		return nil, fmt.Errorf("parse shading fragment: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("shading fragment has no root element")
	}

	return root.Copy(), nil
}
