package docx

import (
	"testing"

	"github.com/beevik/etree"

	"github.com/Astalist/AutoStyleOfReport/internal/markup"
)

func blankSession(t *testing.T) *Session {
	t.Helper()

	blank, err := blankPackage()
	if err != nil {
		t.Fatalf("blankPackage: %v", err)
	}

	return mustSession(t, blank)
}

func documentBody(t *testing.T, s *Session) *etree.Element {
	t.Helper()

	doc, err := s.Part(documentPart)
	if err != nil {
		t.Fatalf("Part(%s): %v", documentPart, err)
	}

	body := findBody(doc)
	if body == nil {
		t.Fatalf("document has no body")
	}

	return body
}

func TestAppendBlocksParagraphStyles(t *testing.T) {
	s := blankSession(t)

	blocks := []markup.Block{
		{Kind: markup.KindTitle, Text: "Quarterly Report"},
		{Kind: markup.KindHeading1, Text: "Overview"},
		{Kind: markup.KindText, Text: "Plain prose."},
	}

	styles := StyleNames{
		markup.KindTitle:    "Title",
		markup.KindHeading1: "Heading1",
		markup.KindText:     "Normal",
	}

	if err := AppendBlocks(s, blocks, styles); err != nil {
		t.Fatalf("AppendBlocks: %v", err)
	}

	body := documentBody(t, s)

	var paragraphs []*etree.Element

	for _, child := range body.ChildElements() {
		if child.Tag == "p" {
			paragraphs = append(paragraphs, child)
		}
	}

	if len(paragraphs) != 3 {
		t.Fatalf("paragraph count = %d, want 3", len(paragraphs))
	}

	wantStyles := []string{"Title", "Heading1", "Normal"}
	wantText := []string{"Quarterly Report", "Overview", "Plain prose."}

	for i, p := range paragraphs {
		style := p.FindElement("w:pPr/w:pStyle")
		if style == nil {
			t.Fatalf("paragraph %d has no style", i)
		}

		if got := style.SelectAttrValue("w:val", ""); got != wantStyles[i] {
			t.Errorf("paragraph %d style = %q, want %q", i, got, wantStyles[i])
		}

		text := p.FindElement("w:r/w:t")
		if text == nil || text.Text() != wantText[i] {
			t.Errorf("paragraph %d text mismatch, want %q", i, wantText[i])
		}
	}
}

func TestAppendBlocksKeepsSectPrLast(t *testing.T) {
	s := blankSession(t)

	blocks := []markup.Block{{Kind: markup.KindText, Text: "one"}, {Kind: markup.KindText, Text: "two"}}

	if err := AppendBlocks(s, blocks, StyleNames{markup.KindText: "Normal"}); err != nil {
		t.Fatalf("AppendBlocks: %v", err)
	}

	body := documentBody(t, s)

	children := body.ChildElements()
	if len(children) == 0 {
		t.Fatalf("body is empty")
	}

	if got := children[len(children)-1].Tag; got != "sectPr" {
		t.Errorf("last body element = %s, want sectPr", got)
	}
}

func TestAppendBlocksTable(t *testing.T) {
	s := blankSession(t)

	blocks := []markup.Block{{
		Kind: markup.KindTable,
		Rows: [][]string{{"Name", "Score"}, {"alice", "10"}, {"bob", "7"}},
	}}

	if err := AppendBlocks(s, blocks, nil); err != nil {
		t.Fatalf("AppendBlocks: %v", err)
	}

	body := documentBody(t, s)

	tbl := body.FindElement("w:tbl")
	if tbl == nil {
		t.Fatalf("no table appended")
	}

	if got := tbl.FindElement("w:tblPr/w:tblStyle").SelectAttrValue("w:val", ""); got != tableStyleName {
		t.Errorf("table style = %q, want %q", got, tableStyleName)
	}

	rows := tbl.FindElements("w:tr")
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}

	for i, tr := range rows {
		if n := len(tr.FindElements("w:tc")); n != 2 {
			t.Errorf("row %d cell count = %d, want 2", i, n)
		}
	}

	headerCell := rows[0].FindElements("w:tc")[0]

	shd := headerCell.FindElement("w:tcPr/w:shd")
	if shd == nil {
		t.Fatalf("header cell has no shading")
	}

	if got := shd.SelectAttrValue("w:fill", ""); got != headerShadeFill {
		t.Errorf("header fill = %q, want %q", got, headerShadeFill)
	}

	if headerCell.FindElement("w:p/w:r/w:rPr/w:b") == nil {
		t.Errorf("header run is not bold")
	}

	if got := headerCell.FindElement("w:p/w:pPr/w:jc").SelectAttrValue("w:val", ""); got != "center" {
		t.Errorf("header alignment = %q, want center", got)
	}

	bodyCell := rows[1].FindElements("w:tc")[0]

	if bodyCell.FindElement("w:tcPr/w:shd") != nil {
		t.Errorf("body cell unexpectedly shaded")
	}

	if bodyCell.FindElement("w:p/w:r/w:rPr/w:b") != nil {
		t.Errorf("body run unexpectedly bold")
	}

	if got := bodyCell.FindElement("w:p/w:r/w:rPr/w:sz").SelectAttrValue("w:val", ""); got != tableFontSize {
		t.Errorf("body run size = %q, want %q", got, tableFontSize)
	}

	if got := bodyCell.FindElement("w:p/w:r/w:t").Text(); got != "alice" {
		t.Errorf("body cell text = %q, want alice", got)
	}
}

func TestAppendBlocksShortAndWideRows(t *testing.T) {
	s := blankSession(t)

	blocks := []markup.Block{{
		Kind: markup.KindTable,
		Rows: [][]string{{"A", "B", "C"}, {"only"}, {"w", "x", "y", "z"}},
	}}

	if err := AppendBlocks(s, blocks, nil); err != nil {
		t.Fatalf("AppendBlocks: %v", err)
	}

	tbl := documentBody(t, s).FindElement("w:tbl")
	rows := tbl.FindElements("w:tr")

	short := rows[1].FindElements("w:tc")
	if len(short) != 3 {
		t.Fatalf("short row padded to %d cells, want 3", len(short))
	}

	if short[1].FindElement("w:p/w:r") != nil || short[2].FindElement("w:p/w:r") != nil {
		t.Errorf("padding cells carry runs, want empty paragraphs")
	}

	wide := rows[2].FindElements("w:tc")
	if len(wide) != 3 {
		t.Fatalf("wide row truncated to %d cells, want 3", len(wide))
	}

	if got := wide[2].FindElement("w:p/w:r/w:t").Text(); got != "y" {
		t.Errorf("last kept cell = %q, want y", got)
	}
}

func TestAppendBlocksDropsEmptyTable(t *testing.T) {
	s := blankSession(t)

	if err := AppendBlocks(s, []markup.Block{{Kind: markup.KindTable}}, nil); err != nil {
		t.Fatalf("AppendBlocks: %v", err)
	}

	if documentBody(t, s).FindElement("w:tbl") != nil {
		t.Errorf("empty table block produced a table")
	}
}

func TestSetRunTextPreservesEdgeSpaces(t *testing.T) {
	tests := []struct {
		text         string
		wantPreserve bool
	}{
		{"plain", false},
		{" leading", true},
		{"trailing ", true},
		{"", false},
	}

	for _, tt := range tests {
		r := etree.NewElement("w:r")
		setRunText(r, tt.text)

		got := r.FindElement("w:t").SelectAttrValue("xml:space", "") == "preserve"
		if got != tt.wantPreserve {
			t.Errorf("setRunText(%q) preserve = %v, want %v", tt.text, got, tt.wantPreserve)
		}
	}
}
