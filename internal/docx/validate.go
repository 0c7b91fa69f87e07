package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Part paths every well-formed input package must contain.
const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
)

// ErrInvalidTemplate marks rejected-input failures: the template bytes are
// not a ZIP archive or lack a mandatory package part. Callers map it to a
// user-facing message before any processing starts.
var ErrInvalidTemplate = errors.New("invalid docx template")

// mandatoryParts are validated before the merge touches the template.
var mandatoryParts = []string{contentTypesPart, documentPart}

// ValidateTemplate rejects template bytes that are not a well-formed
// package: not a ZIP, or missing a mandatory part.
func ValidateTemplate(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: not a ZIP archive", ErrInvalidTemplate)
	}

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}

	for _, part := range mandatoryParts {
		if !names[part] {
			return fmt.Errorf("%w: missing required part %s", ErrInvalidTemplate, part)
		}
	}

	return nil
}

// CheckResult reports the outcome of a structural document check.
type CheckResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CheckBytes runs structural checks over package bytes:
//  1. the bytes form a valid ZIP
//  2. mandatory parts exist, plus the root relationships
//  3. content-type overrides reference parts that actually exist
//  4. document.xml parses and has a w:document root with a w:body
func CheckBytes(data []byte) *CheckResult {
	result := &CheckResult{Valid: true}

	session, err := OpenBytes(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())

		return result
	}

	required := append([]string{}, mandatoryParts...)
	required = append(required, "_rels/.rels")

	for _, part := range required {
		if !session.HasPart(part) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("missing required part: %s", part))
		}
	}

	if !result.Valid {
		return result
	}

	result.Warnings = append(result.Warnings, checkContentTypes(session)...)

	doc, err := session.Part(documentPart)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("parse %s: %v", documentPart, err))

		return result
	}

	root := doc.Root()
	if root == nil || root.Tag != "document" {
		result.Valid = false
		result.Errors = append(result.Errors, "document.xml root is not w:document")

		return result
	}

	if findBody(doc) == nil {
		result.Valid = false
		result.Errors = append(result.Errors, errNoBody.Error())
	}

	return result
}

// CheckFile runs CheckBytes over a file on disk.
func CheckFile(path string) (*CheckResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-provided document path
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return CheckBytes(data), nil
}

// checkContentTypes warns about Override entries whose part is absent.
func checkContentTypes(session *Session) []string {
	doc, err := session.Part(contentTypesPart)
	if err != nil {
		return []string{fmt.Sprintf("parse %s: %v", contentTypesPart, err)}
	}

	root := doc.Root()
	if root == nil {
		return []string{contentTypesPart + " has no root element"}
	}

	var warnings []string

	for _, child := range root.ChildElements() {
		if child.Tag != "Override" {
			continue
		}

		partName := child.SelectAttrValue("PartName", "")
		if partName == "" {
			continue
		}

		if !session.HasPart(strings.TrimPrefix(partName, "/")) {
			warnings = append(warnings, fmt.Sprintf("content type override references missing part: %s", partName))
		}
	}

	return warnings
}
