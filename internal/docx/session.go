// Package docx implements the two halves of report generation: merging the
// style-defining parts of a template package into a blank document, and
// appending parsed markup blocks to the resulting styled shell.
//
// A DOCX file is a ZIP archive of XML parts. The Session type holds one
// package in memory, lazily parses individual parts into etree Documents,
// caches them, and re-serializes modified parts on save.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	errPartNotFound    = errors.New("part not found in package")
	errDirtyPartParsed = errors.New("dirty part has no parsed document")
	errNoBody          = errors.New("no w:body element in document.xml")
	errNotZip          = errors.New("not a valid ZIP archive")
)

// xmlDoc holds both the raw bytes and the parsed DOM for one package part.
type xmlDoc struct {
	raw []byte
	doc *etree.Document
}

// Session provides lazy, cached access to the XML parts of a package held
// in memory. Nothing touches disk until Save.
type Session struct {
	parts   map[string]*xmlDoc // parsed XML DOMs, keyed by part path
	dirty   map[string]bool    // parts modified since open
	rawData map[string][]byte  // raw bytes for every part
}

// OpenBytes opens a package from its serialized bytes.
func OpenBytes(data []byte) (*Session, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotZip, err)
	}

	rawData := make(map[string][]byte, len(zr.File))

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}

		entry, err := io.ReadAll(rc)
		_ = rc.Close()

		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}

		rawData[f.Name] = entry
	}

	return &Session{
		parts:   make(map[string]*xmlDoc),
		dirty:   make(map[string]bool),
		rawData: rawData,
	}, nil
}

// Open reads a package file and opens it as a Session.
func Open(path string) (*Session, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-provided document path
	if err != nil {
		return nil, fmt.Errorf("open package %s: %w", path, err)
	}

	s, err := OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("open package %s: %w", path, err)
	}

	return s, nil
}

// Part returns the parsed XML document for a part path (e.g.
// "word/document.xml"), parsing on first access and caching the result.
func (s *Session) Part(name string) (*etree.Document, error) {
	if xd, ok := s.parts[name]; ok && xd.doc != nil {
		return xd.doc, nil
	}

	raw, ok := s.rawData[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errPartNotFound, name)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parse xml %s: %w", name, err)
	}

	s.parts[name] = &xmlDoc{raw: raw, doc: doc}

	return doc, nil
}

// RawPart returns the raw bytes for a part without parsing XML.
func (s *Session) RawPart(name string) ([]byte, error) {
	raw, ok := s.rawData[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errPartNotFound, name)
	}

	return raw, nil
}

// HasPart reports whether a part exists in the package.
func (s *Session) HasPart(name string) bool {
	_, ok := s.rawData[name]

	return ok
}

// MarkDirty records that a part was modified. Dirty parts are re-serialized
// from their etree Document when the session is saved.
func (s *Session) MarkDirty(name string) {
	s.dirty[name] = true
}

// SetPart replaces a part's raw bytes, adding the part if absent.
// Any cached DOM for the part is discarded.
func (s *Session) SetPart(name string, data []byte) {
	s.rawData[name] = data
	delete(s.parts, name)
	delete(s.dirty, name)
}

// ListParts returns all part paths in the package, sorted.
func (s *Session) ListParts() []string {
	names := make([]string, 0, len(s.rawData))
	for name := range s.rawData {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Bytes serializes the package. Unmodified parts are written verbatim;
// dirty parts are serialized from their cached DOM. Entries use deflate.
func (s *Session) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, name := range s.ListParts() {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}

		data := s.rawData[name]

		if s.dirty[name] {
			xd, ok := s.parts[name]
			if !ok || xd.doc == nil {
				return nil, fmt.Errorf("%w: %s", errDirtyPartParsed, name)
			}

			data, err = xd.doc.WriteToBytes()
			if err != nil {
				return nil, fmt.Errorf("serialize %s: %w", name, err)
			}
		}

		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Save writes the package to outputPath atomically: the bytes go to a
// uniquely named temp file in the target directory, then a rename.
func (s *Session) Save(outputPath string) error {
	data, err := s.Bytes()
	if err != nil {
		return err
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".docx-save-%s.tmp", uuid.NewString()))
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("rename to %s: %w", outputPath, err)
	}

	return nil
}
