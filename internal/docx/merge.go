package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/uuid"
)

// OOXML namespace and relationship type URIs used by the merge.
const (
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeTheme     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
)

const (
	contentTypesPart = "[Content_Types].xml"
	documentRelsPart = "word/_rels/document.xml.rels"
	numberingPart    = "word/numbering.xml"
)

// stylePartSet is the fixed ordered list of template-internal paths
// considered style-defining. Copying is existence-gated: a template need
// not define every part.
var stylePartSet = []string{
	"word/styles.xml",
	"word/stylesWithEffects.xml",
	"word/theme/theme1.xml",
	"word/fontTable.xml",
	numberingPart,
	"word/settings.xml",
	"word/_rels/styles.xml.rels",
	"word/_rels/numbering.xml.rels",
}

// styleContentTypes maps copied parts to the explicit MIME override each
// needs in the content-type manifest. Part names are manifest-form, with
// a leading slash.
var styleContentTypes = []struct {
	part        string
	contentType string
}{
	{"/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"},
	{"/word/stylesWithEffects.xml", "application/vnd.ms-word.stylesWithEffects+xml"},
	{"/word/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml"},
	{"/word/fontTable.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.fontTable+xml"},
	{"/" + numberingPart, "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"},
	{"/word/settings.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"},
}

// MergeStyles copies the style-defining parts of the template package into
// a freshly materialized blank package, repairs the blank's content-type
// manifest and document relationships so the copied parts are declared and
// linked, and returns the re-serialized package bytes.
//
// Staging happens in a per-call unique directory so concurrent merges never
// share paths; the directory is removed on every exit path.
func MergeStyles(templateBytes []byte) ([]byte, error) {
	staging := filepath.Join(os.TempDir(), "autostyle-merge-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			slog.Warn("remove staging dir", "dir", staging, "error", err)
		}
	}()

	templateDir := filepath.Join(staging, "template")
	blankDir := filepath.Join(staging, "blank")

	if err := extractPackage(templateBytes, templateDir); err != nil {
		return nil, fmt.Errorf("extract template: %w", err)
	}

	blank, err := blankPackage()
	if err != nil {
		return nil, fmt.Errorf("materialize blank package: %w", err)
	}

	if err := extractPackage(blank, blankDir); err != nil {
		return nil, fmt.Errorf("extract blank package: %w", err)
	}

	for _, part := range stylePartSet {
		copied, err := copyPart(templateDir, blankDir, part)
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", part, err)
		}

		if copied {
			slog.Debug("copied style part", "part", part)
		}
	}

	if err := repairContentTypes(blankDir); err != nil {
		return nil, fmt.Errorf("repair content types: %w", err)
	}

	if err := repairDocumentRels(blankDir); err != nil {
		return nil, fmt.Errorf("repair document relationships: %w", err)
	}

	return zipDir(blankDir)
}

// extractPackage unpacks package bytes into dir. A pre-existing dir is
// wiped first. Entry paths are securely joined so hostile names cannot
// escape the extraction root.
func extractPackage(data []byte, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear extract dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", errNotZip, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		dest, err := securejoin.SecureJoin(dir, f.Name)
		if err != nil {
			return fmt.Errorf("join entry path %s: %w", f.Name, err)
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
			return fmt.Errorf("create dir for %s: %w", f.Name, err)
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open entry %s: %w", f.Name, err)
		}

		entry, err := io.ReadAll(rc)
		_ = rc.Close()

		if err != nil {
			return fmt.Errorf("read entry %s: %w", f.Name, err)
		}

		if err := os.WriteFile(dest, entry, 0o600); err != nil {
			return fmt.Errorf("write entry %s: %w", f.Name, err)
		}
	}

	return nil
}

// copyPart copies one relative part path from srcRoot to dstRoot, creating
// intermediate directories. A missing source part is not an error.
func copyPart(srcRoot, dstRoot, part string) (bool, error) {
	src := filepath.Join(srcRoot, filepath.FromSlash(part))

	data, err := os.ReadFile(src) //nolint:gosec // paths confined to staging dirs
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	dst := filepath.Join(dstRoot, filepath.FromSlash(part))
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return false, err
	}

	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return false, err
	}

	return true, nil
}

// repairContentTypes ensures the blank directory's manifest declares an
// explicit Override for every copied style part that now exists on disk.
func repairContentTypes(blankDir string) error {
	ctPath := filepath.Join(blankDir, contentTypesPart)

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(ctPath); err != nil {
		return fmt.Errorf("parse %s: %w", contentTypesPart, err)
	}

	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%s has no root element", contentTypesPart)
	}

	for _, ct := range styleContentTypes {
		onDisk := filepath.Join(blankDir, filepath.FromSlash(strings.TrimPrefix(ct.part, "/")))
		if _, err := os.Stat(onDisk); err != nil {
			continue
		}

		ensureOverride(root, ct.part, ct.contentType)
	}

	if err := doc.WriteToFile(ctPath); err != nil {
		return fmt.Errorf("write %s: %w", contentTypesPart, err)
	}

	return nil
}

// ensureOverride appends an Override entry unless one already exists for
// the part name. Existing entries are left untouched, so repeated repair
// never duplicates.
func ensureOverride(root *etree.Element, partName, contentType string) {
	for _, child := range root.ChildElements() {
		if child.Tag == "Override" && child.SelectAttrValue("PartName", "") == partName {
			return
		}
	}

	override := root.CreateElement("Override")
	override.CreateAttr("PartName", partName)
	override.CreateAttr("ContentType", contentType)
}

// repairDocumentRels ensures the main document part's relationship table
// links styles and theme unconditionally, and numbering only when that
// part was copied. The table is created with an empty root if absent.
func repairDocumentRels(blankDir string) error {
	relsPath := filepath.Join(blankDir, filepath.FromSlash(documentRelsPart))

	doc, err := readOrCreateRels(relsPath)
	if err != nil {
		return err
	}

	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%s has no root element", documentRelsPart)
	}

	ensureRelationship(root, relTypeStyles, "styles.xml")
	ensureRelationship(root, relTypeTheme, "theme/theme1.xml")

	if _, err := os.Stat(filepath.Join(blankDir, filepath.FromSlash(numberingPart))); err == nil {
		ensureRelationship(root, relTypeNumbering, "numbering.xml")
	}

	if err := doc.WriteToFile(relsPath); err != nil {
		return fmt.Errorf("write %s: %w", documentRelsPart, err)
	}

	return nil
}

// readOrCreateRels parses a relationship file, creating it with an empty
// Relationships root when it does not exist yet.
func readOrCreateRels(path string) (*etree.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create rels dir: %w", err)
		}

		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		doc.CreateElement("Relationships").CreateAttr("xmlns", nsRelationships)

		return doc, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return doc, nil
}

// ensureRelationship appends a relationship for (relType, target) unless an
// identical pair already exists. New entries get the lowest-numbered unused
// rIdN; existing identifiers are never reused or renumbered.
func ensureRelationship(root *etree.Element, relType, target string) {
	existingIDs := make(map[string]bool)

	for _, child := range root.ChildElements() {
		if child.Tag != "Relationship" {
			continue
		}

		if child.SelectAttrValue("Type", "") == relType &&
			child.SelectAttrValue("Target", "") == target {
			return
		}

		if id := child.SelectAttrValue("Id", ""); id != "" {
			existingIDs[id] = true
		}
	}

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", nextRelationshipID(existingIDs))
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
}

// nextRelationshipID returns the lowest unused rIdN identifier.
func nextRelationshipID(existing map[string]bool) string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("rId%d", n)
		if !existing[id] {
			return id
		}
	}
}

// zipDir re-serializes a staging directory into a single deflate-compressed
// archive with forward-slash entry names.
func zipDir(dir string) ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		name := filepath.ToSlash(rel)

		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", name, err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // paths confined to staging dir
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write zip entry %s: %w", name, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}

	return buf.Bytes(), nil
}
