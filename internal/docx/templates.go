package docx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateInfo describes an installed template.
type TemplateInfo struct {
	Name   string      `json:"name"`
	Path   string      `json:"path"`
	Styles []StyleInfo `json:"styles,omitempty"`
}

// TemplatesDir returns the template storage directory inside the given
// config directory.
func TemplatesDir(configDir string) string {
	return filepath.Join(configDir, "templates")
}

// ListTemplates returns the names of all installed templates, sorted.
// Names are .docx filenames with the extension stripped.
func ListTemplates(templatesDir string) ([]string, error) {
	entries, err := os.ReadDir(templatesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".docx") {
			names = append(names, strings.TrimSuffix(name, filepath.Ext(name)))
		}
	}

	sort.Strings(names)

	return names, nil
}

// AddTemplate installs a DOCX file under the given name. The file is
// validated as a well-formed template before it is stored.
func AddTemplate(templatesDir, name, sourcePath string) error {
	data, err := os.ReadFile(sourcePath) //nolint:gosec // user-provided template path
	if err != nil {
		return fmt.Errorf("read source %s: %w", sourcePath, err)
	}

	if err := ValidateTemplate(data); err != nil {
		return err
	}

	if err := os.MkdirAll(templatesDir, 0o750); err != nil {
		return fmt.Errorf("ensure templates dir: %w", err)
	}

	destPath := filepath.Join(templatesDir, name+".docx")
	if err := os.WriteFile(destPath, data, 0o600); err != nil {
		return fmt.Errorf("store template %s: %w", destPath, err)
	}

	return nil
}

// GetTemplatePath resolves a template reference. Values that already look
// like file paths are returned directly; bare names are resolved inside
// the store as <templatesDir>/<name>.docx.
func GetTemplatePath(templatesDir, name string) string {
	if strings.ContainsAny(name, `/\`) || strings.HasSuffix(strings.ToLower(name), ".docx") {
		return name
	}

	return filepath.Join(templatesDir, name+".docx")
}

// ListTemplateInfos returns detailed info for all installed templates.
// With inspectStyles set, each template is opened and its style inventory
// included; templates that fail to open are silently skipped from
// inspection but still listed.
func ListTemplateInfos(templatesDir string, inspectStyles bool) ([]TemplateInfo, error) {
	names, err := ListTemplates(templatesDir)
	if err != nil {
		return nil, err
	}

	infos := make([]TemplateInfo, 0, len(names))

	for _, name := range names {
		info := TemplateInfo{
			Name: name,
			Path: GetTemplatePath(templatesDir, name),
		}

		if inspectStyles {
			if session, openErr := Open(info.Path); openErr == nil {
				if styles, listErr := ListStyles(session); listErr == nil {
					info.Styles = styles
				}
			}
		}

		infos = append(infos, info)
	}

	return infos, nil
}
