package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Astalist/AutoStyleOfReport/internal/docx"
	"github.com/Astalist/AutoStyleOfReport/internal/outfmt"
	"github.com/Astalist/AutoStyleOfReport/internal/ui"
)

// InspectCmd lists the styles a template defines.
type InspectCmd struct {
	Template string `arg:"" help:"Template: a stored name or a .docx path"`
}

// Run executes the inspect command.
func (c *InspectCmd) Run(ctx context.Context) error {
	store, err := templateStore()
	if err != nil {
		return err
	}

	path := docx.GetTemplatePath(store, c.Template)

	session, err := docx.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	styles, err := docx.ListStyles(session)
	if err != nil {
		return fmt.Errorf("list styles: %w", err)
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, map[string]any{
			"template": path,
			"styles":   styles,
		})
	}

	u := ui.FromContext(ctx)
	if u == nil {
		u, _ = ui.New(ui.Options{})
	}

	if len(styles) == 0 {
		u.Err().Printf("%s defines no styles", path)
		return nil
	}

	for _, s := range styles {
		line := s.ID
		if s.Type != "" {
			line = fmt.Sprintf("%s\t%s", line, s.Type)
		}

		if s.Name != "" && s.Name != s.ID {
			line = fmt.Sprintf("%s\t(%s)", line, s.Name)
		}

		u.Out().Printf("%s", line)
	}

	return nil
}
