package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Astalist/AutoStyleOfReport/internal/config"
	"github.com/Astalist/AutoStyleOfReport/internal/docx"
	"github.com/Astalist/AutoStyleOfReport/internal/outfmt"
	"github.com/Astalist/AutoStyleOfReport/internal/ui"
)

// TemplateCmd groups template store management.
type TemplateCmd struct {
	Add  TemplateAddCmd  `cmd:"" help:"Install a template into the store"`
	List TemplateListCmd `cmd:"" aliases:"ls" help:"List installed templates"`
}

// TemplateAddCmd installs a validated template under a name.
type TemplateAddCmd struct {
	Name string `arg:"" help:"Name to store the template under"`
	File string `arg:"" help:"Source .docx file" type:"existingfile"`
}

// Run executes the template add command.
func (c *TemplateAddCmd) Run(ctx context.Context) error {
	if _, err := config.EnsureDir(); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}

	store, err := templateStore()
	if err != nil {
		return err
	}

	if err := docx.AddTemplate(store, c.Name, c.File); err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, map[string]string{
			"name": c.Name,
			"path": docx.GetTemplatePath(store, c.Name),
		})
	}

	if u := ui.FromContext(ctx); u != nil {
		u.Err().Printf("installed template %s", c.Name)
	}

	return nil
}

// TemplateListCmd lists installed templates.
type TemplateListCmd struct {
	Styles bool `help:"Include each template's style inventory"`
}

// Run executes the template list command.
func (c *TemplateListCmd) Run(ctx context.Context) error {
	store, err := templateStore()
	if err != nil {
		return err
	}

	infos, err := docx.ListTemplateInfos(store, c.Styles)
	if err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, infos)
	}

	u := ui.FromContext(ctx)
	if u == nil {
		u, _ = ui.New(ui.Options{})
	}

	if len(infos) == 0 {
		u.Err().Printf("no templates installed")
		return nil
	}

	for _, info := range infos {
		u.Out().Printf("%s\t%s", info.Name, info.Path)

		for _, s := range info.Styles {
			u.Out().Printf("  %s\t%s", s.ID, s.Type)
		}
	}

	return nil
}
