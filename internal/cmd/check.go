package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/Astalist/AutoStyleOfReport/internal/docx"
	"github.com/Astalist/AutoStyleOfReport/internal/outfmt"
	"github.com/Astalist/AutoStyleOfReport/internal/ui"
)

// CheckCmd runs structural checks over a DOCX package.
type CheckCmd struct {
	File string `arg:"" help:"DOCX file path"`
}

// Run executes the check command. A failed check exits non-zero.
func (c *CheckCmd) Run(ctx context.Context) error {
	result, err := docx.CheckFile(c.File)
	if err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		if err := outfmt.WriteJSON(ctx, os.Stdout, result); err != nil {
			return err
		}
	} else if u := ui.FromContext(ctx); u != nil {
		for _, msg := range result.Errors {
			u.Out().Printf("error: %s", msg)
		}

		for _, msg := range result.Warnings {
			u.Out().Printf("warning: %s", msg)
		}

		if result.Valid {
			u.Err().Printf("%s: ok", c.File)
		}
	}

	if !result.Valid {
		return &ExitError{Code: 1, Err: errors.New("document check failed")}
	}

	return nil
}
