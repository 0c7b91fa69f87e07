package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/Astalist/AutoStyleOfReport/internal/docx"
	"github.com/Astalist/AutoStyleOfReport/internal/outfmt"
	"github.com/Astalist/AutoStyleOfReport/internal/ui"
)

// ConvertCmd converts tagged markup into a styled DOCX document.
type ConvertCmd struct {
	Input    string `arg:"" help:"Markup input file (use - for stdin)"`
	Template string `short:"t" required:"" help:"Template: a stored name or a .docx path"`
	Out      string `short:"o" help:"Output path (default: input name with .docx)"`
	Watch    bool   `short:"w" help:"Keep running and re-convert whenever the input changes"`
	Lenient  bool   `help:"Fall back to default styles instead of failing on missing style IDs"`
}

// convertReport is the JSON envelope for one conversion.
type convertReport struct {
	Output string `json:"output"`
	*docx.Result
}

// Run executes the convert command.
func (c *ConvertCmd) Run(ctx context.Context, root *RootFlags) error {
	if c.Watch && c.Input == "-" {
		return &ExitError{Code: exitCodeUsage, Err: errors.New("--watch requires a file input, not stdin")}
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := templateStore()
	if err != nil {
		return err
	}

	templatePath := docx.GetTemplatePath(store, c.Template)

	templateBytes, err := os.ReadFile(templatePath) //nolint:gosec // user-provided template reference
	if err != nil {
		return fmt.Errorf("read template %s: %w", templatePath, err)
	}

	opts := docx.ConvertOptions{
		Filename:     filepath.Base(c.outputPath()),
		Styles:       cfg.Styles,
		StrictStyles: cfg.StrictStyles && !c.Lenient,
	}

	if err := c.convertOnce(ctx, templateBytes, opts); err != nil {
		return err
	}

	if c.Watch {
		return c.watchLoop(ctx, templateBytes, opts)
	}

	return nil
}

// outputPath resolves the destination file path.
func (c *ConvertCmd) outputPath() string {
	if c.Out != "" {
		return c.Out
	}

	if c.Input == "-" {
		return "document.docx"
	}

	base := strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))

	return filepath.Join(filepath.Dir(c.Input), docx.EnsureDocxName(base))
}

// convertOnce runs one full conversion and writes the result to disk.
func (c *ConvertCmd) convertOnce(ctx context.Context, templateBytes []byte, opts docx.ConvertOptions) error {
	markupText, err := c.readInput()
	if err != nil {
		return err
	}

	result, err := docx.Convert(templateBytes, markupText, opts)
	if err != nil {
		return err
	}

	out := c.outputPath()

	if err := os.WriteFile(out, result.Data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(ctx, os.Stdout, convertReport{Output: out, Result: result})
	}

	if u := ui.FromContext(ctx); u != nil {
		u.Err().Printf("wrote %s (%d blocks, %d bytes)", out, result.Blocks, result.Size)
	}

	return nil
}

func (c *ConvertCmd) readInput() (string, error) {
	if c.Input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(c.Input) //nolint:gosec // user-provided input path
	if err != nil {
		return "", fmt.Errorf("read input %s: %w", c.Input, err)
	}

	return string(data), nil
}

// watchLoop re-converts on every write to the input file. Watching the
// parent directory survives editors that replace the file on save.
func (c *ConvertCmd) watchLoop(ctx context.Context, templateBytes []byte, opts docx.ConvertOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(c.Input)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target, err := filepath.Abs(c.Input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	u := ui.FromContext(ctx)
	if u != nil {
		u.Err().Printf("watching %s", c.Input)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}

			if err := c.convertOnce(ctx, templateBytes, opts); err != nil {
				// A broken intermediate save should not end the watch.
				if u != nil {
					u.Err().Errorf("convert: %v", err)
				}
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			return fmt.Errorf("watch: %w", watchErr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
