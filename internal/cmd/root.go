// Package cmd wires the CLI surface: flag parsing, output mode and UI
// context setup, and stable exit codes.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Astalist/AutoStyleOfReport/internal/config"
	"github.com/Astalist/AutoStyleOfReport/internal/docx"
	"github.com/Astalist/AutoStyleOfReport/internal/outfmt"
	"github.com/Astalist/AutoStyleOfReport/internal/ui"
)

// RootFlags are the global flags bound into every command's Run.
type RootFlags struct {
	Color   string `help:"Color output: auto|always|never" default:"${color}"`
	Config  string `help:"Path to an alternate config file" type:"path"`
	JSON    bool   `help:"Output JSON to stdout (best for scripting)" short:"j"`
	JQ      string `name:"jq" help:"Apply jq expression to JSON output (implies --json)"`
	Verbose bool   `help:"Enable verbose logging" short:"v"`
}

// CLI is the full command tree.
type CLI struct {
	RootFlags `embed:""`

	Version kong.VersionFlag `help:"Print version and exit"`

	Convert  ConvertCmd  `cmd:"" help:"Convert tagged markup into a styled DOCX"`
	Inspect  InspectCmd  `cmd:"" help:"List the styles a template defines"`
	Check    CheckCmd    `cmd:"" help:"Run structural checks over a DOCX package"`
	Template TemplateCmd `cmd:"" aliases:"templates" help:"Manage the template store"`
}

// ExitError carries a stable process exit code alongside the cause.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}

	return 1
}

// Stable exit codes beyond the generic failure code 1.
const (
	exitCodeUsage           = 2
	exitCodeInvalidTemplate = 3
	exitCodeMissingStyles   = 4
)

type exitPanic struct{ code int }

// Execute parses args, builds the command context and runs the selected
// command. The returned error is already mapped to a stable exit code.
func Execute(args []string) (err error) {
	parser, cli, err := newParser()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			ep, ok := r.(exitPanic)
			if !ok {
				panic(r)
			}

			if ep.code == 0 {
				err = nil
				return
			}

			err = &ExitError{Code: ep.code, Err: errors.New("exited")}
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		parsedErr := wrapParseError(err)
		fmt.Fprintf(os.Stderr, "error: %v\n", parsedErr)

		return parsedErr
	}

	// --jq only makes sense against JSON output.
	if cli.JQ != "" {
		cli.JSON = true
	}

	logLevel := slog.LevelWarn
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	mode := outfmt.ModeText
	if cli.JSON {
		mode = outfmt.ModeJSON
	}

	ctx := context.Background()
	ctx = outfmt.WithMode(ctx, mode)

	if cli.JQ != "" {
		ctx = outfmt.WithJQ(ctx, cli.JQ)
	}

	uiColor := cli.Color
	if cli.JSON {
		uiColor = ui.ColorNever
	}

	u, err := ui.New(ui.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  uiColor,
	})
	if err != nil {
		return &ExitError{Code: exitCodeUsage, Err: err}
	}

	ctx = ui.WithUI(ctx, u)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&cli.RootFlags)

	err = kctx.Run()
	if err == nil {
		return nil
	}

	err = stableExitCode(err)
	u.Err().Errorf("error: %v", err)

	return err
}

// stableExitCode maps well-known failures to their dedicated exit codes.
func stableExitCode(err error) error {
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}

	switch {
	case errors.Is(err, docx.ErrInvalidTemplate):
		return &ExitError{Code: exitCodeInvalidTemplate, Err: err}
	case errors.Is(err, docx.ErrMissingStyles):
		return &ExitError{Code: exitCodeMissingStyles, Err: err}
	default:
		return err
	}
}

func wrapParseError(err error) error {
	var parseErr *kong.ParseError
	if errors.As(err, &parseErr) {
		return &ExitError{Code: exitCodeUsage, Err: parseErr}
	}

	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func newParser() (*kong.Kong, *CLI, error) {
	vars := kong.Vars{
		"color":   envOr("AUTOSTYLE_COLOR", ui.ColorAuto),
		"version": VersionString(),
	}

	cli := &CLI{}

	parser, err := kong.New(
		cli,
		kong.Name(config.AppName),
		kong.Description("Convert HTML-tagged report markup into styled DOCX documents"),
		kong.Vars(vars),
		kong.UsageOnError(),
		kong.Writers(os.Stdout, os.Stderr),
		kong.Exit(func(code int) { panic(exitPanic{code: code}) }),
	)
	if err != nil {
		return nil, nil, err
	}

	return parser, cli, nil
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig(root *RootFlags) (config.Config, error) {
	if root.Config != "" {
		return config.LoadFile(root.Config)
	}

	return config.Load()
}

// templateStore returns the template store directory.
func templateStore() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}

	return docx.TemplatesDir(dir), nil
}
