package ui_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Astalist/AutoStyleOfReport/internal/ui"
)

func TestNewRejectsInvalidColor(t *testing.T) {
	if _, err := ui.New(ui.Options{Color: "sometimes"}); err == nil {
		t.Fatalf("invalid color mode accepted")
	}

	for _, mode := range []string{"", ui.ColorAuto, ui.ColorAlways, ui.ColorNever} {
		if _, err := ui.New(ui.Options{Color: mode}); err != nil {
			t.Errorf("New(%q): %v", mode, err)
		}
	}
}

func TestPrinterStreams(t *testing.T) {
	var out, errBuf bytes.Buffer

	u, err := ui.New(ui.Options{Stdout: &out, Stderr: &errBuf, Color: ui.ColorNever})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u.Out().Printf("result %d", 1)
	u.Err().Printf("status")

	if got := out.String(); got != "result 1\n" {
		t.Errorf("stdout = %q", got)
	}

	if got := errBuf.String(); got != "status\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestErrorfColor(t *testing.T) {
	var buf bytes.Buffer

	u, err := ui.New(ui.Options{Stderr: &buf, Color: ui.ColorAlways})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u.Err().Errorf("bad thing")

	if got := buf.String(); !strings.Contains(got, "\x1b[31m") {
		t.Errorf("colored output missing escape: %q", got)
	}

	buf.Reset()

	u, err = ui.New(ui.Options{Stderr: &buf, Color: ui.ColorNever})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u.Err().Errorf("bad thing")

	if got := buf.String(); strings.Contains(got, "\x1b[") {
		t.Errorf("plain output carries escape: %q", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	u, err := ui.New(ui.Options{Color: ui.ColorNever})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := ui.WithUI(context.Background(), u)

	if got := ui.FromContext(ctx); got != u {
		t.Errorf("FromContext returned %v", got)
	}

	if got := ui.FromContext(context.Background()); got != nil {
		t.Errorf("empty context returned %v", got)
	}
}
