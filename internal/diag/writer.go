// Package diag prints hcl diagnostics with source snippets and a coloured
// summary line.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/hcl/v2"
	"github.com/mattn/go-isatty"

	"github.com/goliatone/go-buildergen/pkg/config"
)

const defaultWidth = 100

// Writer renders diagnostics for one output stream.
type Writer struct {
	out   io.Writer
	files map[string]*hcl.File
	color bool
	width uint
}

// NewWriter returns a Writer for out. ColorAuto enables colour only when out
// is a terminal.
func NewWriter(out io.Writer, mode config.ColorMode) *Writer {
	return &Writer{
		out:   out,
		files: map[string]*hcl.File{},
		color: UseColor(mode, out),
		width: defaultWidth,
	}
}

// UseColor resolves mode for out.
func UseColor(mode config.ColorMode, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// AddSources registers file contents, keyed by the file names diagnostics
// refer to, so snippets can be printed.
func (w *Writer) AddSources(contents map[string][]byte) {
	for name, data := range contents {
		w.files[name] = &hcl.File{Bytes: data}
	}
}

// Write prints every diagnostic followed by the summary. Nothing is printed
// for an empty set.
func (w *Writer) Write(diags hcl.Diagnostics) error {
	if len(diags) == 0 {
		return nil
	}
	text := hcl.NewDiagnosticTextWriter(w.out, w.files, w.width, w.color)
	if err := text.WriteDiagnostics(diags); err != nil {
		return err
	}
	return w.Summary(diags)
}

// Summary prints a one-line count of errors and warnings.
func (w *Writer) Summary(diags hcl.Diagnostics) error {
	errs, warnings := Count(diags)
	if errs == 0 && warnings == 0 {
		return nil
	}

	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)
	if w.color {
		errColor.EnableColor()
		warnColor.EnableColor()
	} else {
		errColor.DisableColor()
		warnColor.DisableColor()
	}

	var line string
	switch {
	case errs > 0 && warnings > 0:
		line = errColor.Sprint(plural(errs, "error")) + ", " + warnColor.Sprint(plural(warnings, "warning"))
	case errs > 0:
		line = errColor.Sprint(plural(errs, "error"))
	default:
		line = warnColor.Sprint(plural(warnings, "warning"))
	}
	_, err := fmt.Fprintln(w.out, line)
	return err
}

// Count returns the number of errors and warnings in diags.
func Count(diags hcl.Diagnostics) (errs, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case hcl.DiagError:
			errs++
		case hcl.DiagWarning:
			warnings++
		}
	}
	return errs, warnings
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
