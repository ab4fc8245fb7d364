// Package diagfmt renders diag.Bag contents for CLI consumers. It never
// mutates the bag: callers sort and dedup before formatting.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"warden/internal/diag"
	"warden/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	codeColor    = color.New(color.Faint)
)

// Pretty writes diagnostics one per line:
//
//	<path>:<start>-<end>: <SEV> [<CODE>]: <message>
//
// followed by indented notes when ShowNotes is set. Expects the bag to be
// sorted already.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		sev := d.Severity.String()
		if opts.Color {
			sev = severityColor(d.Severity).Sprint(sev)
		}
		code := "[" + d.Code.ID() + "]"
		if opts.Color {
			code = codeColor.Sprint(code)
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n", location(d.Primary, fs, opts.PathMode), sev, code, d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s (%s)\n", n.Msg, location(n.Span, fs, opts.PathMode))
		}
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func location(span source.Span, fs *source.FileSet, mode PathMode) string {
	path := formatPath(span.File, fs, mode)
	return fmt.Sprintf("%s:%d-%d", path, span.Start, span.End)
}

func formatPath(id source.FileID, fs *source.FileSet, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.Path
	}
}
