package main

import (
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all parsed command-line flags.
type cliFlags struct {
	// Note fields
	text     string
	category string
	ticketID string
	date     string
	markup   bool

	// Rendering
	width    int
	template string // path to a template HTML file
	output   string // destination PNG path
	htmlOnly bool   // write composed HTML to stdout instead of rendering

	// Printing
	print  bool
	dryRun bool // force the recording transport even with a device configured

	// Batch previews
	batch   string // file with one note per line, rendered in parallel
	workers int    // pool size for batch rendering (0 = auto)

	// Runtime
	config  string
	timeout time.Duration
	verbose bool
	version bool

	// Positional words joined as the note text when --text is absent.
	words []string
}

// parseFlags parses argv (excluding the program name) into cliFlags.
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("noteprint", flag.ContinueOnError)

	fs.StringVarP(&f.text, "text", "t", "", "note text (falls back to positional words)")
	fs.StringVarP(&f.category, "category", "c", "", "category badge (casa, trabalho, estudos, ...)")
	fs.StringVar(&f.ticketID, "ticket-id", "1", "identifier rendered as #N on the ticket")
	fs.StringVar(&f.date, "date", "auto", "date label, or auto / auto:FORMAT")
	fs.BoolVar(&f.markup, "markup", false, "render the note text as Markdown")

	fs.IntVarP(&f.width, "width", "w", 0, "render width in pixels (default: head width)")
	fs.StringVar(&f.template, "template", "", "path to a custom template HTML file")
	fs.StringVarP(&f.output, "output", "o", "", "write the rendered PNG to this path")
	fs.BoolVar(&f.htmlOnly, "html", false, "print the composed HTML to stdout and exit")

	fs.BoolVarP(&f.print, "print", "p", false, "send the note to the thermal printer")
	fs.BoolVar(&f.dryRun, "dry-run", false, "record the command stream instead of printing")

	fs.StringVar(&f.batch, "batch", "", "render one preview per line of this file, in parallel")
	fs.IntVar(&f.workers, "workers", 0, "parallel renderers for --batch (0 = auto)")

	fs.StringVar(&f.config, "config", "", "config name or path (YAML)")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-stage timeout (default 30s)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose diagnostics on stderr")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: noteprint [flags] [words...]\n\n")
		fmt.Fprintf(fs.Output(), "Render a note as a thermal receipt and optionally print it.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.words = fs.Args()
	return f, nil
}

// noteText resolves the note body: --text wins, then joined positional words.
func (f *cliFlags) noteText() string {
	if f.text != "" {
		return f.text
	}
	return strings.TrimSpace(strings.Join(f.words, " "))
}
