package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	noteprint "github.com/mathbatistela/go-noteprint"
)

// ErrNoText indicates that neither --text nor positional words were given.
var ErrNoText = errors.New("no note text given (use --text or positional words)")

// defaultOutputPath is where the preview PNG lands when --output is omitted.
const defaultOutputPath = "note.png"

// run wires the printer from flags and config, then executes the requested
// action: HTML preview, PNG preview, batch previews, or a physical print.
func run(flags *cliFlags) error {
	cfg := DefaultConfig()
	if flags.config != "" {
		loaded, err := LoadConfig(flags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log, err := buildLogger(flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	opts, err := printerOptions(flags, cfg, log)
	if err != nil {
		return err
	}

	if flags.batch != "" {
		return runBatch(flags, opts)
	}

	text := flags.noteText()
	if text == "" {
		return ErrNoText
	}

	printer, err := noteprint.NewPrinter(opts...)
	if err != nil {
		return err
	}
	defer printer.Close()

	note := noteprint.Note{
		Text:     text,
		Category: flags.category,
		TicketID: flags.ticketID,
		Date:     flags.date,
		WidthPx:  flags.width,
		Markup:   flags.markup,
	}
	if flags.template != "" {
		tmpl, err := os.ReadFile(flags.template) // #nosec G304 -- template path is user-provided
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		note.Template = string(tmpl)
	}

	ctx := context.Background()

	if flags.htmlOnly {
		html, err := printer.PreviewHTML(ctx, note)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	}

	if flags.print {
		result, err := printer.PrintNote(ctx, note)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "printed: %d frames, %d bytes\n", result.Frames, result.BytesSent)
		if flags.output != "" {
			return writePNG(flags.output, result.PNG)
		}
		return nil
	}

	png, err := printer.PreviewImage(ctx, note)
	if err != nil {
		return err
	}
	output := flags.output
	if output == "" {
		output = defaultOutputPath
	}
	if err := writePNG(output, png); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved note to %s\n", output)
	return nil
}

// runBatch renders one PNG preview per note line, using a printer pool so
// each worker gets its own browser instance.
func runBatch(flags *cliFlags, opts []noteprint.Option) error {
	notes, err := readBatchNotes(flags.batch)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return ErrNoText
	}

	size := noteprint.ResolvePoolSize(flags.workers)
	if size > len(notes) {
		size = len(notes)
	}
	pool := noteprint.NewPrinterPool(size, opts...)
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make([]error, len(notes))
	for i, text := range notes {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()

			printer, err := pool.Acquire()
			if err != nil {
				errs[i] = err
				return
			}
			defer pool.Release(printer)

			png, err := printer.PreviewImage(context.Background(), noteprint.Note{
				Text:     text,
				Category: flags.category,
				TicketID: strconv.Itoa(i + 1),
				Date:     flags.date,
				WidthPx:  flags.width,
				Markup:   flags.markup,
			})
			if err != nil {
				errs[i] = fmt.Errorf("note %d: %w", i+1, err)
				return
			}
			errs[i] = writePNG(batchOutputPath(flags.output, i+1), png)
		}(i, text)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %d notes\n", len(notes))
	return nil
}

// readBatchNotes reads one note per line, skipping blank lines.
func readBatchNotes(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- batch path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var notes []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			notes = append(notes, trimmed)
		}
	}
	return notes, nil
}

// batchOutputPath numbers the output file per note: note.png -> note-003.png.
func batchOutputPath(output string, n int) string {
	if output == "" {
		output = defaultOutputPath
	}
	ext := filepath.Ext(output)
	stem := strings.TrimSuffix(output, ext)
	return fmt.Sprintf("%s-%03d%s", stem, n, ext)
}

// printerOptions translates flags and config into printer options.
func printerOptions(flags *cliFlags, cfg *Config, log *zap.Logger) ([]noteprint.Option, error) {
	opts := []noteprint.Option{
		noteprint.WithLogger(log),
		noteprint.WithMaxWidth(cfg.Printer.MaxWidthPx),
		noteprint.WithFeedMargin(cfg.Printer.FeedMarginMM),
		noteprint.WithDither(cfg.Render.Dither),
	}

	if flags.timeout > 0 {
		opts = append(opts, noteprint.WithTimeout(flags.timeout))
	}
	if cfg.Printer.MaxFrameBytes > 0 {
		opts = append(opts, noteprint.WithMaxFrameBytes(cfg.Printer.MaxFrameBytes))
	}
	if cfg.Render.Template != "" {
		tmpl, err := os.ReadFile(cfg.Render.Template) // #nosec G304 -- config-provided path
		if err != nil {
			return nil, fmt.Errorf("reading configured template: %w", err)
		}
		opts = append(opts, noteprint.WithTemplate(string(tmpl)))
	}

	// The physical device is only wired for an actual print request; preview
	// paths and dry runs stay on the recording transport.
	if flags.print && !flags.dryRun && cfg.Printer.Enabled {
		device, err := deviceConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, noteprint.WithDeviceConfig(*device))
	}

	return opts, nil
}

// deviceConfig builds the USB device configuration, auto-detecting
// endpoints when requested.
func deviceConfig(cfg *Config) (*noteprint.DeviceConfig, error) {
	if cfg.Printer.AutoDetect {
		detected, err := noteprint.DetectDevice(cfg.Printer.VendorID)
		if err != nil {
			return nil, err
		}
		detected.MaxWidthPx = cfg.Printer.MaxWidthPx
		detected.MaxFrameBytes = cfg.Printer.MaxFrameBytes
		return detected, nil
	}

	return &noteprint.DeviceConfig{
		VendorID:      cfg.Printer.VendorID,
		ProductID:     cfg.Printer.ProductID,
		Interface:     cfg.Printer.Interface,
		OutEndpoint:   cfg.Printer.OutEndpoint,
		InEndpoint:    cfg.Printer.InEndpoint,
		MaxWidthPx:    cfg.Printer.MaxWidthPx,
		MaxFrameBytes: cfg.Printer.MaxFrameBytes,
	}, nil
}

// buildLogger creates a zap logger: development output on stderr when
// verbose, otherwise silent.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// writePNG writes the bitmap bytes to path.
func writePNG(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing PNG: %w", err)
	}
	return nil
}
