// Package noteprint renders notes to receipts on a USB thermal printer
// using headless Chrome and the ESC/POS raster protocol.
//
// # Quick Start
//
// Create a printer, print a note, and close when done:
//
//	p, err := noteprint.NewPrinter(
//	    noteprint.WithDeviceConfig(noteprint.DefaultDeviceConfig()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	result, err := p.PrintNote(ctx, noteprint.Note{
//	    Text:     "Buy milk",
//	    Category: "casa",
//	    TicketID: "3",
//	})
//
// The result reports the bytes written to the device and carries the
// rendered PNG for preview reuse. Use PreviewHTML or PreviewImage to
// inspect a note without touching the printer channel.
//
// # Pipeline
//
// One print attempt runs these stages in order, stopping at the first
// failure:
//
//  1. Template composition (placeholder substitution, HTML escaping)
//  2. Bitmap rendering via headless Chrome (go-rod), cropped to the note
//  3. Monochrome rasterization (downscale, dither, byte-aligned packing)
//  4. ESC/POS encoding (raster frames + paper feed)
//  5. Transport send (USB bulk transfer, exclusive per-call lock)
//
// # Configuration
//
// Use functional options to customize the printer:
//
//	p, err := noteprint.NewPrinter(
//	    noteprint.WithTimeout(time.Minute),
//	    noteprint.WithMaxWidth(576),
//	    noteprint.WithDither(noteprint.DitherBayer),
//	    noteprint.WithTransport(noteprint.NewRecordingTransport()),
//	)
//
// Without WithDeviceConfig or WithTransport the printer writes to an
// in-memory recording sink, which is the intended mode for deployments
// with the physical printer disabled.
//
// # Parallel Previews
//
// For batch preview rendering, use PrinterPool to manage multiple browser
// instances:
//
//	pool := noteprint.NewPrinterPool(2)
//	defer pool.Close()
//
//	p, err := pool.Acquire()
//	defer pool.Release(p)
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run. Set ROD_BROWSER_BIN
// to use a pre-installed binary in containers and CI.
package noteprint
