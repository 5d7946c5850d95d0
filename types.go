package noteprint

import (
	"fmt"
	"strings"
	"time"
)

// Thermal head geometry for the supported 58 mm device family.
const (
	// DefaultMaxWidthPx is the printable dot width of a 58 mm thermal head.
	DefaultMaxWidthPx = 384

	// ThermalDPI is the dot density of the head (~8 dots/mm).
	ThermalDPI = 203

	// DefaultFeedMarginMM is how much paper to purge past the last printed
	// row so the note clears the tear-off guide.
	DefaultFeedMarginMM = 15.0

	// clipPaddingPx is added around the measured note box before the
	// screenshot so descenders and icon strokes are not clipped.
	clipPaddingPx = 6
)

// Dither mode constants.
const (
	DitherFloydSteinberg = "floyd-steinberg"
	DitherBayer          = "bayer"
	DitherThreshold      = "threshold"
)

// Note contains the fields of one print or preview attempt.
// It is constructed once per attempt and never mutated by the pipeline.
type Note struct {
	Text     string // Note body (required)
	Category string // Category name, resolved to an icon (optional)
	TicketID string // Identifier rendered as "#N" on the ticket (optional)
	Date     string // Date label; supports "auto" / "auto:FORMAT" (optional)
	Template string // Template HTML overriding the embedded default (optional)
	WidthPx  int    // Target render width in CSS pixels (0 = head width)
	Markup   bool   // Render Text as Markdown instead of plain text
}

// Validate checks that required fields are present and valid.
func (n Note) Validate() error {
	if strings.TrimSpace(n.Text) == "" {
		return ErrEmptyText
	}
	if n.WidthPx < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, n.WidthPx)
	}
	return nil
}

// width returns the effective render width in CSS pixels.
func (n Note) width(fallback int) int {
	if n.WidthPx > 0 {
		return n.WidthPx
	}
	return fallback
}

// PrintResult reports the outcome of one successful print attempt.
type PrintResult struct {
	BytesSent int    // Total command-stream bytes written to the device
	Frames    int    // Number of command frames sent
	PNG       []byte // Rendered bitmap, reusable as a preview artifact
}

// Option configures a Printer.
type Option func(*Printer)

// printerConfig holds internal configuration for Printer.
type printerConfig struct {
	timeout       time.Duration
	maxWidthPx    int
	feedMarginMM  float64
	dither        string
	template      string
	maxFrameBytes int
}

// defaultTimeout bounds a single render or send round trip.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-stage timeout for the renderer and the transport.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("noteprint: WithTimeout duration must be positive")
	}
	return func(p *Printer) {
		p.cfg.timeout = d
	}
}

// WithMaxWidth sets the maximum printable dot width of the head.
// Bitmaps wider than this are downscaled preserving aspect ratio.
func WithMaxWidth(px int) Option {
	return func(p *Printer) {
		p.cfg.maxWidthPx = px
	}
}

// WithFeedMargin sets the paper purge distance in millimeters appended
// after the last raster frame.
func WithFeedMargin(mm float64) Option {
	return func(p *Printer) {
		p.cfg.feedMarginMM = mm
	}
}

// WithDither selects the monochrome conversion strategy: DitherFloydSteinberg
// (default), DitherBayer, or DitherThreshold.
func WithDither(mode string) Option {
	return func(p *Printer) {
		p.cfg.dither = mode
	}
}

// WithTemplate overrides the embedded default note template.
// Per-note templates via Note.Template take precedence over this.
func WithTemplate(html string) Option {
	return func(p *Printer) {
		p.cfg.template = html
	}
}

// WithTransport injects the transport used for PrintNote.
// Use NewRecordingTransport for tests and printer-disabled deployments.
func WithTransport(t Transport) Option {
	return func(p *Printer) {
		p.transport = t
	}
}
