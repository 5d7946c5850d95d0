package noteprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mathbatistela/go-noteprint/internal/assets"
	"github.com/mathbatistela/go-noteprint/internal/dateutil"
)

// Printer orchestrates the note-to-paper pipeline: compose HTML, render a
// bitmap in headless Chrome, rasterize to 1-bit, encode ESC/POS, and send
// over the transport. Create with NewPrinter, use PrintNote / PreviewHTML /
// PreviewImage, and Close when done.
type Printer struct {
	cfg        printerConfig
	compositor *compositor
	renderer   bitmapRenderer
	normalizer *normalizer
	encoder    *encoder
	transport  Transport
	deviceCfg  *DeviceConfig
	log        *zap.Logger

	// now is the clock used for "auto" date stamps; injectable by tests.
	now func() time.Time
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Printer) {
		p.log = log
	}
}

// WithDeviceConfig wires a USB hardware transport for the given device.
// The device's head width and frame limit override the printer defaults.
func WithDeviceConfig(cfg DeviceConfig) Option {
	return func(p *Printer) {
		p.deviceCfg = &cfg
	}
}

// WithMaxFrameBytes caps the raster payload of a single command frame.
// Larger images are split along row boundaries. Zero means no limit.
func WithMaxFrameBytes(n int) Option {
	return func(p *Printer) {
		p.cfg.maxFrameBytes = n
	}
}

// NewPrinter creates a Printer with default configuration: embedded note
// template, 384-dot head width, Floyd-Steinberg dithering, and a recording
// transport. Wire hardware with WithDeviceConfig or WithTransport.
func NewPrinter(opts ...Option) (*Printer, error) {
	p := &Printer{
		cfg: printerConfig{
			timeout:      defaultTimeout,
			maxWidthPx:   DefaultMaxWidthPx,
			feedMarginMM: DefaultFeedMarginMM,
			dither:       DitherFloydSteinberg,
		},
		compositor: newCompositor(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.log == nil {
		p.log = zap.NewNop()
	}

	// Device limits take precedence over printer defaults.
	if p.deviceCfg != nil {
		if p.deviceCfg.MaxWidthPx > 0 {
			p.cfg.maxWidthPx = p.deviceCfg.MaxWidthPx
		}
		if p.deviceCfg.MaxFrameBytes > 0 {
			p.cfg.maxFrameBytes = p.deviceCfg.MaxFrameBytes
		}
	}

	if p.cfg.template == "" {
		tmpl, err := assets.LoadTemplate(assets.DefaultTemplateName)
		if err != nil {
			return nil, fmt.Errorf("loading default template: %w", err)
		}
		p.cfg.template = tmpl
	}

	normalizer, err := newNormalizer(p.cfg.maxWidthPx, p.cfg.dither)
	if err != nil {
		return nil, err
	}
	p.normalizer = normalizer
	p.encoder = newEncoder(p.cfg.maxFrameBytes, p.cfg.feedMarginMM, ThermalDPI)

	// Create renderer if not injected (e.g., by tests).
	if p.renderer == nil {
		p.renderer = newRodRenderer(p.cfg.timeout)
	}

	// Transport resolution: explicit > hardware device > recording sink.
	if p.transport == nil {
		if p.deviceCfg != nil {
			p.transport = NewUSBTransport(*p.deviceCfg, p.log)
		} else {
			p.transport = NewRecordingTransport()
		}
	}

	return p, nil
}

// PrintNote runs the full pipeline and sends the result to the printer.
// It stops at the first stage failure and never reaches later stages; a
// failed attempt leaves the caller's printed state untouched.
// Recovers from internal panics to prevent crashes from propagating.
func (p *Printer) PrintNote(ctx context.Context, note Note) (result *PrintResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	bitmap, err := p.renderBitmap(ctx, note)
	if err != nil {
		return nil, err
	}

	raster, err := p.normalizer.Rasterize(bitmap.Img)
	if err != nil {
		return nil, fmt.Errorf("rasterizing bitmap: %w", err)
	}

	stream, err := p.encoder.Encode(raster)
	if err != nil {
		return nil, fmt.Errorf("encoding command stream: %w", err)
	}

	// Last cancellation point: past here the transport owns the attempt.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sent, err := p.transport.Send(ctx, stream)
	if err != nil {
		p.log.Warn("print attempt failed at transport",
			zap.Int("bytes_sent", sent),
			zap.Error(err))
		return nil, fmt.Errorf("sending to printer: %w", err)
	}

	p.log.Info("note printed",
		zap.String("ticket_id", note.TicketID),
		zap.Int("raster_width", raster.WidthPx),
		zap.Int("raster_height", raster.Height),
		zap.Int("frames", len(stream.Frames())),
		zap.Int("bytes", sent))

	return &PrintResult{
		BytesSent: sent,
		Frames:    len(stream.Frames()),
		PNG:       bitmap.PNG,
	}, nil
}

// PreviewHTML composes the final document without touching the renderer or
// the printer channel. Composition is deterministic: the same note yields
// byte-identical HTML.
func (p *Printer) PreviewHTML(ctx context.Context, note Note) (string, error) {
	if err := note.Validate(); err != nil {
		return "", err
	}
	resolved, err := p.resolveNote(note)
	if err != nil {
		return "", err
	}
	return p.compositor.Compose(ctx, p.templateFor(resolved), resolved, resolved.width(p.cfg.maxWidthPx))
}

// PreviewImage renders the note to a PNG bitmap without encoding or
// printing. This path never opens the printer channel.
func (p *Printer) PreviewImage(ctx context.Context, note Note) ([]byte, error) {
	bitmap, err := p.renderBitmap(ctx, note)
	if err != nil {
		return nil, err
	}
	return bitmap.PNG, nil
}

// renderBitmap runs the compose and render stages shared by print and
// image preview.
func (p *Printer) renderBitmap(ctx context.Context, note Note) (*Bitmap, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}
	resolved, err := p.resolveNote(note)
	if err != nil {
		return nil, err
	}

	width := resolved.width(p.cfg.maxWidthPx)
	htmlDoc, err := p.compositor.Compose(ctx, p.templateFor(resolved), resolved, width)
	if err != nil {
		return nil, fmt.Errorf("composing template: %w", err)
	}

	bitmap, err := p.renderer.RenderHTML(ctx, htmlDoc, width)
	if err != nil {
		return nil, fmt.Errorf("rendering note: %w", err)
	}

	p.log.Debug("note rendered",
		zap.Int("bitmap_width", bitmap.Width),
		zap.Int("bitmap_height", bitmap.Height))
	return bitmap, nil
}

// resolveNote fills derived fields: an empty or "auto" date becomes the
// current date stamp.
func (p *Printer) resolveNote(note Note) (Note, error) {
	date := note.Date
	if date == "" {
		date = "auto"
	}
	resolved, err := dateutil.Resolve(date, p.now())
	if err != nil {
		return Note{}, fmt.Errorf("resolving date: %w", err)
	}
	note.Date = resolved
	return note, nil
}

// templateFor picks the per-note template over the configured default.
func (p *Printer) templateFor(note Note) string {
	if note.Template != "" {
		return note.Template
	}
	return p.cfg.template
}

// Close releases the browser and the transport.
func (p *Printer) Close() error {
	var errs []error
	if p.renderer != nil {
		if err := p.renderer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.transport != nil {
		if err := p.transport.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
