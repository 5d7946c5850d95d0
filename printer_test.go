package noteprint

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"
)

// fakeRenderer satisfies bitmapRenderer without a browser.
type fakeRenderer struct {
	img      image.Image
	err      error
	lastHTML string
	calls    int
	closed   bool
}

func (f *fakeRenderer) RenderHTML(ctx context.Context, htmlContent string, widthPx int) (*Bitmap, error) {
	f.calls++
	f.lastHTML = htmlContent
	if f.err != nil {
		return nil, f.err
	}
	bounds := f.img.Bounds()
	return &Bitmap{
		Img:    f.img,
		PNG:    []byte("png-bytes"),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

var testClock = func() time.Time {
	return time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
}

// newTestPrinter builds a printer with the fake renderer and a recording
// transport, pinned to a fixed clock.
func newTestPrinter(t *testing.T, renderer *fakeRenderer, opts ...Option) (*Printer, *RecordingTransport) {
	t.Helper()
	rec := NewRecordingTransport()
	opts = append([]Option{WithTransport(rec), WithDither(DitherThreshold)}, opts...)
	p, err := NewPrinter(opts...)
	if err != nil {
		t.Fatalf("NewPrinter() error = %v", err)
	}
	p.renderer = renderer
	p.now = testClock
	return p, rec
}

func TestPrintNoteFullPipeline(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)

	result, err := p.PrintNote(context.Background(), Note{Text: "hello", TicketID: "3"})
	if err != nil {
		t.Fatalf("PrintNote() error = %v", err)
	}

	if result.Frames != 2 {
		t.Errorf("result.Frames = %d, want 2 (raster + feed)", result.Frames)
	}
	if string(result.PNG) != "png-bytes" {
		t.Error("result.PNG does not carry the rendered bitmap")
	}

	sends := rec.Sends()
	if len(sends) != 1 {
		t.Fatalf("transport received %d sends, want 1", len(sends))
	}
	if result.BytesSent != len(sends[0].Bytes) {
		t.Errorf("result.BytesSent = %d, transport saw %d", result.BytesSent, len(sends[0].Bytes))
	}

	byteWidth, rows, _, err := decodeRasterHeader(sends[0].Frames[0])
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if byteWidth != 2 || rows != 8 {
		t.Errorf("raster frame is %d bytes x %d rows, want 2 x 8", byteWidth, rows)
	}

	if !strings.Contains(renderer.lastHTML, "hello") {
		t.Error("rendered HTML does not contain the note text")
	}
	if !strings.Contains(renderer.lastHTML, "#3") {
		t.Error("rendered HTML does not contain the ticket badge")
	}
}

func TestPrintNoteAutoDateUsesClock(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, _ := newTestPrinter(t, renderer)

	if _, err := p.PrintNote(context.Background(), Note{Text: "x"}); err != nil {
		t.Fatalf("PrintNote() error = %v", err)
	}
	if !strings.Contains(renderer.lastHTML, "07 Mar 2026") {
		t.Error("auto date did not resolve against the injected clock")
	}
}

func TestPrintNoteValidation(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)

	tests := []struct {
		name    string
		note    Note
		wantErr error
	}{
		{"empty text", Note{Text: ""}, ErrEmptyText},
		{"whitespace text", Note{Text: "  \n "}, ErrEmptyText},
		{"negative width", Note{Text: "x", WidthPx: -1}, ErrInvalidWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.PrintNote(context.Background(), tt.note)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PrintNote() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if renderer.calls != 0 {
		t.Error("invalid notes reached the renderer")
	}
	if len(rec.Sends()) != 0 {
		t.Error("invalid notes reached the transport")
	}
}

func TestPrintNoteStopsAtRenderFailure(t *testing.T) {
	renderer := &fakeRenderer{err: ErrBrowserConnect}
	p, rec := newTestPrinter(t, renderer)

	_, err := p.PrintNote(context.Background(), Note{Text: "x"})
	if !errors.Is(err, ErrBrowserConnect) {
		t.Fatalf("PrintNote() error = %v, want ErrBrowserConnect", err)
	}
	if len(rec.Sends()) != 0 {
		t.Error("failed render still reached the transport")
	}
}

func TestPrintNoteStopsAtDegenerateBitmap(t *testing.T) {
	renderer := &fakeRenderer{img: image.NewGray(image.Rect(0, 0, 0, 0))}
	p, rec := newTestPrinter(t, renderer)

	_, err := p.PrintNote(context.Background(), Note{Text: "x"})
	if !errors.Is(err, ErrDegenerateImage) {
		t.Fatalf("PrintNote() error = %v, want ErrDegenerateImage", err)
	}
	if len(rec.Sends()) != 0 {
		t.Error("degenerate bitmap still reached the transport")
	}
}

func TestPrintNoteTransportFailure(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)
	rec.FailWith(ErrDeviceNotFound)

	_, err := p.PrintNote(context.Background(), Note{Text: "x"})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("PrintNote() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestPrintNoteCancelledBeforeTransport(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.PrintNote(ctx, Note{Text: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("PrintNote() error = %v, want context.Canceled", err)
	}
	if len(rec.Sends()) != 0 {
		t.Error("cancelled attempt still reached the transport")
	}
}

func TestPreviewHTMLNeverTouchesRendererOrTransport(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)

	html, err := p.PreviewHTML(context.Background(), Note{Text: "draft", Category: "trabalho"})
	if err != nil {
		t.Fatalf("PreviewHTML() error = %v", err)
	}
	if !strings.Contains(html, "draft") {
		t.Error("preview HTML missing the note text")
	}
	if renderer.calls != 0 {
		t.Error("HTML preview invoked the renderer")
	}
	if len(rec.Sends()) != 0 {
		t.Error("HTML preview reached the transport")
	}
}

func TestPreviewHTMLIsDeterministic(t *testing.T) {
	p, _ := newTestPrinter(t, &fakeRenderer{img: grayImage(8, 8, allBlack)})

	note := Note{Text: "same", Date: "auto"}
	first, err := p.PreviewHTML(context.Background(), note)
	if err != nil {
		t.Fatalf("PreviewHTML() error = %v", err)
	}
	second, err := p.PreviewHTML(context.Background(), note)
	if err != nil {
		t.Fatalf("PreviewHTML() error = %v", err)
	}
	if first != second {
		t.Error("identical notes produced different preview documents")
	}
}

func TestPreviewImageNeverTouchesTransport(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)

	png, err := p.PreviewImage(context.Background(), Note{Text: "x"})
	if err != nil {
		t.Fatalf("PreviewImage() error = %v", err)
	}
	if string(png) != "png-bytes" {
		t.Error("PreviewImage() did not return the rendered bitmap")
	}
	if len(rec.Sends()) != 0 {
		t.Error("image preview reached the transport")
	}
}

func TestPerNoteTemplateOverridesDefault(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, _ := newTestPrinter(t, renderer, WithTemplate(`<div class="note">cfg {{ text }}</div>`))

	note := Note{Text: "x", Template: `<div class="note">note {{ text }}</div>`}
	html, err := p.PreviewHTML(context.Background(), note)
	if err != nil {
		t.Fatalf("PreviewHTML() error = %v", err)
	}
	if !strings.HasPrefix(html, `<div class="note">note `) {
		t.Errorf("per-note template not applied: %s", html)
	}
}

func TestNoteWidthOverridesHeadWidth(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(16, 8, allBlack)}
	p, _ := newTestPrinter(t, renderer, WithTemplate(`<div class="note">{{ width }}</div>`))

	html, err := p.PreviewHTML(context.Background(), Note{Text: "x", WidthPx: 200})
	if err != nil {
		t.Fatalf("PreviewHTML() error = %v", err)
	}
	if !strings.Contains(html, "200") {
		t.Errorf("note width not substituted: %s", html)
	}

	html, err = p.PreviewHTML(context.Background(), Note{Text: "x"})
	if err != nil {
		t.Fatalf("PreviewHTML() error = %v", err)
	}
	if !strings.Contains(html, "384") {
		t.Errorf("head width fallback not substituted: %s", html)
	}
}

func TestNewPrinterRejectsBadConfig(t *testing.T) {
	if _, err := NewPrinter(WithDither("halftone")); !errors.Is(err, ErrInvalidDither) {
		t.Errorf("NewPrinter() error = %v, want ErrInvalidDither", err)
	}
	if _, err := NewPrinter(WithMaxWidth(4)); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("NewPrinter() error = %v, want ErrInvalidWidth", err)
	}
}

func TestDeviceConfigOverridesLimits(t *testing.T) {
	rec := NewRecordingTransport()
	p, err := NewPrinter(
		WithTransport(rec),
		WithDeviceConfig(DeviceConfig{MaxWidthPx: 576, MaxFrameBytes: 1024}),
	)
	if err != nil {
		t.Fatalf("NewPrinter() error = %v", err)
	}
	if p.cfg.maxWidthPx != 576 {
		t.Errorf("maxWidthPx = %d, want 576 from device config", p.cfg.maxWidthPx)
	}
	if p.cfg.maxFrameBytes != 1024 {
		t.Errorf("maxFrameBytes = %d, want 1024 from device config", p.cfg.maxFrameBytes)
	}
}

func TestCloseReleasesRendererAndTransport(t *testing.T) {
	renderer := &fakeRenderer{img: grayImage(8, 8, allBlack)}
	p, rec := newTestPrinter(t, renderer)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !renderer.closed {
		t.Error("Close() did not close the renderer")
	}
	if _, err := rec.Send(context.Background(), completeStream(t, 1)); !errors.Is(err, ErrDeviceNotFound) {
		t.Error("Close() did not close the transport")
	}
}

func TestWithTimeoutPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) did not panic")
		}
	}()
	WithTimeout(0)
}
