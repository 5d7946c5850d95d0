package noteprint

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mathbatistela/go-noteprint/internal/fileutil"
)

// Bitmap is the cropped screenshot of one rendered note. It is owned by the
// print attempt that produced it and handed to the normalizer unshared.
type Bitmap struct {
	Img    image.Image
	PNG    []byte
	Width  int // pixel width (2x the CSS width due to oversampling)
	Height int // pixel height
}

// bitmapRenderer abstracts HTML-to-bitmap rendering to enable testing
// without a browser.
type bitmapRenderer interface {
	RenderHTML(ctx context.Context, htmlContent string, widthPx int) (*Bitmap, error)
	Close() error
}

// Compile-time interface check.
var _ bitmapRenderer = (*rodRenderer)(nil)

// oversampleFactor sharpens sub-pixel text: the page renders at 2x device
// scale and the normalizer scales back down to the head width.
const oversampleFactor = 2.0

// initialViewportHeight is a placeholder until the document height is known.
const initialViewportHeight = 600

// rodRenderer rasterizes HTML using headless Chrome via go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// RenderHTML loads the document in headless Chrome and returns a PNG bitmap
// cropped to the `.note` element plus a small padding margin. The page is
// closed on every exit path.
func (r *rodRenderer) RenderHTML(ctx context.Context, htmlContent string, widthPx int) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + tmpPath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Timeout(timeout)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             widthPx,
		Height:            initialViewportHeight,
		DeviceScaleFactor: oversampleFactor,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	// Quiescence: no pending network or layout activity before measuring.
	if err := page.WaitIdle(timeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// Grow the viewport to the full document so the note is never clipped
	// by the placeholder height.
	obj, err := page.Eval(`() => document.documentElement.scrollHeight`)
	if err != nil {
		return nil, fmt.Errorf("%w: measuring document height: %v", ErrPageLoad, err)
	}
	docHeight := obj.Value.Int()
	if docHeight < 1 {
		docHeight = initialViewportHeight
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             widthPx,
		Height:            docHeight,
		DeviceScaleFactor: oversampleFactor,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	el, err := page.Element(".note")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoteElement, err)
	}
	shape, err := el.Shape()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoteElement, err)
	}
	box := shape.Box()
	if box == nil {
		return nil, fmt.Errorf("%w: element has no box", ErrNoteElement)
	}

	clip := clipRegion(box, float64(widthPx), float64(docHeight), clipPaddingPx)

	shot, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip:   clip,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding PNG: %v", ErrScreenshot, err)
	}

	bounds := img.Bounds()
	return &Bitmap{
		Img:    img,
		PNG:    shot,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// clipRegion pads the element box and clamps it to the viewport.
func clipRegion(box *proto.DOMRect, viewportW, viewportH, padding float64) *proto.PageViewport {
	x := box.X - padding
	if x < 0 {
		x = 0
	}
	y := box.Y - padding
	if y < 0 {
		y = 0
	}
	w := box.Width + padding*2
	if w > viewportW-x {
		w = viewportW - x
	}
	h := box.Height + padding*2
	if h > viewportH-y {
		h = viewportH - y
	}
	return &proto.PageViewport{X: x, Y: y, Width: w, Height: h, Scale: 1}
}
