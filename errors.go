package noteprint

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyText = errors.New("note text cannot be empty")

	// Template composition errors.
	ErrEmptyTemplate         = errors.New("template cannot be empty")
	ErrUnresolvedPlaceholder = errors.New("template contains unresolved placeholder")
	ErrMarkupConversion      = errors.New("markup conversion failed")

	// Renderer errors. Each maps to a distinct failure point in the
	// headless-Chrome round trip so callers can tell a missing browser
	// apart from a broken template.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrNoteElement    = errors.New("note element not found in rendered page")
	ErrScreenshot     = errors.New("failed to capture screenshot")

	// Raster errors.
	ErrDegenerateImage = errors.New("rendered bitmap has zero area")
	ErrInvalidRaster   = errors.New("invalid raster dimensions")

	// Validation errors.
	ErrInvalidWidth  = errors.New("invalid render width")
	ErrInvalidDither = errors.New("invalid dither mode")

	// Pool errors.
	ErrPoolClosed = errors.New("printer pool is closed")

	// Transport errors.
	ErrDeviceNotFound = errors.New("printer device not found")
	ErrDeviceBusy     = errors.New("printer device busy")
	ErrDeviceIO       = errors.New("printer I/O failure")
	ErrStreamEmpty    = errors.New("command stream is empty")
	ErrStreamOpen     = errors.New("command stream has no trailing feed")
)
