package noteprint

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/nfnt/resize"
)

// MonoRaster is a byte-aligned 1-bit monochrome raster ready for the
// printer protocol. Each row is ByteWidth bytes, most-significant-bit first,
// where a set bit fires a dot (black).
type MonoRaster struct {
	WidthPx   int    // pixel width before byte-alignment padding
	ByteWidth int    // ceil(WidthPx / 8)
	Height    int    // pixel height
	Data      []byte // ByteWidth * Height packed bytes
}

// At reports whether the dot at (x, y) is black.
// Coordinates outside the raster are white.
func (r *MonoRaster) At(x, y int) bool {
	if x < 0 || y < 0 || x >= r.ByteWidth*8 || y >= r.Height {
		return false
	}
	b := r.Data[y*r.ByteWidth+x/8]
	return b&(0x80>>uint(x%8)) != 0
}

// Unpack expands the packed bytes back into a dot matrix, including the
// padding columns. Used to verify that packing is lossless.
func (r *MonoRaster) Unpack() [][]bool {
	rows := make([][]bool, r.Height)
	for y := 0; y < r.Height; y++ {
		row := make([]bool, r.ByteWidth*8)
		for x := range row {
			row[x] = r.At(x, y)
		}
		rows[y] = row
	}
	return rows
}

// validate checks the numeric invariants of the raster.
func (r *MonoRaster) validate() error {
	if r.WidthPx < 1 || r.Height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRaster, r.WidthPx, r.Height)
	}
	if want := (r.WidthPx + 7) / 8; r.ByteWidth != want {
		return fmt.Errorf("%w: byte width %d for %d px", ErrInvalidRaster, r.ByteWidth, r.WidthPx)
	}
	if len(r.Data) != r.ByteWidth*r.Height {
		return fmt.Errorf("%w: %d payload bytes, want %d", ErrInvalidRaster, len(r.Data), r.ByteWidth*r.Height)
	}
	return nil
}

// normalizer converts an arbitrary bitmap into a MonoRaster.
type normalizer struct {
	maxWidthPx int
	mode       string
}

// newNormalizer creates a normalizer for the given head width and dither mode.
func newNormalizer(maxWidthPx int, mode string) (*normalizer, error) {
	if maxWidthPx < 8 {
		return nil, fmt.Errorf("%w: max width %d", ErrInvalidWidth, maxWidthPx)
	}
	switch mode {
	case DitherFloydSteinberg, DitherBayer, DitherThreshold:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDither, mode)
	}
	return &normalizer{maxWidthPx: maxWidthPx, mode: mode}, nil
}

// Rasterize downscales, thresholds, pads, and packs the bitmap.
// The output row width is WidthPx padded up to the next multiple of 8 with
// white dots; padding never exceeds 7 columns.
func (n *normalizer) Rasterize(img image.Image) (*MonoRaster, error) {
	bounds := img.Bounds()
	if bounds.Dx() < 1 || bounds.Dy() < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDegenerateImage, bounds.Dx(), bounds.Dy())
	}

	// Downscale preserving aspect ratio; the height rounds to the nearest
	// integer and never drops below one row.
	if bounds.Dx() > n.maxWidthPx {
		ratio := float64(n.maxWidthPx) / float64(bounds.Dx())
		newHeight := int(math.Round(float64(bounds.Dy()) * ratio))
		if newHeight < 1 {
			newHeight = 1
		}
		img = resize.Resize(uint(n.maxWidthPx), uint(newHeight), img, resize.Lanczos3)
		bounds = img.Bounds()
	}

	mono := n.monochrome(img)

	width := bounds.Dx()
	height := bounds.Dy()
	byteWidth := (width + 7) / 8

	raster := &MonoRaster{
		WidthPx:   width,
		ByteWidth: byteWidth,
		Height:    height,
		Data:      make([]byte, byteWidth*height),
	}

	// Pack 8 horizontal dots per byte, MSB first. Columns beyond width stay
	// zero, which is exactly the white byte-alignment padding.
	min := bounds.Min
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mono(min.X+x, min.Y+y) {
				raster.Data[y*byteWidth+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	return raster, raster.validate()
}

// monochrome returns a black-dot predicate for the configured mode.
// Error diffusion avoids banding on icon gradients; flat threshold keeps
// pure text output bit-exact and is selectable for tests.
func (n *normalizer) monochrome(img image.Image) func(x, y int) bool {
	if n.mode == DitherThreshold {
		return func(x, y int) bool {
			return luma(img.At(x, y)) < 0x8000
		}
	}

	d := dither.NewDitherer([]color.Color{color.Black, color.White})
	switch n.mode {
	case DitherBayer:
		d.Mapper = dither.Bayer(8, 8, 1.0)
	default:
		d.Matrix = dither.FloydSteinberg
	}

	dithered := d.Dither(img)
	if dithered == nil {
		// Ditherer misconfiguration; fall back to a flat cutoff rather
		// than failing the print attempt.
		dithered = img
	}
	return func(x, y int) bool {
		return luma(dithered.At(x, y)) < 0x8000
	}
}

// luma returns the 16-bit Rec. 601 luminance of a color.
func luma(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (299*r + 587*g + 114*b) / 1000
}
