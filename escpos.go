package noteprint

import (
	"fmt"
	"math"
)

// FrameKind tags the role of a command frame within a stream.
type FrameKind int

const (
	// FrameRaster transmits a horizontal strip of the monochrome bitmap.
	FrameRaster FrameKind = iota
	// FrameFeed advances the paper past the tear-off guide.
	FrameFeed
)

// Frame is one opaque ESC/POS command: a complete, independently valid
// device instruction. Frames are never split by the transport.
type Frame struct {
	Kind FrameKind
	Data []byte
	Rows int // raster rows covered; zero for feed frames
}

// CommandStream is the ordered frame sequence of one print attempt.
// A stream is complete only once the trailing feed has been appended.
type CommandStream struct {
	frames   []Frame
	complete bool
}

// Frames returns the frames in emission order.
func (s *CommandStream) Frames() []Frame { return s.frames }

// Len returns the total byte length of the stream.
func (s *CommandStream) Len() int {
	total := 0
	for _, f := range s.frames {
		total += len(f.Data)
	}
	return total
}

// Complete reports whether the trailing feed frame has been appended.
func (s *CommandStream) Complete() bool { return s.complete }

// Bytes concatenates all frames into the raw device byte sequence.
func (s *CommandStream) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	for _, f := range s.frames {
		out = append(out, f.Data...)
	}
	return out
}

// GS v 0 raster image command prefix: fixed density mode 0.
var rasterPrefix = []byte{0x1d, 0x76, 0x30, 0x00}

// escJ is the feed command prefix (ESC J n, n in dots).
var escJ = []byte{0x1b, 0x4a}

// maxFeedDots is the largest single ESC J argument.
const maxFeedDots = 255

// encoder serializes a MonoRaster into a CommandStream. It performs no I/O.
type encoder struct {
	maxFrameBytes int     // max raster payload bytes per frame (0 = single frame)
	feedMarginMM  float64 // paper purge distance after the last strip
	dpi           int
}

// newEncoder creates an encoder for the given frame and feed limits.
func newEncoder(maxFrameBytes int, feedMarginMM float64, dpi int) *encoder {
	if dpi <= 0 {
		dpi = ThermalDPI
	}
	return &encoder{maxFrameBytes: maxFrameBytes, feedMarginMM: feedMarginMM, dpi: dpi}
}

// Encode emits raster frames top-to-bottom followed by the paper feed.
// When the raster payload exceeds maxFrameBytes the image is split along
// row boundaries into contiguous strips, each an independently valid
// raster command.
func (e *encoder) Encode(r *MonoRaster) (*CommandStream, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	rowsPerFrame := r.Height
	if e.maxFrameBytes > 0 {
		rowsPerFrame = e.maxFrameBytes / r.ByteWidth
		if rowsPerFrame < 1 {
			// A single row never splits, even if it exceeds the limit.
			rowsPerFrame = 1
		}
	}

	stream := &CommandStream{}
	for top := 0; top < r.Height; top += rowsPerFrame {
		rows := rowsPerFrame
		if rows > r.Height-top {
			rows = r.Height - top
		}
		stream.frames = append(stream.frames, rasterFrame(r, top, rows))
	}

	for _, f := range feedFrames(e.feedMarginMM, e.dpi) {
		stream.frames = append(stream.frames, f)
	}
	stream.complete = true

	return stream, nil
}

// rasterFrame builds one GS v 0 command covering rows [top, top+rows).
// The header carries the byte width and strip height as little-endian
// 2-byte fields, followed by the packed rows verbatim.
func rasterFrame(r *MonoRaster, top, rows int) Frame {
	payload := r.Data[top*r.ByteWidth : (top+rows)*r.ByteWidth]

	data := make([]byte, 0, len(rasterPrefix)+4+len(payload))
	data = append(data, rasterPrefix...)
	data = append(data, intLowHigh(r.ByteWidth)...)
	data = append(data, intLowHigh(rows)...)
	data = append(data, payload...)

	return Frame{Kind: FrameRaster, Data: data, Rows: rows}
}

// feedFrames converts the bottom margin to head dots and emits ESC J
// commands in chunks of at most 255 dots.
func feedFrames(marginMM float64, dpi int) []Frame {
	if marginMM <= 0 {
		// The stream still needs a terminator; feed zero dots.
		return []Frame{{Kind: FrameFeed, Data: append(append([]byte{}, escJ...), 0)}}
	}

	dots := int(math.Round(marginMM * float64(dpi) / 25.4))
	var frames []Frame
	for dots > 0 {
		chunk := dots
		if chunk > maxFeedDots {
			chunk = maxFeedDots
		}
		frames = append(frames, Frame{
			Kind: FrameFeed,
			Data: append(append([]byte{}, escJ...), byte(chunk)),
		})
		dots -= chunk
	}
	return frames
}

// intLowHigh encodes a value as a little-endian 2-byte field.
func intLowHigh(v int) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

// decodeRasterHeader parses a GS v 0 frame header. Used to verify chunking.
func decodeRasterHeader(frame []byte) (byteWidth, rows int, payload []byte, err error) {
	if len(frame) < len(rasterPrefix)+4 {
		return 0, 0, nil, fmt.Errorf("raster frame too short: %d bytes", len(frame))
	}
	for i, b := range rasterPrefix {
		if frame[i] != b {
			return 0, 0, nil, fmt.Errorf("not a raster frame: prefix byte %d is %#x", i, frame[i])
		}
	}
	byteWidth = int(frame[4]) | int(frame[5])<<8
	rows = int(frame[6]) | int(frame[7])<<8
	payload = frame[8:]
	if len(payload) != byteWidth*rows {
		return 0, 0, nil, fmt.Errorf("raster payload is %d bytes, header says %d", len(payload), byteWidth*rows)
	}
	return byteWidth, rows, payload, nil
}
