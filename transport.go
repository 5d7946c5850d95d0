package noteprint

import (
	"context"
	"sync"
)

// Transport owns the channel to a physical printer (or an in-memory sink).
//
// Send writes every frame of the stream in order and returns the number of
// bytes written. A Send call holds exclusive ownership of the channel for
// its whole duration: concurrent calls are serialized, never interleaved at
// the byte level, because interleaved raster frames corrupt the physical
// print. On ErrDeviceNotFound or a permission failure no partial state is
// assumed recoverable.
type Transport interface {
	Send(ctx context.Context, stream *CommandStream) (int, error)
	Close() error
}

// Compile-time interface checks.
var (
	_ Transport = (*RecordingTransport)(nil)
	_ Transport = (*USBTransport)(nil)
)

// validateStream rejects streams that must not reach a device.
func validateStream(stream *CommandStream) error {
	if stream == nil || len(stream.Frames()) == 0 {
		return ErrStreamEmpty
	}
	if !stream.Complete() {
		return ErrStreamOpen
	}
	return nil
}

// RecordedSend is one completed Send call against a RecordingTransport.
type RecordedSend struct {
	Frames [][]byte // frame payloads in emission order
	Bytes  []byte   // concatenated stream bytes
}

// RecordingTransport is an in-memory Transport used by tests and
// printer-disabled deployments. It preserves the exclusive-access contract
// of the hardware transport so orchestration code behaves identically.
type RecordingTransport struct {
	mu     sync.Mutex
	sends  []RecordedSend
	fail   error
	closed bool
}

// NewRecordingTransport creates an empty recording sink.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{}
}

// FailWith makes subsequent Send calls return err. Pass nil to clear.
func (t *RecordingTransport) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = err
}

// Send records the stream. The lock spans the whole call, mirroring the
// hardware transport's exclusive-access guarantee.
func (t *RecordingTransport) Send(ctx context.Context, stream *CommandStream) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateStream(stream); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrDeviceNotFound
	}
	if t.fail != nil {
		return 0, t.fail
	}

	rec := RecordedSend{Bytes: stream.Bytes()}
	for _, f := range stream.Frames() {
		frame := make([]byte, len(f.Data))
		copy(frame, f.Data)
		rec.Frames = append(rec.Frames, frame)
	}
	t.sends = append(t.sends, rec)

	return len(rec.Bytes), nil
}

// Sends returns a snapshot of all completed sends in order.
func (t *RecordingTransport) Sends() []RecordedSend {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedSend, len(t.sends))
	copy(out, t.sends)
	return out
}

// Reset clears recorded sends and any injected failure.
func (t *RecordingTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sends = nil
	t.fail = nil
}

// Close marks the sink closed; further sends fail with ErrDeviceNotFound.
func (t *RecordingTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
