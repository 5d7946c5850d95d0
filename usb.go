package noteprint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// DeviceConfig describes the USB path to one thermal printer plus the
// protocol limits the pipeline must respect for it. It is handed to the
// transport at construction; no discovery happens during Send.
type DeviceConfig struct {
	VendorID      uint16
	ProductID     uint16
	Interface     int
	OutEndpoint   int
	InEndpoint    int
	MaxWidthPx    int // maximum dot columns of the head
	MaxFrameBytes int // maximum single-frame raster payload (0 = unlimited)
}

// DefaultDeviceConfig returns the configuration for the supported 58 mm
// generic thermal printer family.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		VendorID:    0x6868,
		ProductID:   0x0200,
		Interface:   0,
		OutEndpoint: 0x03,
		InEndpoint:  0x81,
		MaxWidthPx:  DefaultMaxWidthPx,
	}
}

// usbSendMu serializes sends to the physical channel. There is one physical
// device per process, so the lock is process-wide and lives for the process
// lifetime. The lock scope covers one full Send call, never partial.
var usbSendMu sync.Mutex

// usbWriteTimeout bounds the bulk transfer of one stream. Deliberately
// independent of the caller's context: once bytes start flowing the attempt
// runs to completion or hard failure, so the head is never left mid-frame.
const usbWriteTimeout = 60 * time.Second

// USBTransport writes command streams to a thermal printer over USB bulk
// transfer. The device is opened per Send and fully released before the
// call returns, success or failure.
type USBTransport struct {
	cfg DeviceConfig
	log *zap.Logger
}

// NewUSBTransport creates a transport for the configured device.
func NewUSBTransport(cfg DeviceConfig, log *zap.Logger) *USBTransport {
	if log == nil {
		log = zap.NewNop()
	}
	return &USBTransport{cfg: cfg, log: log}
}

// Send writes every frame of the stream in order. Cancellation is honored
// until the first frame starts flowing; after that the stream runs to
// completion so a partial raster never corrupts the device state.
func (t *USBTransport) Send(ctx context.Context, stream *CommandStream) (int, error) {
	if err := validateStream(stream); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	usbSendMu.Lock()
	defer usbSendMu.Unlock()

	// Re-check after lock acquisition: a caller that gave up while queued
	// behind another print should not open the device at all.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out, teardown, err := t.open()
	if err != nil {
		return 0, err
	}
	defer teardown()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usbWriteTimeout)
	defer cancel()

	sent := 0
	for i, f := range stream.Frames() {
		n, err := out.WriteContext(writeCtx, f.Data)
		sent += n
		if err != nil {
			t.log.Error("USB bulk write failed",
				zap.Int("frame", i),
				zap.Int("bytes_sent", sent),
				zap.Error(err))
			return sent, fmt.Errorf("%w: frame %d: %v", ErrDeviceIO, i, err)
		}
	}

	t.log.Info("command stream sent",
		zap.Int("frames", len(stream.Frames())),
		zap.Int("bytes", sent))
	return sent, nil
}

// open claims the configured interface and returns the bulk OUT endpoint
// plus a teardown releasing every claimed resource in reverse order.
func (t *USBTransport) open() (*gousb.OutEndpoint, func(), error) {
	usbCtx := gousb.NewContext()

	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(t.cfg.VendorID), gousb.ID(t.cfg.ProductID))
	if err != nil {
		usbCtx.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrDeviceIO, err)
	}
	if dev == nil {
		usbCtx.Close()
		return nil, nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, t.cfg.VendorID, t.cfg.ProductID)
	}

	// Kernel drivers (usblp) commonly hold the interface.
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, nil, fmt.Errorf("%w: auto-detach: %v", ErrDeviceBusy, err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, nil, fmt.Errorf("%w: claiming config: %v", ErrDeviceBusy, err)
	}

	intf, err := cfg.Interface(t.cfg.Interface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, nil, fmt.Errorf("%w: claiming interface %d: %v", ErrDeviceBusy, t.cfg.Interface, err)
	}

	out, err := intf.OutEndpoint(t.cfg.OutEndpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, nil, fmt.Errorf("%w: endpoint %#02x: %v", ErrDeviceIO, t.cfg.OutEndpoint, err)
	}

	teardown := func() {
		intf.Close()
		cfg.Close()
		dev.Close()
		usbCtx.Close()
	}
	return out, teardown, nil
}

// Close is a no-op: the device handle is opened per Send.
func (t *USBTransport) Close() error { return nil }

// Detection cache, filled once per process lifetime.
var (
	detectMu     sync.Mutex
	detectCached *DeviceConfig
)

// DetectDevice scans the USB bus for the first device of the given vendor
// and fills in product id, interface, and bulk endpoints. The result is
// cached until the process exits.
func DetectDevice(vendorID uint16) (*DeviceConfig, error) {
	detectMu.Lock()
	defer detectMu.Unlock()

	if detectCached != nil && detectCached.VendorID == vendorID {
		cfg := *detectCached
		return &cfg, nil
	}

	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	devs, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(vendorID)
	})
	for _, d := range devs {
		defer d.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanning bus: %v", ErrDeviceIO, err)
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("%w: vendor %04x", ErrDeviceNotFound, vendorID)
	}

	desc := devs[0].Desc
	cfg := DeviceConfig{
		VendorID:   uint16(desc.Vendor),
		ProductID:  uint16(desc.Product),
		MaxWidthPx: DefaultMaxWidthPx,
	}

	found := false
	for _, cfgDesc := range desc.Configs {
		for _, intf := range cfgDesc.Interfaces {
			if len(intf.AltSettings) == 0 {
				continue
			}
			alt := intf.AltSettings[0]
			in, out := 0, 0
			for _, ep := range alt.Endpoints {
				if ep.TransferType != gousb.TransferTypeBulk {
					continue
				}
				if ep.Direction == gousb.EndpointDirectionIn {
					in = ep.Number
				} else {
					out = ep.Number
				}
			}
			if out != 0 {
				cfg.Interface = intf.Number
				cfg.OutEndpoint = out
				cfg.InEndpoint = in
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no bulk OUT endpoint on vendor %04x", ErrDeviceNotFound, vendorID)
	}

	cached := cfg
	detectCached = &cached
	out := cfg
	return &out, nil
}
