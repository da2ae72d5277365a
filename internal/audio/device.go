package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// CaptureConfig describes how the microphone should be captured.
type CaptureConfig struct {
	SampleRate int
	Channels   int
	// MaxSeconds bounds the capture buffer; chunks past it are dropped and
	// the finished artifact is flagged truncated.
	MaxSeconds int
}

// InputDevice is an acquired capture device. Chunks arrive through the
// callback passed to the opener until Stop is called.
type InputDevice interface {
	Start() error
	Stop() error
	Close()
}

// DeviceOpener acquires input devices. The production implementation sits on
// miniaudio; tests inject fakes.
type DeviceOpener interface {
	Open(cfg CaptureConfig, onChunk func([]byte)) (InputDevice, error)
}

// DeviceError reports a failure to acquire or operate the input device, for
// example a permission denial. It never affects the interview lifecycle.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device unavailable: %v", e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// MalgoOpener opens capture devices through miniaudio. The audio context is
// initialized lazily on first use and shared across captures.
type MalgoOpener struct {
	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

// NewMalgoOpener creates an opener. No device or context is touched until the
// first Open call, so construction never fails.
func NewMalgoOpener() *MalgoOpener {
	return &MalgoOpener{}
}

func (o *MalgoOpener) context() (*malgo.AllocatedContext, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx != nil {
		return o.ctx, nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	o.ctx = ctx
	return ctx, nil
}

// Open acquires a capture device delivering 16-bit PCM chunks in arrival
// order to onChunk.
func (o *MalgoOpener) Open(cfg CaptureConfig, onChunk func([]byte)) (InputDevice, error) {
	ctx, err := o.context()
	if err != nil {
		return nil, &DeviceError{Err: err}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			onChunk(input)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, &DeviceError{Err: err}
	}
	return &malgoDevice{device: device}, nil
}

// Close releases the shared audio context.
func (o *MalgoOpener) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx != nil {
		_ = o.ctx.Uninit()
		o.ctx = nil
	}
}

type malgoDevice struct {
	device *malgo.Device
}

func (d *malgoDevice) Start() error {
	if err := d.device.Start(); err != nil {
		return &DeviceError{Err: err}
	}
	return nil
}

func (d *malgoDevice) Stop() error {
	return d.device.Stop()
}

func (d *malgoDevice) Close() {
	d.device.Uninit()
}
