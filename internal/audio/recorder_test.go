package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	startErr error
	// onStart mimics a device delivering its first chunk the moment it
	// starts running.
	onStart func()
	started bool
	stopped bool
	closed  bool
}

func (d *fakeDevice) Start() error {
	if d.startErr != nil {
		return &DeviceError{Err: d.startErr}
	}
	if d.onStart != nil {
		d.onStart()
	}
	d.started = true
	return nil
}

func (d *fakeDevice) Stop() error {
	d.stopped = true
	return nil
}

func (d *fakeDevice) Close() {
	d.closed = true
}

type fakeOpener struct {
	device    *fakeDevice
	openErr   error
	openCalls int
	onChunk   func([]byte)
}

func (o *fakeOpener) Open(_ CaptureConfig, onChunk func([]byte)) (InputDevice, error) {
	o.openCalls++
	if o.openErr != nil {
		return nil, &DeviceError{Err: o.openErr}
	}
	o.onChunk = onChunk
	return o.device, nil
}

func testConfig() CaptureConfig {
	return CaptureConfig{SampleRate: 16000, Channels: 1, MaxSeconds: 300}
}

func TestStopWithoutStartYieldsNoArtifact(t *testing.T) {
	recorder := NewRecorder(&fakeOpener{device: &fakeDevice{}}, testConfig())

	artifact, ok := recorder.Stop()
	assert.False(t, ok)
	assert.True(t, artifact.Empty())
	assert.Equal(t, CaptureIdle, recorder.State())
}

func TestStartAcquiresDeviceAndRecords(t *testing.T) {
	opener := &fakeOpener{device: &fakeDevice{}}
	recorder := NewRecorder(opener, testConfig())

	require.NoError(t, recorder.Start())
	assert.Equal(t, CaptureRecording, recorder.State())
	assert.True(t, opener.device.started)
}

func TestCapturePreservesChunkOrder(t *testing.T) {
	opener := &fakeOpener{device: &fakeDevice{}}
	recorder := NewRecorder(opener, testConfig())
	require.NoError(t, recorder.Start())

	opener.onChunk([]byte{1, 2})
	opener.onChunk([]byte{3, 4, 5})
	opener.onChunk([]byte{6})

	artifact, ok := recorder.Stop()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, artifact.PCM)
	assert.Equal(t, 16000, artifact.SampleRate)
	assert.False(t, artifact.Truncated)
	assert.Equal(t, CaptureIdle, recorder.State())
	assert.True(t, opener.device.stopped)
	assert.True(t, opener.device.closed)
}

func TestChunkDeliveredDuringDeviceStartIsBuffered(t *testing.T) {
	device := &fakeDevice{}
	opener := &fakeOpener{device: device}
	recorder := NewRecorder(opener, testConfig())
	device.onStart = func() {
		opener.onChunk([]byte{1, 2, 3, 4})
	}

	require.NoError(t, recorder.Start())

	artifact, ok := recorder.Stop()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, artifact.PCM)
}

func TestSecondStartWhileRecordingIsNoOp(t *testing.T) {
	opener := &fakeOpener{device: &fakeDevice{}}
	recorder := NewRecorder(opener, testConfig())
	require.NoError(t, recorder.Start())

	require.NoError(t, recorder.Start())
	assert.Equal(t, 1, opener.openCalls)
	assert.Equal(t, CaptureRecording, recorder.State())
}

func TestOpenFailureReportsDeviceError(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("permission denied")}
	recorder := NewRecorder(opener, testConfig())

	err := recorder.Start()
	require.Error(t, err)
	var devErr *DeviceError
	assert.ErrorAs(t, err, &devErr)
	assert.Equal(t, CaptureIdle, recorder.State())
}

func TestDeviceStartFailureReleasesDevice(t *testing.T) {
	device := &fakeDevice{startErr: errors.New("device busy")}
	opener := &fakeOpener{device: device}
	recorder := NewRecorder(opener, testConfig())

	err := recorder.Start()
	require.Error(t, err)
	var devErr *DeviceError
	assert.ErrorAs(t, err, &devErr)
	assert.True(t, device.closed)
	assert.Equal(t, CaptureIdle, recorder.State())
}

func TestCaptureLimitDropsAndFlagsTruncation(t *testing.T) {
	cfg := testConfig()
	// One second cap: 16000 samples * 2 bytes.
	cfg.MaxSeconds = 1
	opener := &fakeOpener{device: &fakeDevice{}}
	recorder := NewRecorder(opener, cfg)
	require.NoError(t, recorder.Start())

	full := make([]byte, 32000)
	opener.onChunk(full)
	opener.onChunk([]byte{9, 9})

	artifact, ok := recorder.Stop()
	require.True(t, ok)
	assert.Len(t, artifact.PCM, 32000)
	assert.True(t, artifact.Truncated)
}

func TestChunksIgnoredWhenNotRecording(t *testing.T) {
	opener := &fakeOpener{device: &fakeDevice{}}
	recorder := NewRecorder(opener, testConfig())
	require.NoError(t, recorder.Start())

	artifact, ok := recorder.Stop()
	require.True(t, ok)
	require.True(t, artifact.Empty())

	// Late device callback after stop must not leak into the next capture.
	opener.onChunk([]byte{7, 7})

	require.NoError(t, recorder.Start())
	artifact, ok = recorder.Stop()
	require.True(t, ok)
	assert.True(t, artifact.Empty())
}

func TestArtifactWAVRoundTrip(t *testing.T) {
	artifact := Artifact{PCM: []byte{1, 0, 2, 0}, SampleRate: 16000, Channels: 1}

	pcm, rate, channels, err := DecodeWAV(artifact.WAV())
	require.NoError(t, err)
	assert.Equal(t, artifact.PCM, pcm)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, 1, channels)
}
