package audio

import (
	"sync"

	log "github.com/echocat/slf4g"
)

// CaptureState is the lifecycle state of the recorder.
type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureAcquiring CaptureState = "acquiring"
	CaptureRecording CaptureState = "recording"
	CaptureStopping  CaptureState = "stopping"
)

// Artifact is the finalized, ordered recording produced by one record/stop
// cycle. It is immutable once yielded.
type Artifact struct {
	PCM        []byte
	SampleRate int
	Channels   int
	Truncated  bool
}

// Empty reports whether the artifact contains no samples.
func (a Artifact) Empty() bool {
	return len(a.PCM) == 0
}

// WAV returns the artifact wrapped in a WAV container, ready for upload.
func (a Artifact) WAV() []byte {
	return EncodeWAV(a.PCM, a.SampleRate, a.Channels)
}

// Recorder owns a single capture lifecycle at a time: it acquires the input
// device, buffers chunks in arrival order and finalizes them into an
// Artifact on stop. The buffer is never exposed while recording.
type Recorder struct {
	mu       sync.Mutex
	state    CaptureState
	opener   DeviceOpener
	device   InputDevice
	cfg      CaptureConfig
	chunks   [][]byte
	buffered int
	maxBytes int
	dropped  bool
}

// NewRecorder creates a recorder in the idle state.
func NewRecorder(opener DeviceOpener, cfg CaptureConfig) *Recorder {
	maxBytes := cfg.MaxSeconds * cfg.SampleRate * cfg.Channels * 2
	return &Recorder{
		state:    CaptureIdle,
		opener:   opener,
		cfg:      cfg,
		maxBytes: maxBytes,
	}
}

// State returns the current capture state.
func (r *Recorder) State() CaptureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start acquires the input device and begins buffering chunks. Valid only
// from idle; calling it while a capture is live is a no-op. A device
// acquisition failure returns a DeviceError and leaves the recorder idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state != CaptureIdle {
		state := r.state
		r.mu.Unlock()
		log.With("state", state).Debug("Capture start ignored, recorder not idle.")
		return nil
	}
	r.state = CaptureAcquiring
	r.chunks = nil
	r.buffered = 0
	r.dropped = false
	r.mu.Unlock()

	device, err := r.opener.Open(r.cfg, r.appendChunk)
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.state = CaptureIdle
		return err
	}

	// The device fires its data callback as soon as it starts, so the
	// recorder must already be accepting chunks before device.Start.
	r.mu.Lock()
	r.device = device
	r.state = CaptureRecording
	r.mu.Unlock()

	if err := device.Start(); err != nil {
		device.Close()
		r.mu.Lock()
		defer r.mu.Unlock()
		r.device = nil
		r.chunks = nil
		r.buffered = 0
		r.state = CaptureIdle
		return err
	}

	log.With("sampleRate", r.cfg.SampleRate).
		With("channels", r.cfg.Channels).
		Debug("Capture started.")
	return nil
}

// Stop finalizes the buffered chunks into a single artifact, releases the
// device and returns to idle. Called while not recording it is a no-op and
// yields no artifact.
func (r *Recorder) Stop() (Artifact, bool) {
	r.mu.Lock()
	if r.state != CaptureRecording {
		state := r.state
		r.mu.Unlock()
		log.With("state", state).Debug("Capture stop ignored, recorder not recording.")
		return Artifact{}, false
	}
	r.state = CaptureStopping
	device := r.device
	r.device = nil
	r.mu.Unlock()

	// Stop the device outside the lock; its callback grabs it for chunks.
	if err := device.Stop(); err != nil {
		log.WithError(err).Warn("Failed to stop capture device.")
	}
	device.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	pcm := make([]byte, 0, r.buffered)
	for _, chunk := range r.chunks {
		pcm = append(pcm, chunk...)
	}
	artifact := Artifact{
		PCM:        pcm,
		SampleRate: r.cfg.SampleRate,
		Channels:   r.cfg.Channels,
		Truncated:  r.dropped,
	}

	r.chunks = nil
	r.buffered = 0
	r.dropped = false
	r.state = CaptureIdle

	log.With("bytes", len(artifact.PCM)).
		With("truncated", artifact.Truncated).
		Debug("Capture finalized.")
	return artifact, true
}

// appendChunk buffers one device callback chunk. Order is arrival order;
// chunks past the configured cap are dropped.
func (r *Recorder) appendChunk(data []byte) {
	if len(data) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != CaptureRecording {
		return
	}
	if r.maxBytes > 0 && r.buffered+len(data) > r.maxBytes {
		if !r.dropped {
			log.With("maxBytes", r.maxBytes).Warn("Capture limit reached, dropping further audio.")
		}
		r.dropped = true
		return
	}

	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.chunks = append(r.chunks, chunk)
	r.buffered += len(chunk)
}
