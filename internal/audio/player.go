package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	log "github.com/echocat/slf4g"
	"github.com/hajimehoshi/go-mp3"
)

// Fetcher downloads server-hosted audio resources.
type Fetcher interface {
	FetchAudio(ctx context.Context, audioFile string) ([]byte, error)
}

// Player handles fire-and-forget playback of server-hosted question audio.
// Requests are serialized through a single worker; scheduling a new clip
// stops whatever is currently playing. Failures are logged and non-fatal:
// the question text stays authoritative regardless of audio.
type Player struct {
	fetcher Fetcher

	queue    chan string
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	skipChan chan struct{}

	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
}

// NewPlayer creates a player and starts its worker. The speaker context is
// initialized lazily on the first clip.
func NewPlayer(fetcher Fetcher) *Player {
	p := &Player{
		fetcher:  fetcher,
		queue:    make(chan string, 4),
		shutdown: make(chan struct{}),
		skipChan: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// PlayQuestion schedules playback of a server-hosted audio resource. It
// never blocks: the current clip is interrupted and the new one queued.
func (p *Player) PlayQuestion(audioFile string) {
	if audioFile == "" {
		return
	}
	p.Stop()
	select {
	case p.queue <- audioFile:
	default:
		log.With("audioFile", audioFile).Warn("Playback queue full, dropping clip.")
	}
}

// Stop interrupts the clip currently playing, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.skipChan)
	p.skipChan = make(chan struct{})
}

// Close stops the worker and releases the speaker.
func (p *Player) Close() {
	close(p.shutdown)
	p.Stop()
	p.wg.Wait()
}

// run processes playback requests from the queue.
func (p *Player) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdown:
			return
		case audioFile := <-p.queue:
			if err := p.play(audioFile); err != nil {
				log.WithError(err).
					With("audioFile", audioFile).
					Warn("Question audio playback failed.")
			}
		}
	}
}

// play fetches, decodes and plays a single clip to completion or until
// skipped.
func (p *Player) play(audioFile string) error {
	p.mu.Lock()
	skip := p.skipChan
	p.mu.Unlock()

	data, err := p.fetcher.FetchAudio(context.Background(), audioFile)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}

	pcm, rate, channels, err := decodeClip(data)
	if err != nil {
		return fmt.Errorf("failed to decode audio: %w", err)
	}

	if err := p.ensureContext(rate, channels); err != nil {
		return fmt.Errorf("failed to open speaker: %w", err)
	}
	pcm = p.conform(pcm, rate, channels)

	player := p.otoCtx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-skip:
			player.Pause()
			log.With("audioFile", audioFile).Debug("Playback interrupted.")
			return nil
		case <-p.shutdown:
			player.Pause()
			return nil
		case <-ticker.C:
		}
	}

	log.With("audioFile", audioFile).With("bytes", len(pcm)).Debug("Playback completed.")
	return nil
}

// ensureContext initializes the speaker on first use. The rate and channel
// layout of the first clip become the context's; later clips are converted
// to match.
func (p *Player) ensureContext(rate, channels int) error {
	if p.otoCtx != nil {
		return nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return err
	}
	<-ready
	p.otoCtx = ctx
	p.otoRate = rate
	p.otoChannels = channels
	return nil
}

// conform converts decoded PCM to the speaker context's channel layout and
// sample rate. The context is fixed by the first clip and the MP3 decoder
// always emits stereo, so later clips can differ in either dimension.
func (p *Player) conform(pcm []byte, rate, channels int) []byte {
	if channels == 1 && p.otoChannels == 2 {
		pcm = monoToStereo(pcm)
		channels = 2
	} else if channels == 2 && p.otoChannels == 1 {
		pcm = stereoToMono(pcm)
		channels = 1
	}
	if rate == p.otoRate {
		return pcm
	}
	if channels == 1 {
		return Resample(pcm, rate, p.otoRate)
	}
	left, right := splitStereo(pcm)
	return interleaveStereo(Resample(left, rate, p.otoRate), Resample(right, rate, p.otoRate))
}

// decodeClip decodes a WAV or MP3 clip to 16-bit little-endian PCM. The
// service hands out MP3 from its TTS step; WAV is accepted as well.
func decodeClip(data []byte) (pcm []byte, rate, channels int, err error) {
	if len(data) >= 4 && string(data[0:4]) == "RIFF" {
		return DecodeWAV(data)
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	pcm, err = io.ReadAll(decoder)
	if err != nil {
		return nil, 0, 0, err
	}
	// go-mp3 always emits 16-bit stereo at the source rate.
	return pcm, decoder.SampleRate(), 2, nil
}
