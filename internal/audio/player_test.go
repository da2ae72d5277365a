package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls chan string
}

func (f *fakeFetcher) FetchAudio(_ context.Context, audioFile string) ([]byte, error) {
	if f.calls != nil {
		f.calls <- audioFile
	}
	return f.data, f.err
}

// newIdlePlayer builds a player without its worker so tests can drive play
// directly.
func newIdlePlayer(fetcher Fetcher) *Player {
	return &Player{
		fetcher:  fetcher,
		queue:    make(chan string, 4),
		shutdown: make(chan struct{}),
		skipChan: make(chan struct{}),
	}
}

func TestPlaybackFetchFailureIsAbsorbed(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused"), calls: make(chan string, 2)}
	p := NewPlayer(fetcher)
	defer p.Close()

	p.PlayQuestion("q1.mp3")
	select {
	case file := <-fetcher.calls:
		assert.Equal(t, "q1.mp3", file)
	case <-time.After(time.Second):
		t.Fatal("worker never fetched the first clip")
	}

	// The worker survives the failure and serves the next request.
	p.PlayQuestion("q2.mp3")
	select {
	case file := <-fetcher.calls:
		assert.Equal(t, "q2.mp3", file)
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the failed fetch")
	}
}

func TestPlayFetchFailureLeavesSpeakerUntouched(t *testing.T) {
	p := newIdlePlayer(&fakeFetcher{err: errors.New("connection refused")})

	err := p.play("q1.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch audio")
	assert.Nil(t, p.otoCtx)
}

func TestPlayRejectsUndecodableClip(t *testing.T) {
	p := newIdlePlayer(&fakeFetcher{data: []byte("certainly not audio")})

	err := p.play("q1.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode audio")
	assert.Nil(t, p.otoCtx)
}

func TestConformPassesThroughMatchingClip(t *testing.T) {
	p := &Player{otoRate: 16000, otoChannels: 2}
	in := []byte{1, 0, 2, 0}

	assert.Equal(t, in, p.conform(in, 16000, 2))
}

func TestConformDuplicatesMonoIntoStereoContext(t *testing.T) {
	p := &Player{otoRate: 16000, otoChannels: 2}

	out := p.conform([]byte{1, 0, 2, 0}, 16000, 1)
	assert.Equal(t, []byte{1, 0, 1, 0, 2, 0, 2, 0}, out)
}

func TestConformMixesStereoIntoMonoContext(t *testing.T) {
	p := &Player{otoRate: 16000, otoChannels: 1}

	out := p.conform([]byte{10, 0, 20, 0}, 16000, 2)
	assert.Equal(t, []byte{15, 0}, out)
}

func TestConformResamplesStereoRateMismatch(t *testing.T) {
	p := &Player{otoRate: 16000, otoChannels: 2}
	// Four stereo frames at half the context rate.
	in := make([]byte, 16)

	out := p.conform(in, 8000, 2)
	assert.Len(t, out, 32)
}

func TestConformResamplesMonoIntoStereoContext(t *testing.T) {
	p := &Player{otoRate: 16000, otoChannels: 2}
	// Four mono samples at half the context rate.
	in := make([]byte, 8)

	out := p.conform(in, 8000, 1)
	assert.Len(t, out, 32)
}
