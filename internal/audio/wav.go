package audio

import (
	"encoding/binary"
	"fmt"
)

// wavHeaderSize is the size of a canonical PCM WAV header.
const wavHeaderSize = 44

// DecodeWAV extracts the raw PCM samples from a WAV container along with the
// sample rate and channel count from its fmt chunk.
func DecodeWAV(data []byte) (pcm []byte, sampleRate, channels int, err error) {
	if len(data) < wavHeaderSize {
		return nil, 0, 0, fmt.Errorf("wav data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("not a valid WAV file")
	}

	// Walk the chunk list looking for "fmt " and "data".
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, 0, fmt.Errorf("wav fmt chunk too short: %d bytes", chunkSize)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	if pcm == nil {
		return nil, 0, 0, fmt.Errorf("wav data chunk not found")
	}
	if sampleRate == 0 || channels == 0 {
		return nil, 0, 0, fmt.Errorf("wav fmt chunk not found")
	}
	return pcm, sampleRate, channels, nil
}

// EncodeWAV wraps raw 16-bit little-endian PCM samples in a WAV container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	out := make([]byte, wavHeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}

// monoToStereo duplicates each 16-bit sample into both channels.
func monoToStereo(pcm []byte) []byte {
	out := make([]byte, 0, len(pcm)*2)
	for i := 0; i+1 < len(pcm); i += 2 {
		out = append(out, pcm[i], pcm[i+1], pcm[i], pcm[i+1])
	}
	return out
}

// stereoToMono averages each 16-bit frame's channels into one sample.
func stereoToMono(pcm []byte) []byte {
	out := make([]byte, 0, len(pcm)/2)
	for i := 0; i+3 < len(pcm); i += 4 {
		l := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		r := int16(binary.LittleEndian.Uint16(pcm[i+2 : i+4]))
		var sample [2]byte
		binary.LittleEndian.PutUint16(sample[:], uint16((int32(l)+int32(r))/2))
		out = append(out, sample[0], sample[1])
	}
	return out
}

// splitStereo separates interleaved 16-bit stereo frames into two mono
// streams.
func splitStereo(pcm []byte) (left, right []byte) {
	left = make([]byte, 0, len(pcm)/2)
	right = make([]byte, 0, len(pcm)/2)
	for i := 0; i+3 < len(pcm); i += 4 {
		left = append(left, pcm[i], pcm[i+1])
		right = append(right, pcm[i+2], pcm[i+3])
	}
	return left, right
}

// interleaveStereo rebuilds interleaved frames from two mono streams of
// equal length.
func interleaveStereo(left, right []byte) []byte {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	out := make([]byte, 0, n*2)
	for i := 0; i+1 < n; i += 2 {
		out = append(out, left[i], left[i+1], right[i], right[i+1])
	}
	return out
}

// Resample converts 16-bit mono PCM between sample rates using linear
// interpolation. Passing equal rates returns the input unchanged.
func Resample(input []byte, fromRate, toRate int) []byte {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return input
	}

	samples := make([]int16, len(input)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(input[i*2 : i*2+2]))
	}
	if len(samples) == 0 {
		return nil
	}

	outLen := int(int64(len(samples)) * int64(toRate) / int64(fromRate))
	resampled := make([]int16, outLen)
	for i := range resampled {
		pos := float64(i) * float64(fromRate) / float64(toRate)
		idx := int(pos)
		if idx >= len(samples)-1 {
			resampled[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		resampled[i] = int16(a + (b-a)*frac)
	}

	out := make([]byte, len(resampled)*2)
	for i, sample := range resampled {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(sample))
	}
	return out
}
