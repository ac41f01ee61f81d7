package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput is returned for empty signals or non-positive chunk sizes.
var ErrInvalidInput = errors.New("invalid chunking input")

// Chunk is one fixed-length window of a Signal. Samples always holds exactly
// the window size; Valid counts the leading samples taken from the signal,
// the rest is zero padding.
type Chunk struct {
	Index      int
	Samples    []float32
	Valid      int
	SampleRate int
}

// ValidSamples returns the non-padding part of the chunk.
func (c Chunk) ValidSamples() []float32 {
	return c.Samples[:c.Valid]
}

// Offset returns the chunk start position in the source signal.
func (c Chunk) Offset() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Index*len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// ChunkSize returns the number of samples in a window of chunkSeconds.
func ChunkSize(chunkSeconds float64, sampleRate int) int {
	return int(math.Round(chunkSeconds * float64(sampleRate)))
}

// Split cuts signal into non-overlapping windows of chunkSeconds. The final
// window is zero-padded so every chunk has the same length and no audio is
// dropped. Chunks come back in signal order.
func Split(signal Signal, chunkSeconds float64) ([]Chunk, error) {
	if signal.Empty() {
		return nil, fmt.Errorf("%w: signal has no samples", ErrInvalidInput)
	}
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("%w: chunk duration must be positive, got %v", ErrInvalidInput, chunkSeconds)
	}
	if signal.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidInput, signal.SampleRate)
	}

	size := ChunkSize(chunkSeconds, signal.SampleRate)
	if size < 1 {
		return nil, fmt.Errorf("%w: chunk of %vs at %d Hz holds no samples", ErrInvalidInput, chunkSeconds, signal.SampleRate)
	}

	total := len(signal.Samples)
	chunks := make([]Chunk, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		window := make([]float32, size)
		n := copy(window, signal.Samples[start:end])
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Samples:    window,
			Valid:      n,
			SampleRate: signal.SampleRate,
		})
	}
	return chunks, nil
}
