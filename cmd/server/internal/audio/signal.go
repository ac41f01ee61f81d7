package audio

import "time"

// Signal is mono PCM audio with amplitudes normalized to [-1, 1].
type Signal struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the signal length in wall-clock time.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// Empty reports whether the signal carries no samples.
func (s Signal) Empty() bool {
	return len(s.Samples) == 0
}
