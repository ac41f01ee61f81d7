package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	in := []float32{0, 0.5, -0.5, 0.25, -1, 1, 2, -2}
	require.NoError(t, WriteWAV(f, in, 16000))
	require.NoError(t, f.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	sig, err := ReadWAV(r)
	require.NoError(t, err)
	assert.Equal(t, 16000, sig.SampleRate)
	require.Len(t, sig.Samples, len(in))

	want := []float32{0, 0.5, -0.5, 0.25, -1, 1, 1, -1}
	for i := range want {
		assert.InDelta(t, want[i], sig.Samples[i], 1e-3, "sample %d", i)
	}
}

func TestReadWAV_DownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           []int{16384, 0, -16384, -16384},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	sig, err := ReadWAV(r)
	require.NoError(t, err)
	require.Len(t, sig.Samples, 2)
	assert.InDelta(t, 0.25, sig.Samples[0], 1e-3)
	assert.InDelta(t, -0.5, sig.Samples[1], 1e-3)
}

func TestReadWAV_RejectsGarbage(t *testing.T) {
	_, err := ReadWAV(bytes.NewReader([]byte("definitely not RIFF data")))
	assert.Error(t, err)
}

func TestWriteWAV_InvalidRate(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	require.NoError(t, err)
	defer f.Close()

	assert.Error(t, WriteWAV(f, []float32{0}, 0))
}
