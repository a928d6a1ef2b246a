package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeCanonicalWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "speech.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAV(make([]int16, 1600), 16000, 1), 0o644))

	format, err := Probe(path)
	require.NoError(t, err)
	require.True(t, format.IsCanonical())
	require.EqualValues(t, 3200, format.DataSize)
}

func TestProbeStereoIsNotCanonical(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stereo.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAV(make([]int16, 800), 44100, 2), 0o644))

	format, err := Probe(path)
	require.NoError(t, err)
	require.False(t, format.IsCanonical())
	require.EqualValues(t, 2, format.Channels)
	require.EqualValues(t, 44100, format.SampleRate)
}

func TestProbeInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "not-wav.wav")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := Probe(path)
	require.ErrorIs(t, err, ErrInvalidWAV)
}

func TestProbeMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Probe(filepath.Join(t.TempDir(), "missing.wav"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestProbeSkipsFmtExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "extensible.wav")
	require.NoError(t, os.WriteFile(path, makeWAVWithFmtSize(18, []byte{0x00, 0x00}, 64), 0o644))

	format, err := Probe(path)
	require.NoError(t, err)
	require.True(t, format.IsCanonical())
	require.EqualValues(t, 64, format.DataSize)
}

func TestProbeOversizedFmtChunk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "crafted.wav")
	require.NoError(t, os.WriteFile(path, makeWAVWithFmtSize(0xfffffff0, nil, 0), 0o644))

	_, err := Probe(path)
	require.ErrorIs(t, err, ErrInvalidWAV)
}

// makeWAVWithFmtSize writes a canonical fmt chunk that declares size bytes,
// followed by extra and a data chunk of dataSize zero bytes.
func makeWAVWithFmtSize(size uint32, extra []byte, dataSize int) []byte {
	out := []byte("RIFF\x00\x00\x00\x00WAVEfmt ")
	out = binary.LittleEndian.AppendUint32(out, size)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint32(out, 16000)
	out = binary.LittleEndian.AppendUint32(out, 32000)
	out = binary.LittleEndian.AppendUint16(out, 2)
	out = binary.LittleEndian.AppendUint16(out, 16)
	out = append(out, extra...)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))
	out = append(out, make([]byte, dataSize)...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func makePCM16WAV(samples []int16, sampleRate int, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
