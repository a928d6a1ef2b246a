package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	// CanonicalSampleRate, CanonicalChannels and CanonicalBitDepth describe
	// the waveform speech engines expect.
	CanonicalSampleRate = 16000
	CanonicalChannels   = 1
	CanonicalBitDepth   = 16

	formatPCM    = 1
	fmtChunkSize = 16
)

// Format is the stream description found in a WAV file's fmt chunk.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataSize      uint32
}

// IsCanonical reports whether the stream is mono 16 kHz 16-bit PCM.
func (f Format) IsCanonical() bool {
	return f.AudioFormat == formatPCM &&
		f.Channels == CanonicalChannels &&
		f.SampleRate == CanonicalSampleRate &&
		f.BitsPerSample == CanonicalBitDepth
}

// Probe reads the RIFF/WAVE header of path.
func Probe(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	return probe(f)
}

func probe(r io.ReadSeeker) (Format, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Format{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Format{}, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Format{}, ErrInvalidWAV
	}

	var (
		format  Format
		hasFmt  bool
		hasData bool
	)

	for !hasFmt || !hasData {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(r, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Format{}, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		skip := int64(chunkSize)
		if chunkSize%2 != 0 {
			skip++
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < fmtChunkSize {
				return Format{}, ErrInvalidWAV
			}

			var buf [fmtChunkSize]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return Format{}, fmt.Errorf("read wav fmt chunk: %w", err)
			}

			format.AudioFormat = binary.LittleEndian.Uint16(buf[0:2])
			format.Channels = binary.LittleEndian.Uint16(buf[2:4])
			format.SampleRate = binary.LittleEndian.Uint32(buf[4:8])
			format.BitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
			hasFmt = true

			// Extension fields and padding are not needed.
			if _, err := r.Seek(skip-fmtChunkSize, io.SeekCurrent); err != nil {
				return Format{}, fmt.Errorf("seek wav fmt chunk: %w", err)
			}
		case "data":
			format.DataSize = chunkSize
			hasData = true
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Format{}, fmt.Errorf("seek wav data chunk: %w", err)
			}
		default:
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Format{}, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Format{}, ErrInvalidWAV
	}
	if format.AudioFormat != formatPCM && format.AudioFormat != 3 {
		return format, ErrUnsupportedWAV
	}

	return format, nil
}
