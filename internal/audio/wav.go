package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedWAV indicates the WAV container header could not be parsed.
// It is a client-input condition, not a server fault.
var ErrMalformedWAV = errors.New("malformed WAV container")

const pcmFormatTag = 1

// WAVSource streams PCM frames out of a WAV container. The header is
// parsed up front; audio data is then read lazily in chunks of up to
// FramesPerChunk frames, bounded by the declared data size.
type WAVSource struct {
	r         io.Reader
	format    Format
	remaining int64 // bytes left in the data chunk
	buf       []byte
	done      bool
}

// NewWAVSource parses the container header from r and returns a source
// positioned at the start of the audio data. Header failures are reported
// as ErrMalformedWAV.
func NewWAVSource(r io.Reader) (*WAVSource, error) {
	format, dataSize, err := parseWAVHeader(r)
	if err != nil {
		return nil, err
	}
	return &WAVSource{
		r:         r,
		format:    format,
		remaining: dataSize,
		buf:       make([]byte, FramesPerChunk*format.BytesPerFrame()),
	}, nil
}

func (s *WAVSource) Format() Format { return s.format }

// Next returns the next chunk of audio data. A container shorter than its
// declared data size yields a short final chunk rather than an error.
func (s *WAVSource) Next() ([]byte, error) {
	if s.done || s.remaining == 0 {
		return nil, io.EOF
	}
	want := int64(len(s.buf))
	if s.remaining < want {
		want = s.remaining
	}
	n, err := io.ReadFull(s.r, s.buf[:want])
	s.remaining -= int64(n)
	switch err {
	case nil:
		return s.buf[:n], nil
	case io.ErrUnexpectedEOF:
		s.done = true
		return s.buf[:n], nil
	case io.EOF:
		s.done = true
		return nil, io.EOF
	default:
		return nil, err
	}
}

// parseWAVHeader reads the RIFF preamble and walks sub-chunks until the
// data chunk, returning the stream format and the data size in bytes.
// Unknown sub-chunks (LIST, INFO, fact, ...) are skipped.
func parseWAVHeader(r io.Reader) (Format, int64, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Format{}, 0, fmt.Errorf("%w: short header: %v", ErrMalformedWAV, err)
	}
	if string(riff[0:4]) != "RIFF" {
		return Format{}, 0, fmt.Errorf("%w: missing RIFF tag", ErrMalformedWAV)
	}
	if string(riff[8:12]) != "WAVE" {
		return Format{}, 0, fmt.Errorf("%w: missing WAVE tag", ErrMalformedWAV)
	}

	var format Format
	haveFmt := false

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Format{}, 0, fmt.Errorf("%w: truncated chunk header: %v", ErrMalformedWAV, err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return Format{}, 0, fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrMalformedWAV, size)
			}
			var fc [16]byte
			if _, err := io.ReadFull(r, fc[:]); err != nil {
				return Format{}, 0, fmt.Errorf("%w: truncated fmt chunk: %v", ErrMalformedWAV, err)
			}
			audioFormat := binary.LittleEndian.Uint16(fc[0:2])
			channels := binary.LittleEndian.Uint16(fc[2:4])
			sampleRate := binary.LittleEndian.Uint32(fc[4:8])
			bitsPerSample := binary.LittleEndian.Uint16(fc[14:16])

			if audioFormat != pcmFormatTag {
				return Format{}, 0, fmt.Errorf("%w: unsupported audio format %d (PCM only)", ErrMalformedWAV, audioFormat)
			}
			if bitsPerSample != 16 {
				return Format{}, 0, fmt.Errorf("%w: unsupported bit depth %d (16-bit only)", ErrMalformedWAV, bitsPerSample)
			}
			if channels == 0 || sampleRate == 0 {
				return Format{}, 0, fmt.Errorf("%w: invalid fmt chunk (channels=%d rate=%d)", ErrMalformedWAV, channels, sampleRate)
			}
			format = Format{
				SampleRate:  int(sampleRate),
				SampleWidth: int(bitsPerSample) / 8,
				Channels:    int(channels),
			}
			haveFmt = true

			if err := skipBytes(r, int64(size)-16+int64(size%2)); err != nil {
				return Format{}, 0, fmt.Errorf("%w: truncated fmt chunk: %v", ErrMalformedWAV, err)
			}

		case "data":
			if !haveFmt {
				return Format{}, 0, fmt.Errorf("%w: data chunk before fmt chunk", ErrMalformedWAV)
			}
			return format, int64(size), nil

		default:
			// RIFF chunks are word-aligned; odd sizes carry a pad byte.
			if err := skipBytes(r, int64(size)+int64(size%2)); err != nil {
				return Format{}, 0, fmt.Errorf("%w: truncated %q chunk: %v", ErrMalformedWAV, id, err)
			}
		}
	}
}

func skipBytes(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
