package audio

import (
	"io"
)

// FramesPerChunk is the number of PCM frames delivered per chunk. Matches
// the decoder's preferred feed granularity.
const FramesPerChunk = 512

// Format describes the PCM layout of an audio stream.
type Format struct {
	SampleRate  int // Hz
	SampleWidth int // bytes per sample
	Channels    int
}

// BytesPerFrame returns the size of one frame (one sample per channel).
func (f Format) BytesPerFrame() int {
	return f.SampleWidth * f.Channels
}

// Raw16kMono is the layout implied by the 16K_PCM16 format tag.
var Raw16kMono = Format{SampleRate: 16000, SampleWidth: 2, Channels: 1}

// FrameSource yields successive PCM chunks of up to FramesPerChunk frames.
// Sources are pull-based: a chunk is read from the underlying stream only
// when requested, so memory use stays bounded by one chunk. The returned
// slice is only valid until the next call to Next.
type FrameSource interface {
	Format() Format
	// Next returns the next chunk, or io.EOF once the stream is exhausted.
	Next() ([]byte, error)
}

// RawSource slices a headerless PCM stream into fixed-size chunks.
// There is no header to validate: a truncated stream simply yields a short
// final chunk (or none), which is correct best-effort behavior.
type RawSource struct {
	r      io.Reader
	format Format
	buf    []byte
	done   bool
}

// NewRawSource returns a source reading headerless PCM in the given format.
func NewRawSource(r io.Reader, f Format) *RawSource {
	return &RawSource{
		r:      r,
		format: f,
		buf:    make([]byte, FramesPerChunk*f.BytesPerFrame()),
	}
}

func (s *RawSource) Format() Format { return s.format }

// Next assembles a full chunk regardless of how the reader fragments its
// reads; only the final chunk may be short.
func (s *RawSource) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(s.r, s.buf)
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
