package stt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/snarg/stt-serve/internal/engine"
)

// ErrFinalized is returned when a session is driven past its terminal state.
var ErrFinalized = errors.New("stt: session already finalized")

type sessionState int

const (
	stateStreaming sessionState = iota
	stateFinalized
)

// Session drives one transcription end to end: it owns an open decoding
// stream, pumps PCM chunks into it, and accumulates timing metrics that
// isolate engine compute cost from I/O wait. A session lives exactly as
// long as one request and must only be driven by one goroutine.
type Session struct {
	stream engine.Stream
	state  sessionState

	framesFed uint64
	execTime  time.Duration
	lastFeed  time.Time // start of the most recent engine call
	latency   time.Duration
}

// Open opens a decoding stream on the model. The open call is timed and
// counts toward the session's exec time.
func Open(m engine.Model) (*Session, error) {
	start := time.Now()
	st, err := m.NewStream()
	if err != nil {
		return nil, fmt.Errorf("open decode stream: %w", err)
	}
	return &Session{
		stream:   st,
		state:    stateStreaming,
		execTime: time.Since(start),
		lastFeed: start,
	}, nil
}

// Feed pushes one chunk of raw little-endian 16-bit PCM into the decoder.
// An engine error is fatal for the session: the handle is released and
// must not be reused.
func (s *Session) Feed(ctx context.Context, chunk []byte) error {
	if s.state != stateStreaming {
		return ErrFinalized
	}
	if err := ctx.Err(); err != nil {
		s.Discard()
		return err
	}

	samples := DecodeSamples(chunk)
	s.framesFed += uint64(len(samples))

	start := time.Now()
	s.lastFeed = start
	if err := s.stream.Feed(samples); err != nil {
		s.Discard()
		return fmt.Errorf("feed audio: %w", err)
	}
	s.execTime += time.Since(start)
	return nil
}

// Finish finalizes decoding and returns the transcript. Latency is
// measured from the start of the last feed call, capturing the engine's
// tail-decode delay after the final audio was pushed.
func (s *Session) Finish(ctx context.Context) (string, error) {
	if s.state != stateStreaming {
		return "", ErrFinalized
	}
	if err := ctx.Err(); err != nil {
		s.Discard()
		return "", err
	}

	start := time.Now()
	text, err := s.stream.Finish()
	s.state = stateFinalized
	if err != nil {
		s.stream.Discard()
		return "", fmt.Errorf("finish decode: %w", err)
	}
	s.execTime += time.Since(start)
	s.latency = time.Since(s.lastFeed)
	return text, nil
}

// Discard releases the engine handle without a transcript. Idempotent;
// used on every abort path so decoder sessions are never leaked.
func (s *Session) Discard() {
	if s.state == stateFinalized {
		return
	}
	s.state = stateFinalized
	s.stream.Discard()
}

// FramesFed returns the number of 16-bit samples pushed so far.
func (s *Session) FramesFed() uint64 { return s.framesFed }

// ExecTime returns the accumulated wall-clock time spent inside engine calls.
func (s *Session) ExecTime() time.Duration { return s.execTime }

// Latency returns the delay between the last feed and the transcript
// becoming available. Zero until Finish succeeds.
func (s *Session) Latency() time.Duration { return s.latency }

// SampleDuration derives the audio duration from the fed frame count.
func (s *Session) SampleDuration(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(s.framesFed) / float64(sampleRate)
}

// DecodeSamples interprets b as signed 16-bit little-endian PCM. A
// trailing odd byte is dropped.
func DecodeSamples(b []byte) []int16 {
	n := len(b) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return samples
}
