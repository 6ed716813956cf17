package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// StubModel produces deterministic transcripts without a native decoder.
// Used in tests and for model-less development runs.
type StubModel struct {
	sampleRate int
	streams    atomic.Int64
}

// NewStubModel returns a stub model reporting the given sample rate.
func NewStubModel(sampleRate int) *StubModel {
	return &StubModel{sampleRate: sampleRate}
}

func (m *StubModel) SampleRate() int { return m.sampleRate }

func (m *StubModel) NewStream() (Stream, error) {
	m.streams.Add(1)
	return &stubStream{}, nil
}

func (m *StubModel) Close() error { return nil }

// StreamsOpened reports how many streams the model has handed out.
func (m *StubModel) StreamsOpened() int64 { return m.streams.Load() }

type stubStream struct {
	samples int
	done    bool
}

func (s *stubStream) Feed(samples []int16) error {
	if s.done {
		return errors.New("stub: feed on finished stream")
	}
	s.samples += len(samples)
	return nil
}

func (s *stubStream) Finish() (string, error) {
	if s.done {
		return "", errors.New("stub: stream already finished")
	}
	s.done = true
	if s.samples == 0 {
		return "", nil
	}
	return fmt.Sprintf("[stub] decoded %d samples", s.samples), nil
}

func (s *stubStream) Discard() { s.done = true }
