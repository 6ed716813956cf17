package api

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/snarg/stt-serve/internal/engine"
	"github.com/snarg/stt-serve/internal/metrics"
	"github.com/snarg/stt-serve/internal/stt"
)

// buildWAV assembles a minimal mono 16-bit PCM WAV file.
func buildWAV(t *testing.T, samples []int16, sampleRate int) []byte {
	t.Helper()
	dataSize := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// failingModel returns an error from NewStream.
type failingModel struct{}

func (failingModel) SampleRate() int                   { return 16000 }
func (failingModel) NewStream() (engine.Stream, error) { return nil, errors.New("model broken") }
func (failingModel) Close() error                      { return nil }

// feedFailModel hands out streams that fail on the first feed.
type feedFailModel struct{}

func (feedFailModel) SampleRate() int                   { return 16000 }
func (feedFailModel) NewStream() (engine.Stream, error) { return &feedFailStream{}, nil }
func (feedFailModel) Close() error                      { return nil }

type feedFailStream struct{ discards int }

func (s *feedFailStream) Feed([]int16) error      { return errors.New("decoder exploded") }
func (s *feedFailStream) Finish() (string, error) { return "", errors.New("decoder exploded") }
func (s *feedFailStream) Discard()                { s.discards++ }

func newSTTRequest(t *testing.T, query string, body []byte) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/stt"+query, bytes.NewReader(body))
}

func serveSTT(model engine.Model, r *http.Request) *httptest.ResponseRecorder {
	h := NewSTTHandler(model, stt.NewGate(2))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSTTHandlerWAV(t *testing.T) {
	t.Run("two_second_file", func(t *testing.T) {
		model := engine.NewStubModel(16000)
		wav := buildWAV(t, make([]int16, 32000), 16000)
		w := serveSTT(model, newSTTRequest(t, "?format=wav", wav))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("Content-Type = %q, want text/plain", ct)
		}
		// The stub transcript reports the fed sample count.
		if !strings.Contains(w.Body.String(), "32000") {
			t.Errorf("transcript %q does not report 32000 frames", w.Body.String())
		}
	})

	t.Run("missing_format_defaults_to_wav", func(t *testing.T) {
		model := engine.NewStubModel(16000)
		wav := buildWAV(t, make([]int16, 100), 16000)
		w := serveSTT(model, newSTTRequest(t, "", wav))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("malformed_header_no_engine_calls", func(t *testing.T) {
		model := engine.NewStubModel(16000)
		wav := buildWAV(t, make([]int16, 100), 16000)
		copy(wav[0:4], "JUNK")
		w := serveSTT(model, newSTTRequest(t, "?format=wav", wav))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if model.StreamsOpened() != 0 {
			t.Errorf("streams opened = %d, want 0", model.StreamsOpened())
		}
	})
}

func TestSTTHandlerRawPCM(t *testing.T) {
	t.Run("1024_bytes_is_512_frames", func(t *testing.T) {
		model := engine.NewStubModel(16000)
		w := serveSTT(model, newSTTRequest(t, "?format=16K_PCM16", make([]byte, 1024)))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "512") {
			t.Errorf("transcript %q does not report 512 frames", w.Body.String())
		}
	})

	t.Run("empty_body_is_empty_transcript", func(t *testing.T) {
		model := engine.NewStubModel(16000)
		w := serveSTT(model, newSTTRequest(t, "?format=16K_PCM16", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
		}
		if w.Body.String() != "" {
			t.Errorf("body = %q, want empty transcript", w.Body.String())
		}
		if model.StreamsOpened() != 1 {
			t.Errorf("streams opened = %d, want 1", model.StreamsOpened())
		}
	})
}

func TestSTTHandlerUnsupportedFormat(t *testing.T) {
	model := engine.NewStubModel(16000)
	w := serveSTT(model, newSTTRequest(t, "?format=mp3", make([]byte, 64)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if model.StreamsOpened() != 0 {
		t.Errorf("streams opened = %d, want 0", model.StreamsOpened())
	}
	if !strings.Contains(w.Body.String(), "mp3") {
		t.Errorf("error body %q does not name the bad format", w.Body.String())
	}
}

func TestSTTHandlerRejectedFormatLabelCardinality(t *testing.T) {
	model := engine.NewStubModel(16000)
	before := testutil.CollectAndCount(metrics.TranscriptionsTotal)

	// Distinct junk format values must all land on one fixed label series;
	// otherwise clients could grow the counter vector without bound.
	for i := 0; i < 100; i++ {
		w := serveSTT(model, newSTTRequest(t, fmt.Sprintf("?format=junk-%d", i), make([]byte, 64)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	}

	after := testutil.CollectAndCount(metrics.TranscriptionsTotal)
	if grown := after - before; grown > 1 {
		t.Errorf("rejected formats created %d new label series, want at most 1", grown)
	}
}

func TestSTTHandlerEngineFailure(t *testing.T) {
	t.Run("open_failure", func(t *testing.T) {
		w := serveSTT(failingModel{}, newSTTRequest(t, "?format=16K_PCM16", make([]byte, 64)))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
	})

	t.Run("feed_failure", func(t *testing.T) {
		w := serveSTT(feedFailModel{}, newSTTRequest(t, "?format=16K_PCM16", make([]byte, 64)))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
	})
}
