package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/snarg/stt-serve/internal/audio"
	"github.com/snarg/stt-serve/internal/engine"
	"github.com/snarg/stt-serve/internal/metrics"
	"github.com/snarg/stt-serve/internal/stt"
)

// Supported values for the format query parameter.
const (
	formatWAV      = "wav"
	formatRawPCM16 = "16K_PCM16"
)

// STTHandler binds one inbound request to one streaming transcription
// session and returns the transcript as plain text.
type STTHandler struct {
	model engine.Model
	gate  *stt.Gate
}

func NewSTTHandler(model engine.Model, gate *stt.Gate) *STTHandler {
	return &STTHandler{model: model, gate: gate}
}

func (h *STTHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	// A missing format has always meant WAV; preserved as a default.
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatWAV
	}

	// Select the frame source before touching the engine, so bad input
	// never costs a decode session.
	var src audio.FrameSource
	switch format {
	case formatWAV:
		s, err := audio.NewWAVSource(r.Body)
		if err != nil {
			metrics.TranscriptionsTotal.WithLabelValues(format, "bad_container").Inc()
			WriteErrorDetail(w, http.StatusBadRequest, "malformed WAV container", err.Error())
			return
		}
		src = s
	case formatRawPCM16:
		src = audio.NewRawSource(r.Body, audio.Raw16kMono)
	default:
		// The label value must not come from the request: every distinct
		// junk format would allocate a counter series for good.
		metrics.TranscriptionsTotal.WithLabelValues("invalid", "bad_format").Inc()
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	if err := h.gate.Acquire(ctx); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues(format, "cancelled").Inc()
		WriteError(w, http.StatusServiceUnavailable, "request cancelled while waiting for a decode slot")
		return
	}
	defer h.gate.Release()

	sess, err := stt.Open(h.model)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues(format, "engine_error").Inc()
		WriteError(w, http.StatusInternalServerError, "decoder unavailable")
		return
	}
	// No-op after a successful Finish; guarantees handle release on every
	// other exit path.
	defer sess.Discard()

	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.TranscriptionsTotal.WithLabelValues(format, "read_error").Inc()
			WriteError(w, http.StatusBadRequest, "reading audio stream failed")
			return
		}
		if err := sess.Feed(ctx, chunk); err != nil {
			h.writeSessionError(w, r, format, err)
			return
		}
	}

	text, err := sess.Finish(ctx)
	if err != nil {
		h.writeSessionError(w, r, format, err)
		return
	}

	execTime := sess.ExecTime()
	latency := sess.Latency()
	sampleDuration := sess.SampleDuration(src.Format().SampleRate)
	total := time.Since(start)

	metrics.TranscriptionsTotal.WithLabelValues(format, "ok").Inc()
	metrics.EngineExecSeconds.Observe(execTime.Seconds())
	metrics.FinalizeLatencySeconds.Observe(latency.Seconds())
	metrics.AudioSecondsTotal.Add(sampleDuration)

	hlog.FromRequest(r).Info().
		Str("format", format).
		Uint64("frames", sess.FramesFed()).
		Float64("exec_s", execTime.Seconds()).
		Float64("sample_s", sampleDuration).
		Float64("latency_s", latency.Seconds()).
		Float64("total_s", total.Seconds()).
		Msg("transcription complete")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// writeSessionError maps a failed session to a response: request-context
// errors are the client's doing, anything else is an engine fault. Decoder
// state is not recoverable mid-stream, so there is never a retry.
func (h *STTHandler) writeSessionError(w http.ResponseWriter, r *http.Request, format string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		metrics.TranscriptionsTotal.WithLabelValues(format, "cancelled").Inc()
		WriteError(w, http.StatusBadRequest, "request cancelled")
		return
	}
	metrics.TranscriptionsTotal.WithLabelValues(format, "engine_error").Inc()
	hlog.FromRequest(r).Error().Err(err).Str("format", format).Msg("decode session failed")
	WriteError(w, http.StatusInternalServerError, "decoding failed")
}
