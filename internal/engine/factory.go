package engine

import (
	"errors"

	"github.com/rs/zerolog"
)

// ErrNativeUnavailable indicates the Coqui STT backend was not compiled in
// (build without the coqui tag).
var ErrNativeUnavailable = errors.New("engine: native backend unavailable")

// stubSampleRate is the rate the stub model reports, matching the raw
// 16K_PCM16 input format.
const stubSampleRate = 16000

// New returns the decoding model for this process: the native Coqui
// backend when compiled in, otherwise the deterministic stub (with a
// warning, so model-less builds stay runnable).
func New(cfg ModelConfig, log zerolog.Logger) (Model, error) {
	if NativeAvailable() {
		m, err := NewNativeModel(cfg)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("model", cfg.ModelPath).
			Str("scorer", cfg.ScorerPath).
			Int("beam_width", cfg.BeamWidth).
			Int("sample_rate", m.SampleRate()).
			Msg("native decoder ready")
		return m, nil
	}

	log.Warn().Msg("native decoder not built (coqui tag absent); using stub engine")
	return NewStubModel(stubSampleRate), nil
}
