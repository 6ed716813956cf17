package engine

// ModelConfig carries the decoder construction parameters. It is loaded
// once at startup and treated as immutable for the life of the process.
type ModelConfig struct {
	ModelPath  string
	BeamWidth  int
	ScorerPath string

	// External scorer weights. Zero values leave the model defaults.
	ScorerAlpha float64
	ScorerBeta  float64

	// Legacy KenLM decoder weights, accepted as fallback aliases for
	// ScorerAlpha/ScorerBeta when those are unset.
	LMWeight             float64
	ValidWordCountWeight float64
}

// Model is a loaded acoustic/language model able to open decoding streams.
// NewStream may be called concurrently; each returned Stream is
// single-writer and must only be driven by one goroutine.
type Model interface {
	// SampleRate returns the sample rate the model expects, in Hz.
	SampleRate() int
	NewStream() (Stream, error)
	Close() error
}

// Stream is one stateful decoding session. Calls are strictly sequential:
// Feed any number of times, then exactly one Finish or Discard. Streams
// are single-use; after either terminal call the handle is invalid.
type Stream interface {
	// Feed pushes signed 16-bit PCM samples into the decoder.
	Feed(samples []int16) error
	// Finish finalizes decoding and returns the best-guess transcript.
	Finish() (string, error)
	// Discard releases the decoder state without producing a transcript.
	// Safe to call after a failed Feed; idempotent.
	Discard()
}
