//go:build !coqui

package engine

// NativeAvailable reports whether the Coqui STT backend is compiled in.
func NativeAvailable() bool { return false }

// NewNativeModel returns ErrNativeUnavailable when the native backend is
// not built.
func NewNativeModel(cfg ModelConfig) (*NativeModel, error) {
	return nil, ErrNativeUnavailable
}

// NativeModel satisfies the Model interface when the backend is absent.
type NativeModel struct{}

func (m *NativeModel) SampleRate() int            { return 0 }
func (m *NativeModel) NewStream() (Stream, error) { return nil, ErrNativeUnavailable }
func (m *NativeModel) Close() error               { return nil }
