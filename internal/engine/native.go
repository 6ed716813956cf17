//go:build coqui

package engine

/*
#cgo LDFLAGS: -lstt
#include <stdlib.h>
#include <coqui-stt.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// NativeAvailable reports whether the Coqui STT backend is compiled in.
func NativeAvailable() bool { return true }

// NativeModel wraps a libstt ModelState.
type NativeModel struct {
	ctx *C.ModelState
}

// NewNativeModel loads model weights and configures the decoder per cfg.
func NewNativeModel(cfg ModelConfig) (*NativeModel, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("stt: model path required")
	}

	cPath := C.CString(cfg.ModelPath)
	defer C.free(unsafe.Pointer(cPath))

	var ctx *C.ModelState
	if rc := C.STT_CreateModel(cPath, &ctx); rc != 0 {
		return nil, sttError(rc)
	}
	m := &NativeModel{ctx: ctx}

	if cfg.BeamWidth > 0 {
		if rc := C.STT_SetModelBeamWidth(ctx, C.uint(cfg.BeamWidth)); rc != 0 {
			m.Close()
			return nil, sttError(rc)
		}
	}

	if cfg.ScorerPath != "" {
		cScorer := C.CString(cfg.ScorerPath)
		defer C.free(unsafe.Pointer(cScorer))
		if rc := C.STT_EnableExternalScorer(ctx, cScorer); rc != 0 {
			m.Close()
			return nil, sttError(rc)
		}

		alpha, beta := cfg.ScorerAlpha, cfg.ScorerBeta
		if alpha == 0 && beta == 0 {
			alpha, beta = cfg.LMWeight, cfg.ValidWordCountWeight
		}
		if alpha != 0 || beta != 0 {
			if rc := C.STT_SetScorerAlphaBeta(ctx, C.float(alpha), C.float(beta)); rc != 0 {
				m.Close()
				return nil, sttError(rc)
			}
		}
	}

	return m, nil
}

func (m *NativeModel) SampleRate() int {
	return int(C.STT_GetModelSampleRate(m.ctx))
}

func (m *NativeModel) NewStream() (Stream, error) {
	var s *C.StreamingState
	if rc := C.STT_CreateStream(m.ctx, &s); rc != 0 {
		return nil, sttError(rc)
	}
	return &nativeStream{s: s}, nil
}

func (m *NativeModel) Close() error {
	if m.ctx != nil {
		C.STT_FreeModel(m.ctx)
		m.ctx = nil
	}
	return nil
}

type nativeStream struct {
	s *C.StreamingState
}

func (st *nativeStream) Feed(samples []int16) error {
	if st.s == nil {
		return errors.New("stt: feed on released stream")
	}
	if len(samples) == 0 {
		return nil
	}
	C.STT_FeedAudioContent(st.s, (*C.short)(unsafe.Pointer(&samples[0])), C.uint(len(samples)))
	return nil
}

func (st *nativeStream) Finish() (string, error) {
	if st.s == nil {
		return "", errors.New("stt: finish on released stream")
	}
	cText := C.STT_FinishStream(st.s)
	st.s = nil
	if cText == nil {
		return "", errors.New("stt: finish returned no transcript")
	}
	text := C.GoString(cText)
	C.STT_FreeString(cText)
	return text, nil
}

func (st *nativeStream) Discard() {
	if st.s != nil {
		C.STT_FreeStream(st.s)
		st.s = nil
	}
}

func sttError(rc C.int) error {
	cMsg := C.STT_ErrorCodeToErrorMessage(rc)
	defer C.STT_FreeString(cMsg)
	return fmt.Errorf("stt: %s", C.GoString(cMsg))
}
