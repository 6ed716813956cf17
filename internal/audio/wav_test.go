package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildWAV assembles a minimal PCM WAV file for tests.
func buildWAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()
	dataSize := uint32(len(samples) * 2)
	blockAlign := uint16(channels * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// buildWAVWithExtraChunk inserts a LIST chunk between fmt and data, as
// written by common encoders.
func buildWAVWithExtraChunk(t *testing.T, samples []int16, sampleRate int) []byte {
	t.Helper()
	plain := buildWAV(t, samples, sampleRate, 1)

	list := []byte("LIST")
	payload := []byte("INFOISFT\x06\x00\x00\x00tests\x00")
	list = binary.LittleEndian.AppendUint32(list, uint32(len(payload)))
	list = append(list, payload...)
	if len(payload)%2 != 0 {
		list = append(list, 0)
	}

	// Splice before the data chunk header (offset 36 in the minimal layout).
	out := make([]byte, 0, len(plain)+len(list))
	out = append(out, plain[:36]...)
	out = append(out, list...)
	out = append(out, plain[36:]...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}
