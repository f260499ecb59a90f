package capture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/okian/cabina/internal/domain/audio"
)

const wavHeaderSize = 44

// DecodePCM16LE decodes raw little-endian signed 16-bit mono samples.
func DecodePCM16LE(b []byte) (audio.Block, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d", ErrUnsupportedFormat, len(b))
	}
	out := make(audio.Block, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out, nil
}

// EncodePCM16LE is the inverse of DecodePCM16LE.
func EncodePCM16LE(block audio.Block) []byte {
	out := make([]byte, 2*len(block))
	for i, s := range block {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// Decode accepts raw PCM16LE or a canonical 44-byte-header WAV file. It
// returns the samples and the sample rate from the WAV header, or 0 for
// raw input.
func Decode(b []byte) (audio.Block, int, error) {
	if !isWAV(b) {
		block, err := DecodePCM16LE(b)
		return block, 0, err
	}
	if len(b) < wavHeaderSize {
		return nil, 0, fmt.Errorf("%w: truncated wav header", ErrUnsupportedFormat)
	}
	format := binary.LittleEndian.Uint16(b[20:])
	channels := binary.LittleEndian.Uint16(b[22:])
	rate := binary.LittleEndian.Uint32(b[24:])
	bits := binary.LittleEndian.Uint16(b[34:])
	if format != 1 || channels != 1 || bits != 16 {
		return nil, 0, fmt.Errorf("%w: format=%d channels=%d bits=%d", ErrUnsupportedFormat, format, channels, bits)
	}
	block, err := DecodePCM16LE(b[wavHeaderSize:])
	if err != nil {
		return nil, 0, err
	}
	return block, int(rate), nil
}

// ReadFile loads and decodes a recording from disk.
func ReadFile(path string) (audio.Block, int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return Decode(b)
}

// EncodeWAV wraps block in a canonical mono 16-bit WAV header.
func EncodeWAV(block audio.Block, sampleRate int) []byte {
	data := EncodePCM16LE(block)
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(data))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func isWAV(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}
