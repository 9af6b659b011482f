package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/h2non/filetype"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return filetype.Is(data, "wav")
}

// DecodeWAV decodes integer PCM WAV data. It returns the samples and the
// source bit depth.
func DecodeWAV(data []byte) (*Buffer, int, error) {
	if !IsWAV(data) {
		return nil, 0, errors.New("not a WAV file")
	}
	if d := wav.NewDecoder(bytes.NewReader(data)); !d.IsValidFile() {
		return nil, 0, errors.New("invalid WAV header")
	}

	d := wav.NewDecoder(bytes.NewReader(data))
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode PCM: %w", err)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, 0, fmt.Errorf("unsupported WAV encoding %d", d.WavAudioFormat)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 || pcm.Format.SampleRate <= 0 {
		return nil, 0, errors.New("invalid WAV format chunk")
	}

	bitDepth := int(d.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	scale := math.Ldexp(1, bitDepth-1)
	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		samples[i] = float64(v) / scale
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: pcm.Format.SampleRate,
		Channels:   pcm.Format.NumChannels,
	}, bitDepth, nil
}

// EncodeWAV encodes b as integer PCM WAV at bitDepth. Samples outside
// [-1, 1] are clamped.
func EncodeWAV(b *Buffer, bitDepth int) ([]byte, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	if b.Channels <= 0 || b.SampleRate <= 0 {
		return nil, errors.New("invalid buffer format")
	}

	scale := math.Ldexp(1, bitDepth-1)
	maxInt := scale - 1
	data := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		v := math.Round(s * scale)
		if v > maxInt {
			v = maxInt
		} else if v < -scale {
			v = -scale
		}
		data[i] = int(v)
	}

	out := &writeSeeker{}
	enc := wav.NewEncoder(out, b.SampleRate, bitDepth, b.Channels, wavFormatPCM)
	err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("encode WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize WAV: %w", err)
	}
	return out.Bytes(), nil
}

// WrapPCM16 wraps raw signed 16-bit little-endian PCM in a WAV container.
func WrapPCM16(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return EncodeWAV(&Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}, 16)
}

// writeSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks back
// to patch chunk sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	w.pos = int(abs)
	return abs, nil
}

func (w *writeSeeker) Bytes() []byte {
	return w.buf
}
