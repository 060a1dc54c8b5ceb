package voice

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// DefaultSampleRate is the synthesis output rate: 24kHz mono PCM16.
const DefaultSampleRate = 24000

// DecodePCM16 converts little-endian 16-bit PCM bytes to float samples
// in [-1, 1). A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// DecodeBase64PCM16 decodes base64-wrapped PCM16 audio to float samples.
func DecodeBase64PCM16(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return DecodePCM16(raw), nil
}

// EncodePCM16 converts float samples back to little-endian PCM16 bytes.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1 {
			f = 1
		}
		if f < -1 {
			f = -1
		}
		v := int16(math.Round(float64(f) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// Duration returns the playback time of n samples at the given rate.
func Duration(samples int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// Sine generates a sine tone as float samples. Used for the notification
// chime that announces a human turn.
func Sine(freq float64, dur time.Duration, sampleRate int) []float32 {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	n := int(dur.Seconds() * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// EncodeWAV wraps PCM16 bytes in a minimal mono WAV container.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	out := make([]byte, 0, 44+len(pcm))
	out = append(out, []byte("RIFF")...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(pcm)))
	out = append(out, []byte("WAVE")...)
	out = append(out, []byte("fmt ")...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, numChannels)
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(byteRate))
	out = binary.LittleEndian.AppendUint16(out, uint16(blockAlign))
	out = binary.LittleEndian.AppendUint16(out, bitsPerSample)
	out = append(out, []byte("data")...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)
	return out
}
