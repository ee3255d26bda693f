package notify

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// Tone is one step of an audible cue.
type Tone struct {
	Frequency float64 // Hz
	Duration  time.Duration
}

// Cue is a short sequence of tones played at low gain with exponential decay.
type Cue struct {
	Tones []Tone
	Gain  float64 // peak amplitude, 0..1
	Decay float64 // per second
}

// DefaultCue is the queue-movement chime: three rising steps over 360ms.
var DefaultCue = Cue{
	Tones: []Tone{
		{Frequency: 660, Duration: 120 * time.Millisecond},
		{Frequency: 880, Duration: 120 * time.Millisecond},
		{Frequency: 1100, Duration: 120 * time.Millisecond},
	},
	Gain:  0.08,
	Decay: 18,
}

// Duration is the total play time.
func (c Cue) Duration() time.Duration {
	var d time.Duration
	for _, t := range c.Tones {
		d += t.Duration
	}
	return d
}

// Render synthesizes mono float samples in [-Gain, Gain].
func (c Cue) Render(sampleRate int) []float32 {
	if sampleRate <= 0 {
		return nil
	}
	gain := math.Max(0, math.Min(c.Gain, 1))
	var out []float32
	for _, tone := range c.Tones {
		n := int(int64(sampleRate) * int64(tone.Duration) / int64(time.Second))
		for i := 0; i < n; i++ {
			t := float64(i) / float64(sampleRate)
			env := gain * math.Exp(-c.Decay*t)
			out = append(out, float32(env*math.Sin(2*math.Pi*tone.Frequency*t)))
		}
	}
	return out
}

// WAV encodes the rendered cue as a 16-bit PCM mono RIFF file.
func (c Cue) WAV(sampleRate int) []byte {
	samples := c.Render(sampleRate)
	dataLen := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	for _, s := range samples {
		_ = binary.Write(&buf, binary.LittleEndian, int16(s*math.MaxInt16))
	}
	return buf.Bytes()
}
