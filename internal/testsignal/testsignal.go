// Package testsignal synthesizes sine/sawtooth/square waveforms for use
// as test fixtures, ported from
// original_source/youtube_audio_matcher/audio/util.py's
// generate_waveform. scipy.signal.sawtooth/square have no equivalent in
// this module's dependency pack, so they are reimplemented here from
// their published closed-form definitions (standard-library math only —
// see DESIGN.md).
package testsignal

import "math"

// Shape selects the waveform generated by Generate.
type Shape int

const (
	Sine Shape = iota
	Sawtooth
	Square
)

// Params mirrors generate_waveform's keyword arguments.
type Params struct {
	Shape      Shape
	Duration   float64 // seconds, ignored if NumSamples > 0
	NumSamples int
	SampleRate int
	Frequency  float64
	Amplitude  float64 // fraction of full scale, [0, 1]
	DutyCycle  float64 // square wave only, [0, 1]
	Width      float64 // sawtooth wave only, [0, 1]
}

// DefaultParams mirrors generate_waveform's Python defaults.
func DefaultParams() Params {
	return Params{
		Shape:      Sine,
		Duration:   1,
		SampleRate: 44100,
		Frequency:  440,
		Amplitude:  1.0,
		DutyCycle:  0.5,
		Width:      1,
	}
}

// Generate returns an int16 PCM waveform per p.
func Generate(p Params) []int16 {
	n := p.NumSamples
	if n == 0 {
		n = int(p.Duration * float64(p.SampleRate))
	}

	out := make([]int16, n)
	amplitude := p.Amplitude
	if amplitude > 1.0 {
		amplitude = 1.0
	}

	for x := 0; x < n; x++ {
		t := 2 * math.Pi * p.Frequency * float64(x) / float64(p.SampleRate)
		var y float64
		switch p.Shape {
		case Square:
			y = squareWave(t, p.DutyCycle)
		case Sawtooth:
			y = sawtoothWave(t, p.Width)
		default:
			y = math.Sin(t)
		}
		out[x] = int16(amplitude * y * 32767)
	}
	return out
}

// squareWave reimplements scipy.signal.square: period 2*pi, +1 for the
// first duty*2*pi of each period, -1 thereafter.
func squareWave(t, duty float64) float64 {
	phase := math.Mod(t, 2*math.Pi)
	if phase < 0 {
		phase += 2 * math.Pi
	}
	if phase < duty*2*math.Pi {
		return 1
	}
	return -1
}

// sawtoothWave reimplements scipy.signal.sawtooth: a periodic ramp from
// -1 to 1 over the first width*2*pi of each period, then a ramp back
// down from 1 to -1 over the remainder. width=1 is a pure (rising)
// sawtooth.
func sawtoothWave(t, width float64) float64 {
	if width <= 0 {
		width = 1e-9
	}
	if width >= 1 {
		width = 1 - 1e-9
	}
	phase := math.Mod(t, 2*math.Pi)
	if phase < 0 {
		phase += 2 * math.Pi
	}
	frac := phase / (2 * math.Pi)
	switch {
	case frac < width:
		return 2*(frac/width) - 1
	default:
		return 2*((1-frac)/(1-width)) - 1
	}
}
