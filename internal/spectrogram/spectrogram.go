// Package spectrogram computes short-time Fourier transform magnitude
// spectrograms in decibels, the component labeled C2 in the system
// specification. The FFT kernel and windowing are adapted from
// Prayush09-MusicRecognition's core/spectrogram.go and core/FFT.go;
// the dB conversion and framing follow the original Python
// implementation's get_spectrogram more closely than the teacher's own
// simplified (low-pass + downsample) pre-stage, which is dropped.
package spectrogram

import "math"

// Config controls STFT framing and windowing.
type Config struct {
	WindowSize int    // samples per frame
	HopSize    int    // samples to advance between frames
	Window     string // "hann" (default) or "hamming"
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{WindowSize: 4096, HopSize: 2048, Window: "hann"}
}

// Compute returns the dB-scale magnitude spectrogram S (indexed
// [timeBin][freqBin], freqBin 0..WindowSize/2), the center time in
// seconds of each frame, and the frequency in hertz of each bin.
func Compute(samples []float64, sampleRate int, cfg Config) (s [][]float64, times, freqs []float64, err error) {
	if cfg.WindowSize <= 0 || cfg.HopSize <= 0 {
		return nil, nil, nil, errInvalidConfig("window size and hop size must be positive")
	}
	if sampleRate <= 0 {
		return nil, nil, nil, errInvalidConfig("sample rate must be positive")
	}

	window := makeWindow(cfg.Window, cfg.WindowSize)
	numBins := cfg.WindowSize/2 + 1

	var numFrames int
	if len(samples) >= cfg.WindowSize {
		numFrames = (len(samples)-cfg.WindowSize)/cfg.HopSize + 1
	}

	s = make([][]float64, numFrames)
	times = make([]float64, numFrames)
	buf := make([]complex128, cfg.WindowSize)

	for frame := 0; frame < numFrames; frame++ {
		start := frame * cfg.HopSize
		for i := 0; i < cfg.WindowSize; i++ {
			buf[i] = complex(samples[start+i]*window[i], 0)
		}
		spectrum := fft(buf)

		row := make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			mag := cmplxAbs(spectrum[k])
			power := mag * mag
			if power == 0 {
				row[k] = math.Inf(-1)
			} else {
				row[k] = 10 * math.Log10(power)
			}
		}
		s[frame] = row
		times[frame] = (float64(start) + float64(cfg.WindowSize)/2) / float64(sampleRate)
	}

	freqs = make([]float64, numBins)
	for k := 0; k < numBins; k++ {
		freqs[k] = float64(k) * float64(sampleRate) / float64(cfg.WindowSize)
	}

	return s, times, freqs, nil
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func makeWindow(name string, n int) []float64 {
	w := make([]float64, n)
	switch name {
	case "hamming":
		for i := range w {
			w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		}
	default: // "hann"
		for i := range w {
			w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		}
	}
	return w
}

type configError string

func (e configError) Error() string { return string(e) }

func errInvalidConfig(msg string) error { return configError("spectrogram: " + msg) }
