package spectrogram

import "math/cmplx"

// fft returns the discrete Fourier transform of x as a new slice, using a
// recursive radix-2 Cooley-Tukey algorithm when len(x) is a power of two
// and a Bluestein chirp-z transform otherwise. Adapted from the teacher's
// hand-rolled recursive FFT; the non-power-of-two path replaces the
// teacher's O(N^2) DFT fallback with an O(N log N) Bluestein transform so
// arbitrary window sizes stay cheap.
func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		out := make([]complex128, n)
		copy(out, x)
		return out
	}
	if n&(n-1) == 0 {
		return fftRadix2(x)
	}
	return bluestein(x)
}

func fftRadix2(x []complex128) []complex128 {
	n := len(x)
	if n == 1 {
		return []complex128{x[0]}
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	evenFFT := fftRadix2(even)
	oddFFT := fftRadix2(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		angle := -2 * 3.141592653589793 * float64(k) / float64(n)
		tw := cmplx.Exp(complex(0, angle)) * oddFFT[k]
		out[k] = evenFFT[k] + tw
		out[k+n/2] = evenFFT[k] - tw
	}
	return out
}

// bluestein computes the DFT of x (arbitrary length) via the chirp-z
// transform: it rewrites a length-N DFT as a length-M (M a power of two,
// M >= 2N-1) convolution, which fftRadix2 can then compute directly.
func bluestein(x []complex128) []complex128 {
	n := len(x)
	m := nextPow2(2*n - 1)

	chirp := make([]complex128, n)
	for k := 0; k < n; k++ {
		// angle = -pi * k^2 / n, computed via k^2 mod 2n to avoid overflow.
		k2modn := (k * k) % (2 * n)
		angle := -3.141592653589793 * float64(k2modn) / float64(n)
		chirp[k] = cmplx.Exp(complex(0, angle))
	}

	a := make([]complex128, m)
	for k := 0; k < n; k++ {
		a[k] = x[k] * chirp[k]
	}

	b := make([]complex128, m)
	b[0] = cmplx.Conj(chirp[0])
	for k := 1; k < n; k++ {
		b[k] = cmplx.Conj(chirp[k])
		b[m-k] = cmplx.Conj(chirp[k])
	}

	conv := circularConvolve(a, b, m)

	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		out[k] = conv[k] * chirp[k]
	}
	return out
}

func circularConvolve(a, b []complex128, m int) []complex128 {
	fa := fftRadix2(a)
	fb := fftRadix2(b)
	fc := make([]complex128, m)
	for i := range fc {
		fc[i] = fa[i] * fb[i]
	}
	inv := ifftRadix2(fc)
	return inv
}

func ifftRadix2(x []complex128) []complex128 {
	n := len(x)
	conj := make([]complex128, n)
	for i, v := range x {
		conj[i] = cmplx.Conj(v)
	}
	y := fftRadix2(conj)
	out := make([]complex128, n)
	for i, v := range y {
		out[i] = cmplx.Conj(v) / complex(float64(n), 0)
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
