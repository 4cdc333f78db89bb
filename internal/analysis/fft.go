package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/san-kum/impel/internal/sim"
)

var (
	ErrNotPowerOfTwo = errors.New("analysis: fft length must be a power of two")
	ErrTooShort      = errors.New("analysis: not enough samples")
	ErrNoOscillation = errors.New("analysis: no oscillation")
)

func FFT(data []float64) ([]complex128, error) {
	n := len(data)
	if n&(n-1) != 0 {
		return nil, ErrNotPowerOfTwo
	}
	return fft(data), nil
}

func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns the magnitude of the first n/2 bins.
func PowerSpectrum(data []float64) ([]float64, error) {
	f, err := FFT(data)
	if err != nil {
		return nil, err
	}
	ps := make([]float64, len(f)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(f[i])
	}
	return ps, nil
}

// DominantPeriod estimates the oscillation period of a track, in time
// units, from the largest power-of-two prefix of its difference series.
// frameTime must be the uniform spacing of the samples.
func DominantPeriod(samples []sim.Sample, frameTime float64) (float64, error) {
	n := 1
	for n*2 <= len(samples) {
		n *= 2
	}
	if n < 8 {
		return 0, ErrTooShort
	}

	data := make([]float64, n)
	mean := 0.0
	for i := range data {
		data[i] = samples[i].Difference()
		mean += data[i]
	}
	mean /= float64(n)
	for i := range data {
		data[i] -= mean
	}

	ps, err := PowerSpectrum(data)
	if err != nil {
		return 0, err
	}

	// bin 0 is the mean, removed above
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] < 1e-12 {
		return 0, ErrNoOscillation
	}
	return float64(n) * frameTime / float64(peak), nil
}
