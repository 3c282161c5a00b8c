package alac

import (
	"math"
)

// windowSignal applies a Tukey window to samples, storing the product in
// the encoder's windowed signal buffer. The window itself is cached and
// recomputed only when the block length changes, which normally happens
// once, for the final short block.
func (enc *encoder) windowSignal(samples []int32) {
	const alpha = 0.5
	n := len(samples)
	if len(enc.tukeyWindow) != n {
		window1 := int(alpha*float64(n-1)) / 2
		window2 := int(float64(n-1) * (1.0 - alpha/2.0))
		enc.tukeyWindow = enc.tukeyWindow[:0]
		for i := 0; i < n; i++ {
			switch {
			case i <= window1:
				enc.tukeyWindow = append(enc.tukeyWindow,
					0.5*(1.0+math.Cos(math.Pi*(float64(2*i)/(alpha*float64(n-1))-1.0))))
			case i <= window2:
				enc.tukeyWindow = append(enc.tukeyWindow, 1.0)
			default:
				enc.tukeyWindow = append(enc.tukeyWindow,
					0.5*(1.0+math.Cos(math.Pi*(2.0*float64(i)/(alpha*float64(n-1))-2.0/alpha+1.0))))
			}
		}
	}

	enc.windowedSignal = enc.windowedSignal[:0]
	for i, sample := range samples {
		enc.windowedSignal = append(enc.windowedSignal, float64(sample)*enc.tukeyWindow[i])
	}
}

// autocorrelate computes the autocorrelation of the windowed signal at
// lags 0 through maxLPCOrder.
func (enc *encoder) autocorrelate() {
	enc.autocorrelationValues = enc.autocorrelationValues[:0]
	for lag := 0; lag <= maxLPCOrder; lag++ {
		accumulator := 0.0
		for i := 0; i < len(enc.windowedSignal)-lag; i++ {
			accumulator += enc.windowedSignal[i] * enc.windowedSignal[i+lag]
		}
		enc.autocorrelationValues = append(enc.autocorrelationValues, accumulator)
	}
}

// computeLPCoefficients runs the Levinson-Durbin recursion on the
// autocorrelation values, producing one LP coefficient list per order 1
// through maxLPCOrder. The list for order m is stored at index m-1; the
// bitstream depends on this exact indexing, idiosyncratic as it is.
func (enc *encoder) computeLPCoefficients() {
	r := enc.autocorrelationValues
	lpCoefficients := enc.lpCoefficients[:0]
	lpError := enc.lpError[:0]

	k := r[1] / r[0]
	lpCoefficients = append(lpCoefficients, []float64{k})
	lpError = append(lpError, r[0]*(1.0-k*k))

	for i := 1; i < maxLPCOrder; i++ {
		q := r[i+1]
		for j := 0; j < i; j++ {
			q -= lpCoefficients[i-1][j] * r[i-j]
		}
		k = q / lpError[i-1]

		lpCoeff := make([]float64, 0, i+1)
		for j := 0; j < i; j++ {
			lpCoeff = append(lpCoeff, lpCoefficients[i-1][j]-k*lpCoefficients[i-1][i-j-1])
		}
		lpCoeff = append(lpCoeff, k)
		lpCoefficients = append(lpCoefficients, lpCoeff)

		lpError = append(lpError, lpError[i-1]*(1.0-k*k))
	}

	enc.lpCoefficients = lpCoefficients
	enc.lpError = lpError
}

// quantizeCoefficients converts the floating-point predictor of the given
// order to 16-bit integers, feeding the rounding error of each coefficient
// into the next. The result is appended to the re-sliced qlpCoefficients
// buffer.
func quantizeCoefficients(lpCoefficients [][]float64, order int, qlpCoefficients []int32) []int32 {
	const (
		qlpMax = 1<<15 - 1
		qlpMin = -(1 << 15)
	)
	lpCoeffs := lpCoefficients[order-1]
	qlpCoefficients = qlpCoefficients[:0]
	quantError := 0.0
	for i := 0; i < order; i++ {
		quantError += lpCoeffs[i] * (1 << 9)
		rounded := int32(math.Round(quantError))
		quantized := rounded
		if quantized > qlpMax {
			quantized = qlpMax
		}
		if quantized < qlpMin {
			quantized = qlpMin
		}
		qlpCoefficients = append(qlpCoefficients, quantized)
		quantError -= float64(rounded)
	}
	return qlpCoefficients
}
