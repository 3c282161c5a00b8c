package alac

import (
	"github.com/mewkiz/alac/internal/bits"
)

// computeCoefficients analyses one channel, quantizes the predictor at
// orders 4 and 8, encodes a residual block for each and keeps whichever
// codes shorter. The chosen coefficients are stored in qlp, which is
// returned re-sliced, and the matching residual block is left in residual.
func (enc *encoder) computeCoefficients(samples []int32, sampleSize int, qlp []int32, residual *bits.Recorder) ([]int32, error) {
	enc.windowSignal(samples)
	enc.autocorrelate()

	if enc.autocorrelationValues[0] == 0 {
		// The windowed signal is all zero; skip the analysis and use an
		// order-4 all-zero predictor.
		qlp = qlp[:0]
		for i := 0; i < 4; i++ {
			qlp = append(qlp, 0)
		}
		enc.residualValues4 = calculateResiduals(samples, sampleSize, qlp, enc.residualValues4)
		if err := enc.encodeResiduals(residual, sampleSize, enc.residualValues4); err != nil {
			return nil, err
		}
		return qlp, nil
	}

	enc.computeLPCoefficients()
	enc.qlpCoefficients4 = quantizeCoefficients(enc.lpCoefficients, 4, enc.qlpCoefficients4)
	enc.qlpCoefficients8 = quantizeCoefficients(enc.lpCoefficients, 8, enc.qlpCoefficients8)

	enc.residualValues4 = calculateResiduals(samples, sampleSize, enc.qlpCoefficients4, enc.residualValues4)
	enc.residualValues8 = calculateResiduals(samples, sampleSize, enc.qlpCoefficients8, enc.residualValues8)

	enc.residualBlock4.Reset()
	if err := enc.encodeResiduals(enc.residualBlock4, sampleSize, enc.residualValues4); err != nil {
		return nil, err
	}
	enc.residualBlock8.Reset()
	if err := enc.encodeResiduals(enc.residualBlock8, sampleSize, enc.residualValues8); err != nil {
		return nil, err
	}

	// The four extra coefficients of order 8 cost 64 header bits, so its
	// residual block must beat order 4 by at least that margin.
	if enc.residualBlock4.BitsWritten() < enc.residualBlock8.BitsWritten()+64 {
		qlp = append(qlp[:0], enc.qlpCoefficients4...)
		if err := enc.residualBlock4.CopyTo(residual); err != nil {
			return nil, err
		}
	} else {
		qlp = append(qlp[:0], enc.qlpCoefficients8...)
		if err := enc.residualBlock8.CopyTo(residual); err != nil {
			return nil, err
		}
	}
	return qlp, nil
}

// writeSubframeHeader writes the predictor description preceding a
// channel's residual block.
func writeSubframeHeader(bs bits.Writer, qlpCoefficients []int32) error {
	// 4 bits: prediction type.
	if err := bs.WriteBits(0, 4); err != nil {
		return err
	}
	// 4 bits: QLP shift.
	if err := bs.WriteBits(9, 4); err != nil {
		return err
	}
	// 3 bits: Rice modifier.
	if err := bs.WriteBits(4, 3); err != nil {
		return err
	}
	// 5 bits: predictor order.
	if err := bs.WriteBits(uint64(len(qlpCoefficients)), 5); err != nil {
		return err
	}
	for _, coefficient := range qlpCoefficients {
		// 16 bits: signed QLP coefficient.
		if err := bs.WriteSigned(int64(coefficient), 16); err != nil {
			return err
		}
	}
	return nil
}

// calculateResiduals applies the quantized predictor to samples, appending
// the residuals to the re-sliced residuals buffer. A working copy of the
// coefficients adapts by one step per residual sign; the decoder performs
// the identical refinement, so no side information is transmitted.
func calculateResiduals(samples []int32, sampleSize int, qlpCoefficients, residuals []int32) []int32 {
	coefficients := make([]int32, len(qlpCoefficients))
	copy(coefficients, qlpCoefficients)
	coeffCount := len(coefficients)
	residuals = residuals[:0]

	// The first sample is always copied verbatim.
	residuals = append(residuals, samples[0])
	i := 1

	if coeffCount >= 31 {
		for ; i < len(samples); i++ {
			residuals = append(residuals, bits.Truncate(samples[i]-samples[i-1], uint(sampleSize)))
		}
		return residuals
	}

	// Warm-up samples are delta coded.
	for ; i < coeffCount+1 && i < len(samples); i++ {
		residuals = append(residuals, bits.Truncate(samples[i]-samples[i-1], uint(sampleSize)))
	}

	for ; i < len(samples); i++ {
		baseSample := samples[i-coeffCount-1]
		lpcSum := int64(1) << 8
		for j := 0; j < coeffCount; j++ {
			lpcSum += int64(coefficients[j]) * int64(samples[i-j-1]-baseSample)
		}
		lpcSum >>= 9

		residual := bits.Truncate(samples[i]-baseSample-int32(lpcSum), uint(sampleSize))
		residuals = append(residuals, residual)

		if residual > 0 {
			for j := 0; j < coeffCount && residual > 0; j++ {
				diff := baseSample - samples[i-coeffCount+j]
				sign := signOnly(diff)
				coefficients[coeffCount-j-1] -= sign
				residual -= ((diff * sign) >> 9) * int32(j+1)
			}
		} else if residual < 0 {
			for j := 0; j < coeffCount && residual < 0; j++ {
				diff := baseSample - samples[i-coeffCount+j]
				sign := signOnly(diff)
				coefficients[coeffCount-j-1] += sign
				residual -= ((diff * -sign) >> 9) * int32(j+1)
			}
		}
	}
	return residuals
}

// signOnly returns the sign of v as -1, 0 or 1.
func signOnly(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
