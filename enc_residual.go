package alac

import (
	"errors"

	"github.com/mewkiz/alac/internal/bits"
)

// errResidualOverflow signals that a folded residual does not fit in the
// subframe's sample size, in which case the frame is re-encoded
// uncompressed. The sentinel must reach writeFrame unwrapped.
var errResidualOverflow = errors.New("alac: residual overflow")

// encodeResiduals writes the residual block of one channel using the
// adaptive Rice-variant code. The Rice parameter follows a decaying history
// of recent residual magnitudes, and runs of zero residuals under a quiet
// history collapse into a single length field.
func (enc *encoder) encodeResiduals(bs bits.Writer, sampleSize int, residuals []int32) error {
	history := enc.opts.InitialHistory
	historyMultiplier := enc.opts.HistoryMultiplier
	maximumK := enc.opts.MaximumK
	signModifier := uint32(0)
	maxUnsigned := uint32(1) << uint(sampleSize)

	i := 0
	for i < len(residuals) {
		// Fold to unsigned.
		var unsignedI uint32
		if residuals[i] >= 0 {
			unsignedI = uint32(residuals[i]) << 1
		} else {
			unsignedI = uint32(-residuals[i])<<1 - 1
		}

		if unsignedI >= maxUnsigned {
			return errResidualOverflow
		}

		k := log2(history>>9 + 3)
		if k > maximumK {
			k = maximumK
		}
		if err := writeResidual(bs, unsignedI-signModifier, k, sampleSize); err != nil {
			return err
		}
		signModifier = 0

		if unsignedI > 0xFFFF {
			i++
			history = 0xFFFF
			continue
		}

		history += int(unsignedI)*historyMultiplier - history*historyMultiplier>>9
		i++

		if history < 128 && i < len(residuals) {
			// Potential run of zero residuals.
			k = 7 - log2(history) + (history+16)>>6
			if k > maximumK {
				k = maximumK
			}
			zeroes := uint32(0)
			for i < len(residuals) && residuals[i] == 0 {
				zeroes++
				i++
			}
			if err := writeResidual(bs, zeroes, k, 16); err != nil {
				return err
			}
			if zeroes < 0xFFFF {
				signModifier = 1
			}
			history = 0
		}
	}
	return nil
}

// writeResidual writes a single folded residual with Rice parameter k,
// escaping to a raw sampleSize-bit value when the unary prefix would
// exceed 8.
func writeResidual(bs bits.Writer, value uint32, k, sampleSize int) error {
	msb := value / (uint32(1)<<uint(k) - 1)
	lsb := value % (uint32(1)<<uint(k) - 1)
	if msb > 8 {
		// 9 bits: escape code.
		if err := bs.WriteBits(0x1FF, 9); err != nil {
			return err
		}
		return bs.WriteBits(uint64(value), byte(sampleSize))
	}
	if err := bs.WriteUnary(0, msb); err != nil {
		return err
	}
	if k > 1 {
		if lsb > 0 {
			return bs.WriteBits(uint64(lsb+1), byte(k))
		}
		return bs.WriteBits(0, byte(k-1))
	}
	return nil
}

// log2 returns the position of the highest set bit of v, or -1 for 0.
func log2(v int) int {
	n := -1
	for ; v != 0; v >>= 1 {
		n++
	}
	return n
}
