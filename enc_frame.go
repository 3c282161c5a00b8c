package alac

import (
	"math"

	"github.com/mewkiz/alac/internal/bits"
)

// writeFrame writes one mono or stereo frame. Frames of fewer than 10
// samples are always stored uncompressed; longer frames fall back to the
// uncompressed form only when the residual coder overflows.
func (enc *encoder) writeFrame(bs bits.Writer, channels [][]int32) error {
	// 3 bits: channel count - 1.
	if err := bs.WriteBits(uint64(len(channels)-1), 3); err != nil {
		return err
	}
	if len(channels[0]) < 10 {
		return enc.writeUncompressedFrame(bs, channels)
	}

	// Compose the compressed frame into a recorder so an overflow discards
	// it without having touched bs.
	compressedFrame := enc.compressedFrame
	compressedFrame.Reset()
	switch err := enc.writeCompressedFrame(compressedFrame, channels); err {
	case nil:
		return compressedFrame.CopyTo(bs)
	case errResidualOverflow:
		return enc.writeUncompressedFrame(bs, channels)
	default:
		return err
	}
}

// writeUncompressedFrame stores the channel samples verbatim.
func (enc *encoder) writeUncompressedFrame(bs bits.Writer, channels [][]int32) error {
	// 16 bits: unused.
	if err := bs.WriteBits(0, 16); err != nil {
		return err
	}

	// 1 bit: set when the frame is shorter than the default block size.
	partial := uint64(0)
	if len(channels[0]) != enc.opts.BlockSize {
		partial = 1
	}
	if err := bs.WriteBits(partial, 1); err != nil {
		return err
	}

	// 2 bits: no uncompressed LSBs.
	if err := bs.WriteBits(0, 2); err != nil {
		return err
	}

	// 1 bit: not compressed.
	if err := bs.WriteBits(1, 1); err != nil {
		return err
	}

	// 32 bits: frame length, present only for partial frames.
	if partial == 1 {
		if err := bs.WriteBits(uint64(len(channels[0])), 32); err != nil {
			return err
		}
	}

	for i := range channels[0] {
		for c := range channels {
			if err := bs.WriteSigned(int64(channels[c][i]), byte(enc.bitsPerSample)); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeCompressedFrame stores the frame using LPC prediction, stripping the
// low bytes of >16-bit samples first and searching the interlacing
// leftweights for stereo frames. A residual overflow surfaces as
// errResidualOverflow with bs untouched beyond the recorded attempt.
func (enc *encoder) writeCompressedFrame(bs bits.Writer, channels [][]int32) error {
	uncompressedLSBs := 0
	lsbs := enc.lsbs[:0]
	if enc.bitsPerSample > 16 {
		// The low bytes rarely correlate between samples; they are stored
		// raw and prediction runs on the most-significant portion.
		uncompressedLSBs = (enc.bitsPerSample - 16) / 8
		shift := uint(enc.bitsPerSample - 16)
		for len(enc.channelsMSBBufs) < len(channels) {
			enc.channelsMSBBufs = append(enc.channelsMSBBufs, nil)
		}
		for c := range channels {
			enc.channelsMSBBufs[c] = enc.channelsMSBBufs[c][:0]
		}
		for i := range channels[0] {
			for c := range channels {
				sample := channels[c][i]
				lsbs = append(lsbs, sample&(1<<shift-1))
				enc.channelsMSBBufs[c] = append(enc.channelsMSBBufs[c], sample>>shift)
			}
		}
		enc.channelsMSB = enc.channelsMSB[:0]
		for c := range channels {
			enc.channelsMSB = append(enc.channelsMSB, enc.channelsMSBBufs[c])
		}
		channels = enc.channelsMSB
	}
	enc.lsbs = lsbs

	if len(channels) == 1 {
		return enc.writeNonInterlacedFrame(bs, uncompressedLSBs, lsbs, channels)
	}

	// Attempt every interlacing leftweight and keep the smallest frame.
	best := enc.bestInterlacedFrame
	cur := enc.interlacedFrame
	bestBits := uint64(math.MaxUint64)
	for leftweight := enc.opts.MinInterlacingLeftweight; leftweight <= enc.opts.MaxInterlacingLeftweight; leftweight++ {
		cur.Reset()
		if err := enc.writeInterlacedFrame(cur, uncompressedLSBs, lsbs, interlacingShift, leftweight, channels); err != nil {
			return err
		}
		if cur.BitsWritten() < bestBits {
			bestBits = cur.BitsWritten()
			best, cur = cur, best
		}
	}
	enc.bestInterlacedFrame, enc.interlacedFrame = best, cur
	return best.CopyTo(bs)
}

// writeNonInterlacedFrame stores a compressed mono frame.
func (enc *encoder) writeNonInterlacedFrame(bs bits.Writer, uncompressedLSBs int, lsbs []int32, channels [][]int32) error {
	residual := enc.residual0
	residual.Reset()

	if err := enc.writeCompressedHeader(bs, uncompressedLSBs, len(channels[0])); err != nil {
		return err
	}

	// 8 bits: no interlacing shift.
	if err := bs.WriteBits(0, 8); err != nil {
		return err
	}
	// 8 bits: no interlacing leftweight.
	if err := bs.WriteBits(0, 8); err != nil {
		return err
	}

	sampleSize := enc.bitsPerSample - uncompressedLSBs*8
	qlpCoefficients, err := enc.computeCoefficients(channels[0], sampleSize, enc.qlpCoefficients0, residual)
	if err != nil {
		return err
	}
	enc.qlpCoefficients0 = qlpCoefficients

	if err := writeSubframeHeader(bs, qlpCoefficients); err != nil {
		return err
	}
	if err := writeLSBs(bs, uncompressedLSBs, lsbs); err != nil {
		return err
	}
	return residual.CopyTo(bs)
}

// writeInterlacedFrame stores a compressed stereo frame for one interlacing
// parameter pair.
func (enc *encoder) writeInterlacedFrame(bs bits.Writer, uncompressedLSBs int, lsbs []int32, shift, leftweight int, channels [][]int32) error {
	residual0 := enc.residual0
	residual1 := enc.residual1
	residual0.Reset()
	residual1.Reset()

	if err := enc.writeCompressedHeader(bs, uncompressedLSBs, len(channels[0])); err != nil {
		return err
	}

	// 8 bits: interlacing shift.
	if err := bs.WriteBits(uint64(shift), 8); err != nil {
		return err
	}
	// 8 bits: interlacing leftweight.
	if err := bs.WriteBits(uint64(leftweight), 8); err != nil {
		return err
	}

	correlated := enc.correlateChannels(channels, shift, leftweight)

	// One extra bit of sample size accommodates the difference channel.
	sampleSize := enc.bitsPerSample - uncompressedLSBs*8 + 1
	qlpCoefficients0, err := enc.computeCoefficients(correlated[0], sampleSize, enc.qlpCoefficients0, residual0)
	if err != nil {
		return err
	}
	enc.qlpCoefficients0 = qlpCoefficients0
	qlpCoefficients1, err := enc.computeCoefficients(correlated[1], sampleSize, enc.qlpCoefficients1, residual1)
	if err != nil {
		return err
	}
	enc.qlpCoefficients1 = qlpCoefficients1

	if err := writeSubframeHeader(bs, qlpCoefficients0); err != nil {
		return err
	}
	if err := writeSubframeHeader(bs, qlpCoefficients1); err != nil {
		return err
	}
	if err := writeLSBs(bs, uncompressedLSBs, lsbs); err != nil {
		return err
	}
	if err := residual0.CopyTo(bs); err != nil {
		return err
	}
	return residual1.CopyTo(bs)
}

// writeCompressedHeader writes the header bits shared by the compressed
// frame forms, up to and excluding the interlacing fields.
func (enc *encoder) writeCompressedHeader(bs bits.Writer, uncompressedLSBs, frameLength int) error {
	// 16 bits: unused.
	if err := bs.WriteBits(0, 16); err != nil {
		return err
	}

	// 1 bit: set when the frame is shorter than the default block size.
	partial := uint64(0)
	if frameLength != enc.opts.BlockSize {
		partial = 1
	}
	if err := bs.WriteBits(partial, 1); err != nil {
		return err
	}

	// 2 bits: number of uncompressed LSB bytes per sample.
	if err := bs.WriteBits(uint64(uncompressedLSBs), 2); err != nil {
		return err
	}

	// 1 bit: compressed.
	if err := bs.WriteBits(0, 1); err != nil {
		return err
	}

	// 32 bits: frame length, present only for partial frames.
	if partial == 1 {
		if err := bs.WriteBits(uint64(frameLength), 32); err != nil {
			return err
		}
	}
	return nil
}

// writeLSBs stores the raw least-significant bytes between the subframe
// headers and the residual blocks.
func writeLSBs(bs bits.Writer, uncompressedLSBs int, lsbs []int32) error {
	if uncompressedLSBs == 0 {
		return nil
	}
	for _, lsb := range lsbs {
		if err := bs.WriteBits(uint64(lsb), byte(uncompressedLSBs*8)); err != nil {
			return err
		}
	}
	return nil
}

// correlateChannels derives the two decorrelated channels of a stereo
// frame. Leftweight 0 passes the channels through unchanged; any other
// weight stores a weighted mid channel and the channel difference.
func (enc *encoder) correlateChannels(channels [][]int32, shift, leftweight int) [][]int32 {
	correlated0 := enc.correlated0[:0]
	correlated1 := enc.correlated1[:0]
	if leftweight > 0 {
		for i := range channels[0] {
			diff := int64(channels[0][i]) - int64(channels[1][i])
			weighted := (diff * int64(leftweight)) >> uint(shift)
			correlated0 = append(correlated0, channels[1][i]+int32(weighted))
			correlated1 = append(correlated1, channels[0][i]-channels[1][i])
		}
	} else {
		correlated0 = append(correlated0, channels[0]...)
		correlated1 = append(correlated1, channels[1]...)
	}
	enc.correlated0 = correlated0
	enc.correlated1 = correlated1
	return [][]int32{correlated0, correlated1}
}
