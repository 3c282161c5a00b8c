package alac

import (
	"encoding/binary"
	"io"

	"github.com/mewkiz/alac/internal/bits"
	"github.com/mewkiz/pkg/errutil"
)

// Encode reads PCM blocks from src until the source is exhausted and writes
// the mdat atom of an ALAC file to ws: a 4-byte big-endian size, the
// literal "mdat", and one byte-aligned frameset per PCM block. The size
// prefix is rewritten in place once the total is known, which is the only
// use Encode makes of seeking.
//
// It returns the ordered per-frameset sizes for the caller's sample
// tables. If the PCM source fails, the output is invalid and the error is
// returned wrapped by errutil.Err.
//
// A nil opts encodes with the reference parameters.
func Encode(ws io.WriteSeeker, src PCMReader, opts *Options) ([]FrameSize, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if bps := src.BitsPerSample(); bps != 16 && bps != 24 {
		return nil, errutil.Newf("bits per sample must be 16 or 24; got %d", bps)
	}
	if opts.BlockSize < 1 {
		return nil, errutil.Newf("invalid block size %d", opts.BlockSize)
	}
	enc := newEncoder(opts, src.BitsPerSample())

	mdatHeader, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errutil.Err(err)
	}
	bs := bits.NewSink(ws)

	// Placeholder mdat header; rewritten with the actual size once the PCM
	// source is exhausted.
	if err := bs.WriteBits(0, 32); err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := bs.Write([]byte("mdat")); err != nil {
		return nil, errutil.Err(err)
	}

	var frameSizes []FrameSize
	samples := make([]int32, src.Channels()*opts.BlockSize)
	for {
		pcmFramesRead, err := src.ReadPCM(samples, opts.BlockSize)
		if pcmFramesRead > 0 {
			channels := enc.splitChannels(samples, src.Channels(), pcmFramesRead)
			start := bs.BitsWritten()
			if werr := enc.writeFrameset(bs, channels); werr != nil {
				return nil, errutil.Err(werr)
			}
			frameSizes = append(frameSizes, FrameSize{
				ByteSize:  uint32((bs.BitsWritten() - start) / 8),
				PCMFrames: uint32(pcmFramesRead),
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errutil.Err(err)
		}
		if pcmFramesRead == 0 {
			break
		}
	}

	// Return to the mdat header and rewrite it with the actual size.
	totalMdatSize := uint32(8)
	for _, frameSize := range frameSizes {
		totalMdatSize += frameSize.ByteSize
	}
	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := ws.Seek(mdatHeader, io.SeekStart); err != nil {
		return nil, errutil.Err(err)
	}
	if err := binary.Write(ws, binary.BigEndian, totalMdatSize); err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := ws.Seek(end, io.SeekStart); err != nil {
		return nil, errutil.Err(err)
	}
	return frameSizes, nil
}

// An encoder holds the scratch state of one encode session. Buffers are
// reused across blocks, resetting length but retaining capacity.
type encoder struct {
	// Encoding options of the session.
	opts Options
	// Sample width of the PCM source in bits.
	bitsPerSample int

	// Per-channel split of the current block.
	channels    [][]int32
	channelBufs [][]int32

	// Least-significant bytes stripped from >16-bit samples, interleaved
	// frame-major, and the remaining most-significant portions per channel.
	lsbs            []int32
	channelsMSB     [][]int32
	channelsMSBBufs [][]int32

	// Stereo decorrelation scratch.
	correlated0 []int32
	correlated1 []int32

	// Chosen predictors and residual blocks of the current frame, one per
	// channel.
	qlpCoefficients0 []int32
	qlpCoefficients1 []int32
	residual0        *bits.Recorder
	residual1        *bits.Recorder

	// LPC analysis scratch.
	tukeyWindow           []float64
	windowedSignal        []float64
	autocorrelationValues []float64
	lpCoefficients        [][]float64
	lpError               []float64
	qlpCoefficients4      []int32
	qlpCoefficients8      []int32
	residualValues4       []int32
	residualValues8       []int32
	residualBlock4        *bits.Recorder
	residualBlock8        *bits.Recorder

	// Frame composition recorders.
	compressedFrame     *bits.Recorder
	interlacedFrame     *bits.Recorder
	bestInterlacedFrame *bits.Recorder
}

// newEncoder returns an encoder for one session with the given options and
// source sample width.
func newEncoder(opts *Options, bitsPerSample int) *encoder {
	return &encoder{
		opts:                *opts,
		bitsPerSample:       bitsPerSample,
		residual0:           bits.NewRecorder(),
		residual1:           bits.NewRecorder(),
		residualBlock4:      bits.NewRecorder(),
		residualBlock8:      bits.NewRecorder(),
		compressedFrame:     bits.NewRecorder(),
		interlacedFrame:     bits.NewRecorder(),
		bestInterlacedFrame: bits.NewRecorder(),
	}
}

// splitChannels deinterleaves the first nframes PCM frames of samples into
// per-channel sequences, reusing the encoder's channel buffers.
func (enc *encoder) splitChannels(samples []int32, nchannels, nframes int) [][]int32 {
	for len(enc.channelBufs) < nchannels {
		enc.channelBufs = append(enc.channelBufs, nil)
	}
	enc.channels = enc.channels[:0]
	for c := 0; c < nchannels; c++ {
		channel := enc.channelBufs[c][:0]
		for i := 0; i < nframes; i++ {
			channel = append(channel, samples[i*nchannels+c])
		}
		enc.channelBufs[c] = channel
		enc.channels = append(enc.channels, channel)
	}
	return enc.channels
}
