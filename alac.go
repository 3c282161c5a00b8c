// Package alac implements the frame encoder of the ALAC [1] (Apple
// Lossless Audio Codec) format.
//
// The encoder compresses blocks of interleaved PCM samples into the
// sequence of self-delimiting framesets carried inside the mdat atom of an
// ALAC file, using channel-pair decorrelation, a windowed Levinson-Durbin
// LPC predictor and an adaptive Rice-variant entropy code. The enclosing
// MP4/M4A container is left to the caller, which receives the per-frameset
// byte sizes needed to build its sample tables.
//
// [1]: https://github.com/macosforge/alac
package alac

import (
	"github.com/go-audio/audio"
)

// Reference encoding parameters of the ALAC format.
const (
	DefaultBlockSize         = 4096
	DefaultInitialHistory    = 10
	DefaultHistoryMultiplier = 40
	DefaultMaximumK          = 14
)

const (
	// Number of predictor taps at the highest LPC analysis order.
	maxLPCOrder = 8
	// Fixed right-shift of the stereo interlacing weight product.
	interlacingShift = 2
)

// Options configure an encode session. They are fixed for the lifetime of
// one output stream.
type Options struct {
	// Number of PCM frames per frameset; the final frameset may be shorter.
	BlockSize int
	// Initial value of the adaptive history register of the residual coder.
	InitialHistory int
	// Step size of the history updates.
	HistoryMultiplier int
	// Cap on the adaptive Rice parameter.
	MaximumK int
	// Inclusive search range of the stereo interlacing leftweight.
	MinInterlacingLeftweight int
	MaxInterlacingLeftweight int
}

// DefaultOptions returns the reference encoding options.
func DefaultOptions() *Options {
	return &Options{
		BlockSize:                DefaultBlockSize,
		InitialHistory:           DefaultInitialHistory,
		HistoryMultiplier:        DefaultHistoryMultiplier,
		MaximumK:                 DefaultMaximumK,
		MinInterlacingLeftweight: 0,
		MaxInterlacingLeftweight: 4,
	}
}

// A FrameSize records the encoded byte size and PCM frame count of one
// frameset. Encode produces one record per frameset, in input order; the
// caller uses these to build the stts and stsz tables of the enclosing
// container.
type FrameSize struct {
	// Size of the frameset in bytes.
	ByteSize uint32
	// Number of PCM frames encoded by the frameset.
	PCMFrames uint32
}

// A PCMReader is the source of interleaved PCM samples to encode.
type PCMReader interface {
	// ReadPCM reads up to nframes PCM frames of interleaved samples
	// (frame-major, channel-minor) into p, which holds at least
	// nframes*Channels() values. It returns the number of whole PCM frames
	// read; a count of zero signals the end of the stream.
	ReadPCM(p []int32, nframes int) (int, error)
	// Channels returns the number of channels per PCM frame.
	Channels() int
	// BitsPerSample returns the sample width of the source in bits.
	BitsPerSample() int
}

// NewIntBufferReader returns a PCMReader that drains the interleaved
// samples of buf. The sample width is taken from buf.SourceBitDepth.
func NewIntBufferReader(buf *audio.IntBuffer) PCMReader {
	return &intBufferReader{buf: buf}
}

// intBufferReader delivers the samples of an audio.IntBuffer in blocks.
type intBufferReader struct {
	buf *audio.IntBuffer
	// Index into buf.Data of the next sample to deliver.
	pos int
}

func (r *intBufferReader) ReadPCM(p []int32, nframes int) (int, error) {
	nchannels := r.buf.Format.NumChannels
	if remaining := (len(r.buf.Data) - r.pos) / nchannels; nframes > remaining {
		nframes = remaining
	}
	for i := 0; i < nframes*nchannels; i++ {
		p[i] = int32(r.buf.Data[r.pos])
		r.pos++
	}
	return nframes, nil
}

func (r *intBufferReader) Channels() int {
	return r.buf.Format.NumChannels
}

func (r *intBufferReader) BitsPerSample() int {
	return r.buf.SourceBitDepth
}
