package alac

import (
	"github.com/mewkiz/alac/internal/bits"
)

// writeFrameset maps the channels of one PCM block onto the fixed sequence
// of mono and stereo frames of its channel layout, then terminates and
// byte-aligns the frameset.
//
// The layouts follow the ALAC channel order: the center channel leads, the
// front pair follows, and the LFE channel trails. Layouts above 8 channels
// are stored as independent mono frames.
func (enc *encoder) writeFrameset(bs bits.Writer, channels [][]int32) error {
	mono := func(c int) [][]int32 {
		return [][]int32{channels[c]}
	}
	stereo := func(c0, c1 int) [][]int32 {
		return [][]int32{channels[c0], channels[c1]}
	}
	var frames [][][]int32
	switch len(channels) {
	case 1, 2:
		frames = [][][]int32{channels}
	case 3:
		frames = [][][]int32{mono(2), stereo(0, 1)}
	case 4:
		frames = [][][]int32{mono(2), stereo(0, 1), mono(3)}
	case 5:
		frames = [][][]int32{mono(2), stereo(0, 1), stereo(3, 4)}
	case 6:
		frames = [][][]int32{mono(2), stereo(0, 1), stereo(4, 5), mono(3)}
	case 7:
		frames = [][][]int32{mono(2), stereo(0, 1), stereo(4, 5), mono(6), mono(3)}
	case 8:
		frames = [][][]int32{mono(2), stereo(6, 7), stereo(0, 1), stereo(4, 5), mono(3)}
	default:
		for c := range channels {
			frames = append(frames, mono(c))
		}
	}
	for _, frame := range frames {
		if err := enc.writeFrame(bs, frame); err != nil {
			return err
		}
	}

	// 3 bits: frameset terminator.
	if err := bs.WriteBits(7, 3); err != nil {
		return err
	}
	return bs.Align()
}
