package bits

import (
	"bytes"

	"github.com/icza/bitio"
)

// Recorder is a Writer that records bits in memory so a sub-stream can be
// measured, compared against alternatives and finally spliced into an outer
// Writer.
type Recorder struct {
	writer
	buf *bytes.Buffer
}

// NewRecorder returns a new empty Recorder.
func NewRecorder() *Recorder {
	buf := new(bytes.Buffer)
	return &Recorder{
		writer: writer{bw: bitio.NewWriter(buf)},
		buf:    buf,
	}
}

// Reset discards all recorded bits, retaining the buffer capacity.
func (r *Recorder) Reset() {
	r.buf.Reset()
	r.bw = bitio.NewWriter(r.buf)
	r.nbits = 0
}

// CopyTo splices the recorded bits into w. The cost is linear in the number
// of recorded bytes, not bits. The recorded contents remain valid for
// further CopyTo calls, but the recorder must be Reset before it is written
// to again.
func (r *Recorder) CopyTo(w Writer) error {
	if rem := r.nbits % 8; rem != 0 && uint64(r.buf.Len())*8 < r.nbits {
		// Flush the partial tail byte; its zero padding is not part of the
		// recorded stream and is skipped below.
		if _, err := r.bw.Align(); err != nil {
			return err
		}
	}
	data := r.buf.Bytes()
	whole := r.nbits / 8
	if _, err := w.Write(data[:whole]); err != nil {
		return err
	}
	if rem := r.nbits % 8; rem > 0 {
		return w.WriteBits(uint64(data[whole]>>(8-rem)), byte(rem))
	}
	return nil
}

// Swap exchanges the recorded contents of r and o in O(1).
func (r *Recorder) Swap(o *Recorder) {
	r.writer, o.writer = o.writer, r.writer
	r.buf, o.buf = o.buf, r.buf
}
