package bits_test

import (
	"bytes"
	"testing"

	"github.com/icza/mighty"
	"github.com/mewkiz/alac/internal/bits"
)

// record copies the recorder into a fresh sink and returns the aligned
// bytes.
func record(t *testing.T, r *bits.Recorder) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	s := bits.NewSink(buf)
	if err := r.CopyTo(s); err != nil {
		t.Fatalf("error splicing recorder: %v", err)
	}
	if err := s.Align(); err != nil {
		t.Fatalf("error aligning: %v", err)
	}
	return buf.Bytes()
}

func TestRecorderCopyTo(t *testing.T) {
	eq := mighty.Eq(t)
	r := bits.NewRecorder()
	if _, err := r.Write([]byte{0xAB, 0xCD}); err != nil {
		t.Fatalf("error writing bytes: %v", err)
	}
	if err := r.WriteBits(0x5, 3); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	eq(uint64(19), r.BitsWritten())
	if want, got := []byte{0xAB, 0xCD, 0xA0}, record(t, r); !bytes.Equal(want, got) {
		t.Fatalf("content mismatch; expected % X, got % X", want, got)
	}
}

// Splicing into an unaligned outer stream shifts the recorded bits.
func TestRecorderCopyToUnaligned(t *testing.T) {
	eq := mighty.Eq(t)
	r := bits.NewRecorder()
	if err := r.WriteBits(0x5, 3); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}

	buf := new(bytes.Buffer)
	s := bits.NewSink(buf)
	if err := s.WriteBits(0, 1); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	if err := r.CopyTo(s); err != nil {
		t.Fatalf("error splicing recorder: %v", err)
	}
	eq(uint64(4), s.BitsWritten())
	if err := s.Align(); err != nil {
		t.Fatalf("error aligning: %v", err)
	}
	if want := []byte{0x50}; !bytes.Equal(want, buf.Bytes()) {
		t.Fatalf("content mismatch; expected % X, got % X", want, buf.Bytes())
	}
}

// A recorder may be spliced more than once; CopyTo leaves the recorded
// contents intact.
func TestRecorderCopyToTwice(t *testing.T) {
	r := bits.NewRecorder()
	if err := r.WriteBits(0x1AB, 9); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	for i := 0; i < 2; i++ {
		if want, got := []byte{0xD5, 0x80}, record(t, r); !bytes.Equal(want, got) {
			t.Fatalf("copy %d: content mismatch; expected % X, got % X", i, want, got)
		}
	}
}

func TestRecorderReset(t *testing.T) {
	eq := mighty.Eq(t)
	r := bits.NewRecorder()
	if err := r.WriteBits(0xFF, 8); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	r.Reset()
	eq(uint64(0), r.BitsWritten())
	if err := r.WriteBits(0x3, 2); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	if want, got := []byte{0xC0}, record(t, r); !bytes.Equal(want, got) {
		t.Fatalf("content mismatch; expected % X, got % X", want, got)
	}
}

func TestRecorderSwap(t *testing.T) {
	eq := mighty.Eq(t)
	a := bits.NewRecorder()
	b := bits.NewRecorder()
	if err := a.WriteBits(0xFF, 8); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	if err := b.WriteBits(0x5, 3); err != nil {
		t.Fatalf("error writing bits: %v", err)
	}
	a.Swap(b)
	eq(uint64(3), a.BitsWritten())
	eq(uint64(8), b.BitsWritten())
	if want, got := []byte{0xA0}, record(t, a); !bytes.Equal(want, got) {
		t.Fatalf("content mismatch; expected % X, got % X", want, got)
	}
	if want, got := []byte{0xFF}, record(t, b); !bytes.Equal(want, got) {
		t.Fatalf("content mismatch; expected % X, got % X", want, got)
	}
}
