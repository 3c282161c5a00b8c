// The wav2alac tool encodes WAV files to raw ALAC mdat streams.
//
// Usage:
//
//	wav2alac [OPTION]... FILE.wav...
//
// The output of each FILE.wav is stored as FILE.alac and holds the mdat
// atom of an ALAC file; packaging it into an MP4 container is left to
// other tools, which may use the frameset sizes reported by -v.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-audio/wav"
	"github.com/mewkiz/alac"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
)

func main() {
	// Parse command line arguments.
	var (
		// force overwrite output file if already present.
		force bool
		// print per-frameset sizes after encoding.
		verbose bool
	)
	opts := alac.DefaultOptions()
	flag.BoolVar(&force, "f", false, "force overwrite")
	flag.BoolVar(&verbose, "v", false, "print per-frameset sizes")
	flag.IntVar(&opts.BlockSize, "block-size", opts.BlockSize, "PCM frames per frameset")
	flag.IntVar(&opts.InitialHistory, "initial-history", opts.InitialHistory, "initial history of the residual coder")
	flag.IntVar(&opts.HistoryMultiplier, "history-multiplier", opts.HistoryMultiplier, "history update step size")
	flag.IntVar(&opts.MaximumK, "maximum-k", opts.MaximumK, "cap on the adaptive Rice parameter")
	flag.Parse()
	for _, wavPath := range flag.Args() {
		if err := wav2alac(wavPath, opts, force, verbose); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func wav2alac(wavPath string, opts *alac.Options, force, verbose bool) error {
	// Create WAV decoder.
	r, err := os.Open(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return errors.Errorf("invalid WAV file %q", wavPath)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return errors.WithStack(err)
	}
	buf.SourceBitDepth = int(dec.BitDepth)

	// Create ALAC output file.
	alacPath := pathutil.TrimExt(wavPath) + ".alac"
	if !force && osutil.Exists(alacPath) {
		return errors.Errorf("output file %q already present; use -f flag to force overwrite", alacPath)
	}
	w, err := os.Create(alacPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()

	// Encode samples.
	frameSizes, err := alac.Encode(w, alac.NewIntBufferReader(buf), opts)
	if err != nil {
		return errors.WithStack(err)
	}
	if verbose {
		var totalPCMFrames uint32
		for _, frameSize := range frameSizes {
			log.Printf("frame size : %d bytes, %d samples", frameSize.ByteSize, frameSize.PCMFrames)
			totalPCMFrames += frameSize.PCMFrames
		}
		log.Printf("%q: %d PCM frames in %d framesets", alacPath, totalPCMFrames, len(frameSizes))
	}
	return nil
}
