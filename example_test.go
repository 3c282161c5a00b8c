package alac_test

import (
	"fmt"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/mewkiz/alac"
)

func ExampleEncode() {
	// Encode one block of silent 16-bit stereo PCM to an mdat stream.
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  44100,
		},
		Data:           make([]int, 2*4096),
		SourceBitDepth: 16,
	}
	f, err := os.CreateTemp("", "silence-*.alac")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	frameSizes, err := alac.Encode(f, alac.NewIntBufferReader(buf), alac.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}
	for _, frameSize := range frameSizes {
		fmt.Printf("%d PCM frames\n", frameSize.PCMFrames)
	}
	// Output:
	// 4096 PCM frames
}
