package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"sensorbridge/internal/sensor"
	"sensorbridge/pkg/utils"
)

// wavSource decodes a 16-bit PCM WAV file, resamples it to the wire
// sample rate if needed, and emits it chunk by chunk. The channel closes
// at end of file.
func wavSource(stop <-chan struct{}, path string, samples int) (<-chan payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := wav.NewDecoder(f)
	var pcm *audio.IntBuffer
	pcm, err = d.FullPCMBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	f.Close()

	if d.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported wav bit depth %d (want 16)", d.BitDepth)
	}

	all := make([]int16, len(pcm.Data))
	for i, v := range pcm.Data {
		all[i] = int16(v)
	}
	if int(d.SampleRate) != sampleRate {
		all = utils.ResampleAudio(all, int(d.SampleRate), sampleRate)
	}

	out := make(chan payload)
	go func() {
		defer close(out)
		for off := 0; off < len(all); off += samples {
			end := off + samples
			if end > len(all) {
				end = len(all)
			}
			select {
			case <-stop:
				return
			case out <- payload{dataType: sensor.DataTypeAudio, data: utils.SamplesToBytes(all[off:end])}:
			}
		}
	}()
	return out, nil
}
