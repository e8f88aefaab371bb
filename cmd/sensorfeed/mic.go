package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"sensorbridge/internal/sensor"
	"sensorbridge/pkg/utils"
)

// micSource captures live audio from the default input device and emits
// it chunk by chunk until stopped.
func micSource(stop <-chan struct{}, samples int) (<-chan payload, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	readBuf := make([]int16, samples)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(readBuf), &readBuf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start capture stream: %w", err)
	}

	out := make(chan payload)
	go func() {
		defer close(out)
		defer func() {
			stream.Stop()
			stream.Close()
			portaudio.Terminate()
		}()

		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := stream.Read(); err != nil {
				return
			}
			select {
			case <-stop:
				return
			case out <- payload{dataType: sensor.DataTypeAudio, data: utils.SamplesToBytes(readBuf)}:
			}
		}
	}()
	return out, nil
}
