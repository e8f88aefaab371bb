// Package utils provides small audio sample helpers shared by the
// traffic generator.
package utils

import "encoding/binary"

// ResampleAudio resamples audio from one sample rate to another using
// linear interpolation. Simple but effective for speech-band audio.
func ResampleAudio(input []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(input) == 0 {
		return input
	}

	ratio := float64(fromRate) / float64(toRate)
	outputLength := int(float64(len(input)) / ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)

		if srcIdx >= len(input)-1 {
			output[i] = input[len(input)-1]
			continue
		}

		// Linear interpolation between the two neighboring samples.
		fraction := srcPos - float64(srcIdx)
		sample1 := float64(input[srcIdx])
		sample2 := float64(input[srcIdx+1])
		output[i] = int16(sample1 + (sample2-sample1)*fraction)
	}

	return output
}

// SamplesToBytes encodes samples as consecutive little-endian 16-bit
// values, the payload layout of audio sensor packets.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToSamples decodes consecutive little-endian 16-bit values. A
// trailing odd byte is ignored.
func BytesToSamples(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}
