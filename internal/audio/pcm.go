package audio

import "math"

// EstimateDurationMS approximates the playback duration of raw PCM bytes,
// rounded to 2 decimal places. Zero-valued formats estimate to 0.
func EstimateDurationMS(byteLen, sampleRate, channels, bitsPerSample int) float64 {
	bytesPerSample := channels * (bitsPerSample / 8)
	if bytesPerSample == 0 || sampleRate == 0 {
		return 0
	}
	samples := float64(byteLen) / float64(bytesPerSample)
	seconds := samples / float64(sampleRate)
	return math.Round(seconds*1000.0*100) / 100
}
