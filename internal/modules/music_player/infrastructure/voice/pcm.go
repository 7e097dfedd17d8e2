package voice

import (
	"encoding/binary"
	"math"
)

const (
	sampleRate   = 48000
	channels     = 2
	frameSize    = 960 // 20ms at 48kHz
	frameBytes   = frameSize * channels * 2
	maxOpusBytes = frameBytes
)

// scalePCM decodes little-endian s16 samples from src into dst at the given
// linear volume, clipping at the sample range.
func scalePCM(dst []int16, src []byte, volume float64) {
	for i := range dst {
		sample := int16(binary.LittleEndian.Uint16(src[i*2 : i*2+2]))
		if volume == 1 {
			dst[i] = sample
			continue
		}
		dst[i] = clampSample(math.Round(float64(sample) * volume))
	}
}

func clampSample(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
