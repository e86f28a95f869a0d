package audioio

// Resample converts interleaved PCM16 between sample rates with linear
// interpolation, channel by channel. Good enough for driving a visualiser
// and for speech playback.
func Resample(samples []int16, channels, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}
	if channels <= 0 {
		channels = 1
	}

	frames := len(samples) / channels
	outFrames := int(int64(frames) * int64(toRate) / int64(fromRate))
	if outFrames == 0 {
		return []int16{}
	}

	ratio := float64(fromRate) / float64(toRate)
	out := make([]int16, outFrames*channels)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		for ch := 0; ch < channels; ch++ {
			a := float64(samples[idx*channels+ch])
			if idx+1 >= frames {
				out[i*channels+ch] = int16(a)
				continue
			}
			b := float64(samples[(idx+1)*channels+ch])
			out[i*channels+ch] = int16(a + frac*(b-a))
		}
	}
	return out
}

// Downmix averages interleaved channels into mono.
func Downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	mono := make([]int16, len(samples)/channels)
	for i := range mono {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels))
	}
	return mono
}

// Upmix copies mono samples into every one of channels.
func Upmix(mono []int16, channels int) []int16 {
	if channels <= 1 {
		return mono
	}
	out := make([]int16, len(mono)*channels)
	for i, s := range mono {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = s
		}
	}
	return out
}

// Convert adapts a chunk to the given rate and channel count.
func Convert(c AudioChunk, sampleRate, channels int) AudioChunk {
	samples := c.Samples
	switch {
	case c.Channels == channels:
	case channels == 1:
		samples = Downmix(samples, c.Channels)
	case c.Channels == 1:
		samples = Upmix(samples, channels)
	default:
		samples = Upmix(Downmix(samples, c.Channels), channels)
	}
	samples = Resample(samples, channels, c.SampleRate, sampleRate)
	return AudioChunk{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// BytesToSamples converts PCM16 little-endian bytes to samples.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes converts samples to PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}
