package audio

import "math"

// ITU-R BS.1770-4 gating constants.
const (
	blockSeconds   = 0.4
	blockOverlap   = 0.75
	absoluteGate   = -70.0
	relativeGate   = -10.0
	loudnessOffset = -0.691
)

// channelWeights are the BS.1770 weights for L, R, C, Ls, Rs.
var channelWeights = []float64{1, 1, 1, 1.41, 1.41}

// IntegratedLoudness measures the gated integrated loudness of b in LUFS.
// Silence measures -Inf. Signals shorter than one gating block are
// measured as a single block.
func IntegratedLoudness(b *Buffer) (float64, error) {
	frames := b.Frames()
	if frames == 0 || b.SampleRate <= 0 {
		return 0, ErrEmpty
	}

	weighted := kWeight(b)

	blockLen := int(math.Round(blockSeconds * float64(b.SampleRate)))
	step := int(math.Round(blockSeconds * (1 - blockOverlap) * float64(b.SampleRate)))
	if step < 1 {
		step = 1
	}
	if blockLen > frames {
		blockLen = frames
	}
	numBlocks := (frames-blockLen)/step + 1

	// z[j][c] is the mean square of channel c in block j.
	z := make([][]float64, numBlocks)
	for j := range z {
		z[j] = make([]float64, b.Channels)
		lo := j * step
		for c := 0; c < b.Channels; c++ {
			var sum float64
			for _, y := range weighted[c][lo : lo+blockLen] {
				sum += y * y
			}
			z[j][c] = sum / float64(blockLen)
		}
	}

	blockLoudness := func(ms []float64) float64 {
		var sum float64
		for c, v := range ms {
			sum += channelWeight(c) * v
		}
		if sum <= 0 {
			return math.Inf(-1)
		}
		return loudnessOffset + 10*math.Log10(sum)
	}

	loudness := make([]float64, numBlocks)
	for j := range z {
		loudness[j] = blockLoudness(z[j])
	}

	// Gated mean of the blocks passing threshold.
	gated := func(threshold float64) ([]float64, bool) {
		mean := make([]float64, b.Channels)
		n := 0
		for j, l := range loudness {
			if l <= threshold {
				continue
			}
			n++
			for c := range mean {
				mean[c] += z[j][c]
			}
		}
		if n == 0 {
			return nil, false
		}
		for c := range mean {
			mean[c] /= float64(n)
		}
		return mean, true
	}

	absMean, ok := gated(absoluteGate)
	if !ok {
		return math.Inf(-1), nil
	}
	relThreshold := blockLoudness(absMean) + relativeGate

	mean, ok := gated(math.Max(absoluteGate, relThreshold))
	if !ok {
		return math.Inf(-1), nil
	}
	return blockLoudness(mean), nil
}

func channelWeight(c int) float64 {
	if c < len(channelWeights) {
		return channelWeights[c]
	}
	return 1
}

// kWeight applies the BS.1770 pre-filter (high shelf) and RLB filter
// (high pass) to each channel and returns de-interleaved output.
func kWeight(b *Buffer) [][]float64 {
	rate := float64(b.SampleRate)
	shelf := highShelf(4.0, 1/math.Sqrt2, 1500, rate)
	pass := highPass(0.5, 38, rate)

	frames := b.Frames()
	out := make([][]float64, b.Channels)
	for c := range out {
		ch := make([]float64, frames)
		for i := range ch {
			ch[i] = b.Samples[i*b.Channels+c]
		}
		shelf.reset()
		shelf.apply(ch)
		pass.reset()
		pass.apply(ch)
		out[c] = ch
	}
	return out
}

// biquad is a direct form I second-order IIR filter with normalized
// coefficients.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

func (f *biquad) apply(samples []float64) {
	for i, x := range samples {
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		samples[i] = y
	}
}

func newBiquad(b0, b1, b2, a0, a1, a2 float64) *biquad {
	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func highShelf(gainDB, q, fc, rate float64) *biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / rate
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)
	sqrtA := math.Sqrt(a)

	return newBiquad(
		a*((a+1)+(a-1)*cos+2*sqrtA*alpha),
		-2*a*((a-1)+(a+1)*cos),
		a*((a+1)+(a-1)*cos-2*sqrtA*alpha),
		(a+1)-(a-1)*cos+2*sqrtA*alpha,
		2*((a-1)-(a+1)*cos),
		(a+1)-(a-1)*cos-2*sqrtA*alpha,
	)
}

func highPass(q, fc, rate float64) *biquad {
	w0 := 2 * math.Pi * fc / rate
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)

	return newBiquad(
		(1+cos)/2,
		-(1 + cos),
		(1+cos)/2,
		1+alpha,
		-2*cos,
		1-alpha,
	)
}
