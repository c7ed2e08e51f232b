package analysis

import (
	"context"
	"fmt"

	"wavescope/internal/fft"
)

const reconstructLogEvery = 10

// Reconstruct replaces every channel of the interleaved samples with its
// round trip through the transform, processed in windows of n frames. The
// last window is zero padded. It lets the inverse path be heard: the output
// should be indistinguishable from the input.
func Reconstruct(ctx context.Context, samples []float32, channels, n int, kind fft.Kind) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	t, err := fft.New(kind, n)
	if err != nil {
		return err
	}

	frames := len(samples) / channels
	chunks := (frames + n - 1) / n
	in := make([]float64, n)
	out := make([]float64, n)
	re := make([]float64, n)
	im := make([]float64, n)

	logger.Infof("Reconstructing %d frames x %d channels in %d chunks of %d", frames, channels, chunks, n)
	for c := range channels {
		for chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := chunk * n
			count := min(n, frames-start)
			for i := range count {
				in[i] = float64(samples[(start+i)*channels+c])
			}
			clear(in[count:])

			t.Forward(re, im, in)
			t.Inverse(out, re, im)

			for i := range count {
				samples[(start+i)*channels+c] = float32(out[i])
			}
			if (chunk+1)%reconstructLogEvery == 0 {
				logger.Debugf("channel %d: %d/%d chunks", c, chunk+1, chunks)
			}
		}
		logger.Infof("Channel %d of %d reconstructed", c+1, channels)
	}
	return nil
}
