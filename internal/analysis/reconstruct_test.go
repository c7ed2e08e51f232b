package analysis

import (
	"context"
	"errors"
	"testing"

	"wavescope/internal/fft"
	"wavescope/pkg/utils"
)

func TestReconstructRoundTrip(t *testing.T) {
	for _, kind := range []fft.Kind{fft.KindFFT, fft.KindDFT} {
		t.Run(string(kind), func(t *testing.T) {
			// 300 frames is not a multiple of the window, so the tail is padded.
			left := utils.SineSamples(300, testSampleRate, 440, 0.8)
			right := utils.SineSamples(300, testSampleRate, 1000, 0.3)
			samples := utils.Interleave(left, right)
			orig := append([]float32(nil), samples...)

			if err := Reconstruct(context.Background(), samples, 2, testWindow, kind); err != nil {
				t.Fatalf("Reconstruct: %v", err)
			}
			for i := range samples {
				if diff := samples[i] - orig[i]; diff > 1e-5 || diff < -1e-5 {
					t.Fatalf("sample %d = %v, want %v", i, samples[i], orig[i])
				}
			}
		})
	}
}

func TestReconstructErrors(t *testing.T) {
	samples := make([]float32, 128)
	if err := Reconstruct(context.Background(), samples, 0, testWindow, fft.KindFFT); err == nil {
		t.Error("expected error for zero channels")
	}
	if err := Reconstruct(context.Background(), samples, 1, 48, fft.KindFFT); !errors.Is(err, fft.ErrSize) {
		t.Errorf("error = %v, want fft.ErrSize", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Reconstruct(ctx, samples, 1, testWindow, fft.KindFFT); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
