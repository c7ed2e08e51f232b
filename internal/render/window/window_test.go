package window

import (
	"errors"
	"testing"

	"wavescope/internal/analysis"
	"wavescope/internal/fft"
	"wavescope/internal/ring"

	"github.com/hajimehoshi/ebiten/v2"
)

const testWindow = 32

type stubSource struct{ active bool }

func (s *stubSource) Active() bool { return s.active }

func newTestGame(t *testing.T, active bool) (*Game, *ring.Ring) {
	t.Helper()
	orig := isWindowBeingClosed
	t.Cleanup(func() { isWindowBeingClosed = orig })
	isWindowBeingClosed = func() bool { return false }

	r, err := ring.New(2 * testWindow)
	if err != nil {
		t.Fatal(err)
	}
	loop, err := analysis.NewLoop(r, analysis.Options{WindowSize: testWindow, Transform: fft.KindDFT, SampleRate: 8000})
	if err != nil {
		t.Fatal(err)
	}
	return NewGame("test", loop, &stubSource{active: active}, 400), r
}

func TestUpdateTicksLoop(t *testing.T) {
	g, r := newTestGame(t, true)
	r.Write(make([]float32, testWindow))

	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if g.loop.Frame().Seq != 1 {
		t.Errorf("Seq = %d, want 1", g.loop.Frame().Seq)
	}
	// Nothing left: the next update keeps the frame.
	g.Update()
	if g.loop.Frame().Seq != 1 || g.loop.Stats().Underruns != 1 {
		t.Errorf("stats = %+v", g.loop.Stats())
	}
}

func TestUpdateSkipsWhenInactive(t *testing.T) {
	g, r := newTestGame(t, false)
	r.Write(make([]float32, testWindow))
	g.Update()
	if g.loop.Frame().Seq != 0 || r.Available() != testWindow {
		t.Error("inactive source must not be analysed")
	}
}

func TestUpdateDrainsOnceWhenPlaybackEnds(t *testing.T) {
	g, r := newTestGame(t, true)
	g.Update()

	r.Write(make([]float32, 2*testWindow))
	g.source.(*stubSource).active = false
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if g.loop.Frame().Seq != 2 || r.Available() != 0 {
		t.Errorf("Seq = %d with %d samples left, want both windows drained", g.loop.Frame().Seq, r.Available())
	}

	r.Write(make([]float32, testWindow))
	g.Update()
	if g.loop.Frame().Seq != 2 {
		t.Error("drain should run only once")
	}
}

func TestUpdateTerminatesOnClose(t *testing.T) {
	g, _ := newTestGame(t, true)
	isWindowBeingClosed = func() bool { return true }
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Update error = %v, want ebiten.Termination", err)
	}
}

func TestLayout(t *testing.T) {
	g, _ := newTestGame(t, true)
	w, h := g.Layout(1920, 1080)
	if w != testWindow || h != 400 {
		t.Errorf("Layout = %dx%d, want %dx400", w, h, testWindow)
	}
}

func TestPlotY(t *testing.T) {
	tests := []struct {
		v    float64
		want float32
	}{
		{0, 200},
		{1, 100},
		{-1, 300},
		{2, 0},
	}
	for _, tt := range tests {
		if got := plotY(tt.v, 400); got != tt.want {
			t.Errorf("plotY(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
