// SPDX-License-Identifier: MIT
/*
Package window is the desktop front-end. Each ebiten update ticks the
analysis loop once; each draw plots the current frame as three curves
across a window N pixels wide: the wave in white, the log magnitude in red
and, when enabled, the reconstruction in green. A value v is drawn at
y = height/2 - v*height/4.

When playback ends the windows left in the ring are analysed once; the
window then stays open on the last frame until the user closes it.
*/
package window

import (
	"errors"
	"fmt"
	"image/color"

	"wavescope/internal/analysis"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	waveColor           = color.White
	magnitudeColor      = color.RGBA{R: 0xe6, G: 0x29, B: 0x37, A: 0xff}
	reconstructionColor = color.RGBA{R: 0x00, G: 0xe4, B: 0x30, A: 0xff}
)

// Swapped in tests, which run without a window.
var isWindowBeingClosed = ebiten.IsWindowBeingClosed

// Game implements ebiten.Game over an analysis loop.
type Game struct {
	title  string
	loop   *analysis.Loop
	source analysis.Source
	height int

	seenActive bool
	drained    bool
}

func NewGame(title string, loop *analysis.Loop, source analysis.Source, height int) *Game {
	return &Game{title: title, loop: loop, source: source, height: height}
}

func (g *Game) Update() error {
	if isWindowBeingClosed() {
		return ebiten.Termination
	}
	active := g.source.Active()
	g.loop.Tick(active)
	switch {
	case active:
		g.seenActive = true
	case g.seenActive && !g.drained:
		g.loop.Drain()
		g.drained = true
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	f := g.loop.Frame()
	g.plot(screen, f.Wave, waveColor)
	g.plot(screen, f.Magnitude, magnitudeColor)
	if f.Reconstruction != nil {
		g.plot(screen, f.Reconstruction, reconstructionColor)
	}

	s := g.loop.Stats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s\nwindow #%d  underruns %d  dropped %d",
		g.title, f.Seq, s.Underruns, s.Dropped))
}

// plot joins consecutive values with one-pixel lines, one pixel per sample.
func (g *Game) plot(screen *ebiten.Image, values []float64, clr color.Color) {
	for i := 1; i < len(values); i++ {
		vector.StrokeLine(screen,
			float32(i-1), plotY(values[i-1], g.height),
			float32(i), plotY(values[i], g.height),
			1, clr, false)
	}
}

// Layout fixes the logical screen at one pixel per sample.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return max(g.loop.Frame().Size(), 1), g.height
}

func plotY(v float64, height int) float32 {
	h := float64(height)
	return float32(h/2 - v*h/4)
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, tickRate int) error {
	ebiten.SetWindowSize(max(g.loop.Frame().Size(), 1), g.height)
	ebiten.SetWindowTitle(g.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetTPS(tickRate)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}
