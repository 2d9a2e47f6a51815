package waveform

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Plotter renders a Waveform's envelope to a PNG for calibration review.
// It is debug/test tooling, not part of the compile path — the shape and
// defaults mirror the teacher's image.RGBA + font.Drawer rendering in
// internal/qrender/qrender.go, retargeted from circuit diagrams to
// envelope traces.
type Plotter struct {
	Width  int
	Height int
	Margin int
}

// NewPlotter returns a Plotter with the teacher's default canvas sizing.
func NewPlotter() *Plotter {
	return &Plotter{Width: 600, Height: 300, Margin: 20}
}

// Render samples w at 1ns resolution and draws it as a white-background,
// black-trace line plot with an axis label.
func (p *Plotter) Render(w Waveform, label string) *image.RGBA {
	samples := w.Envelope(1)
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	plotW := p.Width - 2*p.Margin
	plotH := p.Height - 2*p.Margin
	if len(samples) == 0 || plotW <= 0 || plotH <= 0 {
		return img
	}

	peak := peakAbs(samples)
	if peak == 0 {
		peak = 1
	}
	midY := p.Margin + plotH/2

	prevX, prevY := p.Margin, midY
	for i, s := range samples {
		x := p.Margin + i*plotW/len(samples)
		y := midY - int(s/peak*float64(plotH/2))
		p.drawLine(img, image.Pt(prevX, prevY), image.Pt(x, y), color.Black)
		prevX, prevY = x, y
	}
	p.drawText(img, image.Pt(p.Margin, p.Margin-5), color.Black, label)
	return img
}

// Save renders w and writes it to path as a PNG.
func (p *Plotter) Save(w Waveform, label, path string) error {
	img := p.Render(w, label)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("waveform: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("waveform: encode %s: %w", path, err)
	}
	return nil
}

func (p *Plotter) drawLine(img *image.RGBA, start, end image.Point, col color.Color) {
	dx := end.X - start.X
	dy := end.Y - start.Y
	steps := dx
	if dy > steps {
		steps = dy
	}
	if -dy > steps {
		steps = -dy
	}
	if steps == 0 {
		img.Set(start.X, start.Y, col)
		return
	}
	for i := 0; i <= steps; i++ {
		x := start.X + dx*i/steps
		y := start.Y + dy*i/steps
		img.Set(x, y, col)
	}
}

func (p *Plotter) drawText(img *image.RGBA, pt image.Point, col color.Color, txt string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(txt)
}
