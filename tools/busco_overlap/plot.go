package busco_overlap

import (
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"molluscdb_ops/busco"
)

const (
	imagePixels = 1000
	imageDPI    = 80
)

// Points on the viridis colour map at 0, 0.5 and 0.8.
var (
	overlapColour     = color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 255}
	nonOverlap1Colour = color.RGBA{R: 0x21, G: 0x91, B: 0x8c, A: 255}
	nonOverlap2Colour = color.RGBA{R: 0x7a, G: 0xd1, B: 0x51, A: 255}
)

// segment draws one horizontal bar from x1 to x2 at height y.
func segment(p *plot.Plot, x1, x2, y float64, c color.Color) error {
	if x1 == x2 {
		return nil
	}
	line, err := plotter.NewLine(plotter.XYs{{X: x1, Y: y}, {X: x2, Y: y}})
	if err != nil {
		return err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)
	return nil
}

// OverlapPlot draws one row per overlap, the shared part centred on zero and
// the unshared parts of each gene to its left and right.
func OverlapPlot(overlaps []busco.Overlap) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "bp"
	p.Y.Tick.Marker = plot.ConstantTicks([]plot.Tick{})

	widest := 1
	for i, o := range overlaps {
		widest = max(widest, o.NonOverlap1, o.NonOverlap2)

		y := float64(i)
		half := float64(o.Length) / 2
		if err := segment(p, -half, half, y, overlapColour); err != nil {
			return nil, err
		}
		if err := segment(p, -half-float64(o.NonOverlap1), -half, y, nonOverlap1Colour); err != nil {
			return nil, err
		}
		if err := segment(p, half, half+float64(o.NonOverlap2), y, nonOverlap2Colour); err != nil {
			return nil, err
		}
	}

	p.X.Min, p.X.Max = -float64(widest), float64(widest)
	p.Y.Min, p.Y.Max = -1, float64(max(imagePixels, len(overlaps)))
	return p, nil
}

// SavePNG renders p as a square imagePixels PNG.
func SavePNG(p *plot.Plot, path string) error {
	side := vg.Length(imagePixels) / imageDPI * vg.Inch
	canvas := vgimg.NewWith(vgimg.UseWH(side, side), vgimg.UseDPI(imageDPI))
	p.Draw(draw.New(canvas))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
