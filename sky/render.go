package sky

import (
	"math"

	"github.com/hammal/gridless/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// RenderOptions configures Render.
type RenderOptions struct {
	Title string
	// Size is the width and height of the image, 6 inches when zero.
	Size vg.Length
	// Colors is the number of palette steps, 256 when zero.
	Colors int
}

// Render draws the amplitudes of the pixels above the horizon in the (l, m)
// plane. The format follows the file extension of path (png, svg, pdf, eps).
func Render(s Sphere, path string, opts RenderOptions) error {
	if opts.Size == 0 {
		opts.Size = 6 * vg.Inch
	}
	if opts.Colors <= 0 {
		opts.Colors = 256
	}

	var (
		pts    plotter.XYs
		values []float64
		l, m   = s.L(), s.M()
		n      = s.N()
		pixels = s.Pixels()
	)
	for index := range pixels {
		if n[index] <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: l[index], Y: m[index]})
		values = append(values, pixels[index])
	}
	if len(pts) == 0 {
		return errors.Wrap(errors.ErrInvalidParameter, "no pixels above the horizon to render")
	}

	colors := palette.Heat(opts.Colors, 1).Colors()
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	radius := vg.Length(math.Max(1, float64(opts.Size)/(2*math.Sqrt(float64(len(pts))))))

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "scatter")
	}
	scatter.GlyphStyleFunc = func(index int) draw.GlyphStyle {
		k := 0
		if span > 0 {
			k = int((values[index] - lo) / span * float64(len(colors)-1))
		}
		return draw.GlyphStyle{Color: colors[k], Radius: radius, Shape: draw.CircleGlyph{}}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "l"
	p.Y.Label.Text = "m"
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1
	p.Add(scatter)

	if err := p.Save(opts.Size, opts.Size, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
