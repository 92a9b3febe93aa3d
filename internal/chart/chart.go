package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/jgoulah/energyplot/internal/join"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 800

	// At 72 DPI one point is one pixel, so sizes below are exact pixel sizes
	dpi = 72
)

// ErrNoData is returned when a chart has nothing to plot
var ErrNoData = errors.New("no data to plot")

// Renderer writes PNG charts into Dir
type Renderer struct {
	Dir    string
	Width  int
	Height int
}

// NewRenderer creates a renderer with the default 1000x800 size
func NewRenderer(dir string) *Renderer {
	return &Renderer{Dir: dir, Width: DefaultWidth, Height: DefaultHeight}
}

// Series is one labelled set of points
type Series struct {
	Label  string
	Points []join.XY
}

// Axes holds the labels and optional fixed y range of a chart
type Axes struct {
	Title  string
	XLabel string
	YLabel string
	YMin   float64
	YMax   float64 // Fixed range when YMax > YMin
}

// BarGroup is one set of bars, one value per nominal x label
type BarGroup struct {
	Label  string
	Values []float64
}

// TimeSeries renders points whose X is unix seconds as a dated scatter
func (r *Renderer) TimeSeries(name string, axes Axes, series ...Series) (string, error) {
	p, err := r.scatterPlot(axes, series)
	if err != nil {
		return "", fmt.Errorf("chart %s: %w", name, err)
	}
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	return r.save(name, p)
}

// Scatter renders one or more point series. A legend is drawn when
// there is more than one.
func (r *Renderer) Scatter(name string, axes Axes, series ...Series) (string, error) {
	p, err := r.scatterPlot(axes, series)
	if err != nil {
		return "", fmt.Errorf("chart %s: %w", name, err)
	}
	return r.save(name, p)
}

// Bars renders grouped bars over nominal x labels
func (r *Renderer) Bars(name string, axes Axes, labels []string, groups ...BarGroup) (string, error) {
	if len(groups) == 0 || len(labels) == 0 {
		return "", fmt.Errorf("chart %s: %w", name, ErrNoData)
	}

	p := newPlot(axes)

	width := vg.Points(float64(r.width()) / float64(len(labels)*(len(groups)+1)))
	for i, g := range groups {
		bars, err := plotter.NewBarChart(plotter.Values(g.Values), width)
		if err != nil {
			return "", fmt.Errorf("chart %s: building bars: %w", name, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(float64(i)-float64(len(groups)-1)/2)
		p.Add(bars)
		if len(groups) > 1 {
			p.Legend.Add(g.Label, bars)
		}
	}
	p.NominalX(labels...)
	p.Legend.Top = true
	applyRange(p, axes)

	return r.save(name, p)
}

func (r *Renderer) scatterPlot(axes Axes, series []Series) (*plot.Plot, error) {
	total := 0
	for _, s := range series {
		total += len(s.Points)
	}
	if total == 0 {
		return nil, ErrNoData
	}

	p := newPlot(axes)
	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(toXYs(s.Points))
		if err != nil {
			return nil, fmt.Errorf("building scatter %q: %w", s.Label, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
		if len(series) > 1 {
			p.Legend.Add(s.Label, sc)
		}
	}
	p.Legend.Top = true
	applyRange(p, axes)

	return p, nil
}

func newPlot(axes Axes) *plot.Plot {
	p := plot.New()
	p.Title.Text = axes.Title
	p.X.Label.Text = axes.XLabel
	p.Y.Label.Text = axes.YLabel
	p.Add(plotter.NewGrid())
	return p
}

// applyRange must run after every plotter is added, since Add widens the axes
func applyRange(p *plot.Plot, axes Axes) {
	if axes.YMax > axes.YMin {
		p.Y.Min = axes.YMin
		p.Y.Max = axes.YMax
	}
}

func toXYs(pts []join.XY) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X = pt.X
		xys[i].Y = pt.Y
	}
	return xys
}

func (r *Renderer) width() int {
	if r.Width <= 0 {
		return DefaultWidth
	}
	return r.Width
}

func (r *Renderer) height() int {
	if r.Height <= 0 {
		return DefaultHeight
	}
	return r.Height
}

// save draws p onto an exact-size canvas and writes {Dir}/{name}.png
func (r *Renderer) save(name string, p *plot.Plot) (string, error) {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Points(float64(r.width())), vg.Points(float64(r.height()))),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(img))

	path := filepath.Join(r.Dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("chart written")
	return path, nil
}
