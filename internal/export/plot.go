package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

var (
	ErrNoData        = errors.New("export: no data to plot")
	ErrUnknownColumn = errors.New("export: unknown column")
	ErrFormat        = errors.New("export: unsupported format")
)

// Series is one line of a Chart.
type Series struct {
	Label string
	X, Y  []float64
}

type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
	// Width and Height are in inches.
	Width  float64
	Height float64
	DPI    int
}

func NewChart(title, xlabel, ylabel string) *Chart {
	return &Chart{Title: title, XLabel: xlabel, YLabel: ylabel, Width: 8, Height: 5, DPI: 150}
}

func (c *Chart) Add(label string, x, y []float64) {
	c.Series = append(c.Series, Series{Label: label, X: x, Y: y})
}

// TimeChart plots the named telemetry columns of result against time.
// columns holds every column name of the run in telemetry order.
func TimeChart(result *dynamo.Result, columns []string, names ...string) (*Chart, error) {
	if result == nil || len(result.Times) == 0 {
		return nil, ErrNoData
	}
	c := NewChart(strings.Join(names, ", "), "time (s)", "")
	if len(names) == 1 {
		c.YLabel = names[0]
	}
	for _, name := range names {
		idx := indexOf(columns, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		c.Add(name, result.Times, result.Column(idx))
	}
	return c, nil
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (c *Chart) plot() (*plot.Plot, error) {
	if len(c.Series) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	stylePlot(p)
	p.Add(plotter.NewGrid())

	for i, s := range c.Series {
		n := min(len(s.X), len(s.Y))
		pts := make(plotter.XYs, 0, n)
		for j := 0; j < n; j++ {
			if math.IsNaN(s.Y[j]) || math.IsInf(s.Y[j], 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: s.X[j], Y: s.Y[j]})
		}
		if len(pts) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoData, s.Label)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if len(c.Series) > 1 {
			p.Legend.Add(s.Label, line)
		}
	}
	p.Legend.Top = true
	return p, nil
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.X.Padding = vg.Points(6)
	p.Y.Padding = vg.Points(6)
	p.BackgroundColor = color.White
}

// Save renders the chart to path. The extension picks the format: .png,
// .svg or .pdf.
func (c *Chart) Save(path string) error {
	p, err := c.plot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: cannot create directory: %w", err)
	}
	w := vg.Length(c.Width) * vg.Inch
	h := vg.Length(c.Height) * vg.Inch

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return savePNG(p, w, h, c.DPI, path)
	case ".svg", ".pdf":
		wt, err := p.WriterTo(w, h, ext[1:])
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = wt.WriteTo(f)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrFormat, ext)
	}
}

func savePNG(p *plot.Plot, w, h vg.Length, dpi int, path string) error {
	if dpi <= 0 {
		dpi = vgimg.DefaultDPI
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("export: cannot write png: %w", err)
	}
	return bw.Flush()
}
