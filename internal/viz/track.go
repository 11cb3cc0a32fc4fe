package viz

import (
	"math"

	"github.com/san-kum/wheelsim/internal/analysis"
)

// TrackMap keeps the recent driving line and draws it top-down, centered
// on the car with +z pointing up the screen.
type TrackMap struct {
	Points   []analysis.Point
	Capacity int
	// Scale is in canvas pixels per meter.
	Scale float64
}

func NewTrackMap(capacity int) *TrackMap {
	return &TrackMap{Points: make([]analysis.Point, 0, capacity), Capacity: capacity, Scale: 2}
}

// Add appends a ground position, dropping the oldest past Capacity.
func (t *TrackMap) Add(x, z float64) {
	t.Points = append(t.Points, analysis.Point{X: x, Y: z})
	if over := len(t.Points) - t.Capacity; t.Capacity > 0 && over > 0 {
		t.Points = t.Points[over:]
	}
}

func (t *TrackMap) Reset() { t.Points = t.Points[:0] }

func (t *TrackMap) ZoomIn()  { t.Scale = math.Min(40, t.Scale*1.5) }
func (t *TrackMap) ZoomOut() { t.Scale = math.Max(0.1, t.Scale/1.5) }

// Draw renders the line up to and including point upto (all points when
// negative) and an arrow for the car along heading, in degrees clockwise
// from +z.
func (t *TrackMap) Draw(c *Canvas, upto int, heading float64) {
	if len(t.Points) == 0 {
		return
	}
	if upto < 0 || upto >= len(t.Points) {
		upto = len(t.Points) - 1
	}
	center := t.Points[upto]
	cx, cy := c.PixelWidth()/2, c.PixelHeight()/2
	project := func(p analysis.Point) (int, int) {
		return cx + int(math.Round((p.X-center.X)*t.Scale)), cy - int(math.Round((p.Y-center.Y)*t.Scale))
	}

	// a dot every 10 m so straight-line motion is visible
	spacing := 10.0
	for gx := math.Floor((center.X-float64(cx)/t.Scale)/spacing) * spacing; gx <= center.X+float64(cx)/t.Scale; gx += spacing {
		for gz := math.Floor((center.Y-float64(cy)/t.Scale)/spacing) * spacing; gz <= center.Y+float64(cy)/t.Scale; gz += spacing {
			c.Set(project(analysis.Point{X: gx, Y: gz}))
		}
	}

	x0, y0 := project(t.Points[0])
	for _, p := range t.Points[1 : upto+1] {
		x1, y1 := project(p)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}

	h := heading * math.Pi / 180
	length := 6.0
	tipX := cx + int(math.Round(math.Sin(h)*length))
	tipY := cy - int(math.Round(math.Cos(h)*length))
	c.DrawLine(cx, cy, tipX, tipY)
	for _, barb := range []float64{math.Pi - 0.5, math.Pi + 0.5} {
		bx := tipX + int(math.Round(math.Sin(h+barb)*3))
		by := tipY - int(math.Round(math.Cos(h+barb)*3))
		c.DrawLine(tipX, tipY, bx, by)
	}
}
