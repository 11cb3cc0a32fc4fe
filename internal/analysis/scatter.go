package analysis

import (
	"strings"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// Scatter pairs two telemetry columns row by row.
type Scatter struct {
	XIndex, YIndex int
	Points         []Point
}

// NewScatter collects every recorded row of result. It returns nil when a
// column is out of range.
func NewScatter(result *dynamo.Result, xIdx, yIdx int) *Scatter {
	if result == nil || len(result.Telemetry) == 0 {
		return nil
	}
	if xIdx >= len(result.Telemetry[0]) || yIdx >= len(result.Telemetry[0]) {
		return nil
	}

	s := &Scatter{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, len(result.Telemetry)),
	}
	for _, row := range result.Telemetry {
		s.Points = append(s.Points, Point{X: row[xIdx], Y: row[yIdx]})
	}
	return s
}

// NewSection samples the two columns only on rows where the cross column
// passes threshold going up, like a stroboscope. Over a slalom this picks
// one point per steering period.
func NewSection(result *dynamo.Result, crossIdx int, threshold float64, xIdx, yIdx int) *Scatter {
	if result == nil || len(result.Telemetry) == 0 {
		return nil
	}
	width := len(result.Telemetry[0])
	if crossIdx >= width || xIdx >= width || yIdx >= width {
		return nil
	}

	s := &Scatter{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0)}
	prev := result.Telemetry[0][crossIdx]
	for _, row := range result.Telemetry[1:] {
		curr := row[crossIdx]
		if prev < threshold && curr >= threshold {
			s.Points = append(s.Points, Point{X: row[xIdx], Y: row[yIdx]})
		}
		prev = curr
	}
	return s
}

// ASCII draws the points on a width by height character canvas with the
// axes through zero when they are in view.
func (s *Scatter) ASCII(width, height int) string {
	if s == nil || len(s.Points) == 0 {
		return "no points"
	}

	minX, maxX := s.Points[0].X, s.Points[0].X
	minY, maxY := s.Points[0].Y, s.Points[0].Y
	for _, p := range s.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range s.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int(-minX / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int(-minY/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
