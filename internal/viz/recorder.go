package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

var ErrNoFrames = errors.New("viz: no frames recorded")

// Recorder rasterizes canvas frames into a looping GIF. Each braille dot
// becomes a DotW x DotH block.
type Recorder struct {
	DotW, DotH int
	// Delay between frames in hundredths of a second.
	Delay   int
	Palette color.Palette
	frames  []*image.Paletted
}

func NewRecorder() *Recorder {
	return &Recorder{
		DotW:    4,
		DotH:    4,
		Delay:   3,
		Palette: color.Palette{color.Black, color.White},
	}
}

// Capture appends the current contents of c as a frame.
func (r *Recorder) Capture(c *Canvas) {
	img := image.NewPaletted(image.Rect(0, 0, c.PixelWidth()*r.DotW, c.PixelHeight()*r.DotH), r.Palette)
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < r.DotH; py++ {
				for px := 0; px < r.DotW; px++ {
					img.SetColorIndex(x*r.DotW+px, y*r.DotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Reset() { r.frames = r.frames[:0] }

// Save encodes the recorded frames to path.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.Delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return fmt.Errorf("encode gif: %w", err)
	}
	return f.Close()
}
