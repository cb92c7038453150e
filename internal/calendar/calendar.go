// Package calendar draws the frames served to e-ink calendar devices: the
// date, the weekday, the day's weather and the device's battery level on a
// white page, thresholded to black and white and packed one bit per pixel.
package calendar

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"tomgalvin.uk/calview/internal/bitmap"
	"tomgalvin.uk/calview/internal/weather"
)

// Pixels with a luma below this become black.
const threshold = 127

type Info struct {
	Now     time.Time
	Battery uint8
	// Weather is nil when it couldn't be fetched; the weather block is left out.
	Weather *weather.Weather
}

type Renderer struct {
	width, height int
	fonts         *fonts
}

func NewRenderer(width int, height int) (*Renderer, error) {
	if width <= 0 || width%8 != 0 {
		return nil, fmt.Errorf("Frame width must be a positive multiple of 8, got %d", width)
	}
	if height <= 0 {
		return nil, fmt.Errorf("Frame height must be positive, got %d", height)
	}
	f, err := parseFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{width: width, height: height, fonts: f}, nil
}

func (r *Renderer) Width() int {
	return r.width
}

func (r *Renderer) Height() int {
	return r.height
}

func (r *Renderer) RowWidthBytes() int {
	return r.width / 8
}

// Frame draws the page and packs it into the wire format, RowWidthBytes()
// bytes per row.
func (r *Renderer) Frame(info Info) ([]byte, error) {
	img, err := r.Draw(info)
	if err != nil {
		return nil, err
	}
	return bitmap.Pack(bitmap.Threshold(img, threshold)).Data(), nil
}

func (r *Renderer) Draw(info Info) (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	small, err := newFace(r.fonts.mono, max(r.height/14, 8))
	if err != nil {
		return nil, err
	}
	defer small.Close()
	medium, err := newFace(r.fonts.regular, max(r.height/10, 10))
	if err != nil {
		return nil, err
	}
	defer medium.Close()
	large, err := newFace(r.fonts.regular, max(r.height/3, 16))
	if err != nil {
		return nil, err
	}
	defer large.Close()

	margin := max(r.width/25, 2)

	// header: month on the left, battery on the right, rule underneath
	y := margin
	drawString(img, small, info.Now.Format("2006-01"), margin, y)
	lineHeight := small.Metrics().Height.Ceil()
	batteryHeight := max(lineHeight*2/3, 4)
	drawBattery(img, image.Rect(r.width-margin-batteryHeight*2, y, r.width-margin, y+batteryHeight), info.Battery)
	y += lineHeight + margin/2
	fillRect(img, image.Rect(margin, y, r.width-margin, y+1), color.Black)
	y += margin

	y = drawCentred(img, large, fmt.Sprintf("%d", info.Now.Day()), r.width, y)
	y = drawCentred(img, medium, info.Now.Weekday().String(), r.width, y)

	if info.Weather != nil {
		y += margin / 2
		for _, line := range weatherLines(info.Weather) {
			for _, wrapped := range wrapText(line, r.width-2*margin, small) {
				if y+small.Metrics().Height.Ceil() > r.height {
					return img, nil
				}
				y = drawCentred(img, small, wrapped, r.width, y)
			}
		}
	}

	return img, nil
}

func weatherLines(w *weather.Weather) []string {
	lines := []string{}
	if w.City != "" {
		lines = append(lines, w.City)
	}
	if w.TemNight != "" || w.TemDay != "" {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s %s~%sC", w.Wea, w.TemNight, w.TemDay)))
	} else if w.Wea != "" {
		lines = append(lines, w.Wea)
	}
	if w.Air != "" {
		lines = append(lines, "AQI "+w.Air)
	}
	return lines
}

// drawString draws s with the top of its line box at y and returns the y of
// the next line.
func drawString(dst draw.Image, face font.Face, s string, x int, y int) int {
	m := face.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + m.Ascent},
	}
	d.DrawString(s)
	return y + m.Height.Ceil()
}

func drawCentred(dst draw.Image, face font.Face, s string, width int, y int) int {
	textWidth := font.MeasureString(face, s).Ceil()
	return drawString(dst, face, s, (width-textWidth)/2, y)
}

func wrapText(text string, maxWidth int, face font.Face) []string {
	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return lines
	}

	var line string
	for _, word := range words {
		testLine := line
		if len(line) > 0 {
			testLine += " "
		}
		testLine += word

		width := font.MeasureString(face, testLine).Ceil()
		if width > maxWidth && len(line) > 0 && maxWidth > 0 {
			lines = append(lines, line)
			line = word
		} else {
			line = testLine
		}
	}

	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// drawBattery draws an outlined cell with a nub on the right, filled in
// proportion to level (0-100).
func drawBattery(dst draw.Image, r image.Rectangle, level uint8) {
	nub := max(r.Dx()/10, 1)
	body := image.Rect(r.Min.X, r.Min.Y, r.Max.X-nub, r.Max.Y)

	fillRect(dst, image.Rect(body.Min.X, body.Min.Y, body.Max.X, body.Min.Y+1), color.Black)
	fillRect(dst, image.Rect(body.Min.X, body.Max.Y-1, body.Max.X, body.Max.Y), color.Black)
	fillRect(dst, image.Rect(body.Min.X, body.Min.Y, body.Min.X+1, body.Max.Y), color.Black)
	fillRect(dst, image.Rect(body.Max.X-1, body.Min.Y, body.Max.X, body.Max.Y), color.Black)
	fillRect(dst, image.Rect(body.Max.X, r.Min.Y+r.Dy()/3, r.Max.X, r.Max.Y-r.Dy()/3), color.Black)

	inner := body.Inset(2)
	if inner.Empty() {
		return
	}
	filled := inner.Dx() * int(min(level, 100)) / 100
	fillRect(dst, image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+filled, inner.Max.Y), color.Black)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
