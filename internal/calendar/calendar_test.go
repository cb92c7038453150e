package calendar

import (
	"bytes"
	"testing"
	"time"

	"tomgalvin.uk/calview/internal/bitmap"
	"tomgalvin.uk/calview/internal/weather"
)

var someDay = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)

func newTestRenderer(t *testing.T, width int, height int) *Renderer {
	t.Helper()
	r, err := NewRenderer(width, height)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func countBlack(g *bitmap.Grid) int {
	n := 0
	for y := range g.Height() {
		for _, white := range g.Row(y) {
			if !white {
				n++
			}
		}
	}
	return n
}

func TestFrameSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"200x200", 200, 200},
		{"400x300", 400, 300},
		{"small", 64, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t, tt.width, tt.height)
			frame, err := r.Frame(Info{Now: someDay, Battery: 50})
			if err != nil {
				t.Fatalf("Frame() error = %v", err)
			}
			if len(frame) != tt.width/8*tt.height {
				t.Errorf("len(frame) = %d, want %d", len(frame), tt.width/8*tt.height)
			}
			if r.RowWidthBytes() != tt.width/8 {
				t.Errorf("RowWidthBytes() = %d, want %d", r.RowWidthBytes(), tt.width/8)
			}
		})
	}
}

func TestFrameIsMostlyWhitePaper(t *testing.T) {
	r := newTestRenderer(t, 200, 200)
	frame, err := r.Frame(Info{Now: someDay, Battery: 50})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}

	g, err := bitmap.Unpack(frame, r.RowWidthBytes())
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	black := countBlack(g)
	if black == 0 {
		t.Errorf("frame has no black pixels, nothing was drawn")
	}
	if black > 200*200/2 {
		t.Errorf("frame has %d black pixels, expected a white page", black)
	}
	if !g.At(0, 0) || !g.At(199, 199) {
		t.Errorf("corners should be white")
	}
}

func TestFrameReflectsBattery(t *testing.T) {
	r := newTestRenderer(t, 200, 200)
	empty, err := r.Frame(Info{Now: someDay, Battery: 0})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	full, err := r.Frame(Info{Now: someDay, Battery: 100})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if bytes.Equal(empty, full) {
		t.Errorf("battery level did not change the frame")
	}

	ge, _ := bitmap.Unpack(empty, 25)
	gf, _ := bitmap.Unpack(full, 25)
	if countBlack(gf) <= countBlack(ge) {
		t.Errorf("a full battery should draw more black than an empty one")
	}
}

func TestFrameIncludesWeather(t *testing.T) {
	r := newTestRenderer(t, 200, 200)
	without, err := r.Frame(Info{Now: someDay, Battery: 50})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	with, err := r.Frame(Info{Now: someDay, Battery: 50, Weather: &weather.Weather{
		City: "Shanghai", Wea: "Cloudy", TemDay: "8", TemNight: "4", Air: "29",
	}})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if bytes.Equal(without, with) {
		t.Errorf("weather did not change the frame")
	}
}

func TestFrameIsDeterministic(t *testing.T) {
	r := newTestRenderer(t, 200, 200)
	a, _ := r.Frame(Info{Now: someDay, Battery: 42})
	b, _ := r.Frame(Info{Now: someDay, Battery: 42})
	if !bytes.Equal(a, b) {
		t.Errorf("the same info produced different frames")
	}
}

func TestNewRendererRejectsBadSizes(t *testing.T) {
	for _, size := range [][2]int{{0, 200}, {201, 200}, {200, 0}, {-8, 10}} {
		if _, err := NewRenderer(size[0], size[1]); err == nil {
			t.Errorf("NewRenderer(%d, %d) succeeded", size[0], size[1])
		}
	}
}

func TestWeatherLines(t *testing.T) {
	lines := weatherLines(&weather.Weather{City: "Shanghai", Wea: "Cloudy", TemDay: "8", TemNight: "4", Air: "29"})
	want := []string{"Shanghai", "Cloudy 4~8C", "AQI 29"}
	if len(lines) != len(want) {
		t.Fatalf("weatherLines() = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWrapText(t *testing.T) {
	r := newTestRenderer(t, 200, 200)
	face, err := newFace(r.fonts.mono, 12)
	if err != nil {
		t.Fatalf("newFace() error = %v", err)
	}
	defer face.Close()

	lines := wrapText("one two three four five six seven eight nine ten", 60, face)
	if len(lines) < 2 {
		t.Errorf("wrapText() = %q, expected several lines", lines)
	}
	if got := wrapText("   ", 60, face); len(got) != 0 {
		t.Errorf("wrapText(blank) = %q, want none", got)
	}
}
