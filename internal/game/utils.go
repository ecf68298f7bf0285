package game

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// withAlpha converts c to a premultiplied RGBA with opacity a (0-1).
func withAlpha(c colorful.Color, a float64) color.RGBA {
	a = clamp01(a)
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{
		R: uint8(float64(r) * a),
		G: uint8(float64(g) * a),
		B: uint8(float64(b) * a),
		A: uint8(a * 255),
	}
}

// tint lightens c towards white so the card artwork stays readable under it.
func tint(c colorful.Color) (r, g, b float32) {
	w := colorful.Color{R: 1, G: 1, B: 1}
	m := c.BlendRgb(w, 0.45).Clamped()
	return float32(m.R), float32(m.G), float32(m.B)
}

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// lightSweepAmount is the brightness swing of the slow light sweep.
const lightSweepAmount = 0.12

// lightSweep is the face brightness after elapsed: a cosine with a period
// of about 12.5 seconds.
func lightSweep(elapsed time.Duration) float64 {
	return 1 + lightSweepAmount*math.Cos(elapsed.Seconds()*0.5)
}
