package game

import (
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/config"
)

// Parallax eases the card tilt towards a target set by the pointer, a touch
// or device orientation. Tilt[0] turns the card about its horizontal axis
// and Tilt[1] about its vertical axis, both in degrees.
type Parallax struct {
	maxTilt   float64
	gyroScale float64
	lerp      float64

	target f64.Vec2
	tilt   f64.Vec2
}

func NewParallax(c config.Parallax) *Parallax {
	return &Parallax{maxTilt: c.MaxTilt, gyroScale: c.GyroScale, lerp: c.Lerp}
}

// PointAt aims at a pointer at (x, y) inside a w x h surface. The centre
// means no tilt; an edge means MaxTilt/2.
func (p *Parallax) PointAt(x, y, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	p.target = f64.Vec2{
		(y/h - 0.5) * p.maxTilt,
		(x/w - 0.5) * p.maxTilt,
	}
}

// SetOrientation aims from device orientation angles in degrees: beta is
// the front-to-back tilt and gamma the left-to-right tilt.
func (p *Parallax) SetOrientation(beta, gamma float64) {
	p.target = f64.Vec2{beta * p.gyroScale, -gamma * p.gyroScale}
}

// Step moves the tilt one frame towards the target and returns it.
func (p *Parallax) Step() f64.Vec2 {
	for i := range p.tilt {
		p.tilt[i] += (p.target[i] - p.tilt[i]) * p.lerp
	}
	return p.tilt
}

func (p *Parallax) Tilt() f64.Vec2 { return p.tilt }

func (p *Parallax) Target() f64.Vec2 { return p.target }
