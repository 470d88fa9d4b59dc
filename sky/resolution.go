package sky

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hammal/gridless/errors"
)

// Resolution is an angle in radians.
type Resolution float64

var units = []struct {
	suffix string
	perDeg float64
}{
	{"uas", 3600 * 1e6},
	{"mas", 3600 * 1e3},
	{"arcsec", 3600},
	{"arcmin", 60},
	{"deg", 1},
}

// FromDegrees returns the resolution of deg degrees.
func FromDegrees(deg float64) Resolution {
	return Resolution(deg * math.Pi / 180)
}

// ParseResolution parses strings such as "2deg", "30arcmin", "15arcsec",
// "5mas" or "20uas". A bare number is in degrees.
func ParseResolution(s string) (Resolution, error) {
	s = strings.TrimSpace(s)
	for _, unit := range units {
		if strings.HasSuffix(s, unit.suffix) {
			value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, unit.suffix)), 64)
			if err != nil {
				return 0, errors.Wrapf(errors.ErrInvalidParameter, "resolution %q: %v", s, err)
			}
			return FromDegrees(value / unit.perDeg), nil
		}
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidParameter, "resolution %q: %v", s, err),
			"use a number followed by deg, arcmin, arcsec, mas or uas")
	}
	return FromDegrees(value), nil
}

func (r Resolution) Radians() float64 { return float64(r) }
func (r Resolution) Degrees() float64 { return float64(r) * 180 / math.Pi }
func (r Resolution) ArcMin() float64  { return r.Degrees() * 60 }
func (r Resolution) ArcSec() float64  { return r.Degrees() * 3600 }

// String formats the resolution in the largest unit in which it exceeds
// one.
func (r Resolution) String() string {
	if d := r.Degrees(); math.Abs(d) > 1 {
		return fmt.Sprintf("%4.2fdeg", d)
	}
	if a := r.ArcMin(); math.Abs(a) > 1 {
		return fmt.Sprintf("%4.2farcmin", a)
	}
	arcsec := r.ArcSec()
	if math.Abs(arcsec) > 1 {
		return fmt.Sprintf("%4.2farcsec", arcsec)
	}
	mas := arcsec * 1000
	if math.Abs(mas) >= 1 {
		return fmt.Sprintf("%4.2fmas", mas)
	}
	return fmt.Sprintf("%4.2fuas", mas*1000)
}
