// Package sky discretizes the sky into pixels with direction cosines and
// solid angles and holds the per-pixel amplitudes written back by the
// imaging engines.
package sky

import "math"

// Sphere is a pixelated sky.
type Sphere interface {
	// NPix returns the number of pixels.
	NPix() int
	L() []float64
	M() []float64
	N() []float64
	// NMinus1 returns n - 1 for every pixel.
	NMinus1() []float64
	// PixelAreas returns the solid angle of every pixel in steradians.
	PixelAreas() []float64
	// Pixels returns the current amplitudes.
	Pixels() []float64
	// SetVisiblePixels stores values as the amplitudes. With scale the
	// values are shifted by their minimum and divided by their median
	// absolute deviation.
	SetVisiblePixels(values []float64, scale bool)
}

// ElAzToLMN converts elevation and azimuth in radians to direction cosines.
func ElAzToLMN(el, az float64) (l, m, n float64) {
	sinAz, cosAz := math.Sincos(az)
	sinEl, cosEl := math.Sincos(el)
	return sinAz * cosEl, cosAz * cosEl, sinEl
}

// HealpixToElAz converts HEALPix colatitude and longitude to elevation and
// azimuth. The HEALPix north pole is the zenith.
func HealpixToElAz(theta, phi float64) (el, az float64) {
	return math.Pi/2 - theta, -phi
}

// ElAzToHealpix is the inverse of HealpixToElAz.
func ElAzToHealpix(el, az float64) (theta, phi float64) {
	return math.Pi/2 - el, -az
}
