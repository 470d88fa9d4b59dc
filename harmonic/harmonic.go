// Package harmonic evaluates the complex exponential linking a baseline to a
// sky direction. Every operator in this module is built from these loops.
package harmonic

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 2.99793e8

// Omega converts a frequency in Hz to the angular wavenumber 2πf/c.
func Omega(frequency float64) float64 {
	return 2 * math.Pi * frequency / SpeedOfLight
}

// Phase returns z = -ω(u l + v m + w (n-1)) for a single baseline and pixel.
func Phase(u, v, w, omega, l, m, nMinus1 float64) float64 {
	return -omega * (u*l + v*m + w*nMinus1)
}

// Row fills dstRe and dstIm with cos(z)·area and sin(z)·area for one
// baseline against every pixel.
func Row(dstRe, dstIm []float64, u, v, w, omega float64, l, m, nMinus1, areas []float64) {
	n := len(l)
	if len(dstRe) != n || len(dstIm) != n || len(m) != n || len(nMinus1) != n || len(areas) != n {
		panic(mat.ErrShape)
	}
	for index := 0; index < n; index++ {
		s, c := math.Sincos(Phase(u, v, w, omega, l[index], m[index], nMinus1[index]))
		dstRe[index] = c * areas[index]
		dstIm[index] = s * areas[index]
	}
}

// Column fills dstRe and dstIm with cos(z)·area and sin(z)·area for one
// pixel against every baseline.
func Column(dstRe, dstIm []float64, us, vs, ws []float64, omega, l, m, nMinus1, area float64) {
	n := len(us)
	if len(dstRe) != n || len(dstIm) != n || len(vs) != n || len(ws) != n {
		panic(mat.ErrShape)
	}
	for index := 0; index < n; index++ {
		s, c := math.Sincos(Phase(us[index], vs[index], ws[index], omega, l, m, nMinus1))
		dstRe[index] = c * area
		dstIm[index] = s * area
	}
}
