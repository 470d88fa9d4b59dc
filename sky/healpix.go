package sky

import (
	"math"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
)

// Healpix is an equal area HEALPix tessellation in the ring scheme, either
// the whole sphere or the pixels inside a disc.
type Healpix struct {
	nside   int
	indices []int
	theta   []float64
	phi     []float64
	el      []float64
	az      []float64
	l       []float64
	m       []float64
	n       []float64
	nMinus1 []float64
	areas   []float64
	pixels  []float64
	stats   Stats
}

// NPixFor returns the number of pixels of the full sphere, 12·nside².
func NPixFor(nside int) int {
	return 12 * nside * nside
}

// ResolutionFor returns the approximate pixel size sqrt(4π/npix).
func ResolutionFor(nside int) Resolution {
	return Resolution(math.Sqrt(4 * math.Pi / float64(NPixFor(nside))))
}

// NSideFor returns the smallest power of two nside whose pixels are finer
// than res.
func NSideFor(res Resolution) int {
	nside := 1
	for {
		nside *= 2
		if ResolutionFor(nside) < res || nside >= 1<<20 {
			return nside
		}
	}
}

// PixToAng returns the colatitude and longitude of the centre of ring
// scheme pixel p.
func PixToAng(nside, p int) (theta, phi float64) {
	npix := NPixFor(nside)
	ncap := 2 * nside * (nside - 1)
	fn := float64(nside)

	var z float64
	switch {
	case p < ncap:
		// north polar cap
		ring := (1 + isqrt(1+2*p)) / 2
		iphi := p + 1 - 2*ring*(ring-1)
		z = 1 - float64(ring*ring)/(3*fn*fn)
		phi = (float64(iphi) - 0.5) * math.Pi / (2 * float64(ring))
	case p < npix-ncap:
		// equatorial belt
		ip := p - ncap
		ring := ip/(4*nside) + nside
		iphi := ip%(4*nside) + 1
		shift := 0.5
		if (ring+nside)&1 == 1 {
			shift = 1
		}
		z = float64(2*nside-ring) * 2 / (3 * fn)
		phi = (float64(iphi) - shift) * math.Pi / (2 * fn)
	default:
		// south polar cap
		ip := npix - p
		ring := (1 + isqrt(2*ip-1)) / 2
		iphi := 4*ring + 1 - (ip - 2*ring*(ring-1))
		z = -1 + float64(ring*ring)/(3*fn*fn)
		phi = (float64(iphi) - 0.5) * math.Pi / (2 * float64(ring))
	}
	return math.Acos(z), phi
}

func isqrt(v int) int {
	r := int(math.Sqrt(float64(v)))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}

// NewHealpix returns the full sphere.
func NewHealpix(nside int) (*Healpix, error) {
	if nside < 1 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "nside %d", nside)
	}
	indices := make([]int, NPixFor(nside))
	for index := range indices {
		indices[index] = index
	}
	return newHealpix(nside, indices), nil
}

// NewSubSphere returns the pixels whose centres lie within radius of the
// direction (theta, phi).
func NewSubSphere(nside int, theta, phi, radius float64) (*Healpix, error) {
	if nside < 1 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "nside %d", nside)
	}
	if radius <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "disc radius %g", radius)
	}
	centre := angToVec(theta, phi)
	cosRadius := math.Cos(radius)
	var indices []int
	for p := 0; p < NPixFor(nside); p++ {
		vec := angToVec(PixToAng(nside, p))
		if vec[0]*centre[0]+vec[1]*centre[1]+vec[2]*centre[2] >= cosRadius {
			indices = append(indices, p)
		}
	}
	if len(indices) == 0 {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidParameter, "disc of radius %v contains no pixels at nside %d", Resolution(radius), nside),
			"increase nside or the field of view")
	}
	return newHealpix(nside, indices), nil
}

// NewSubSphereResolution picks the nside from the requested resolution.
func NewSubSphereResolution(res Resolution, theta, phi, radius float64) (*Healpix, error) {
	return NewSubSphere(NSideFor(res), theta, phi, radius)
}

func angToVec(theta, phi float64) [3]float64 {
	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)
	return [3]float64{sinTheta * cosPhi, sinTheta * sinPhi, cosTheta}
}

func newHealpix(nside int, indices []int) *Healpix {
	npix := len(indices)
	h := &Healpix{
		nside:   nside,
		indices: indices,
		theta:   make([]float64, npix),
		phi:     make([]float64, npix),
		el:      make([]float64, npix),
		az:      make([]float64, npix),
		l:       make([]float64, npix),
		m:       make([]float64, npix),
		n:       make([]float64, npix),
		nMinus1: make([]float64, npix),
		areas:   make([]float64, npix),
		pixels:  make([]float64, npix),
	}
	area := 4 * math.Pi / float64(NPixFor(nside))
	for index, p := range indices {
		h.theta[index], h.phi[index] = PixToAng(nside, p)
		h.el[index], h.az[index] = HealpixToElAz(h.theta[index], h.phi[index])
		h.l[index], h.m[index], h.n[index] = ElAzToLMN(h.el[index], h.az[index])
		h.nMinus1[index] = h.n[index] - 1
		h.areas[index] = area
	}
	logger.ComponentLogger("sky").Infow("new sphere",
		"nside", nside,
		logger.FieldNPix, npix,
		"resolution", ResolutionFor(nside).String(),
	)
	return h
}

func (h *Healpix) NSide() int            { return h.nside }
func (h *Healpix) NPix() int             { return len(h.indices) }
func (h *Healpix) L() []float64          { return h.l }
func (h *Healpix) M() []float64          { return h.m }
func (h *Healpix) N() []float64          { return h.n }
func (h *Healpix) NMinus1() []float64    { return h.nMinus1 }
func (h *Healpix) PixelAreas() []float64 { return h.areas }
func (h *Healpix) Pixels() []float64     { return h.pixels }

// Indices returns the HEALPix ring index of every pixel.
func (h *Healpix) Indices() []int { return h.indices }

// El returns the elevation of every pixel in radians.
func (h *Healpix) El() []float64 { return h.el }

// Az returns the azimuth of every pixel in radians.
func (h *Healpix) Az() []float64 { return h.az }

// Stats returns the statistics of the last scaled SetVisiblePixels call.
func (h *Healpix) Stats() Stats { return h.stats }

// Nearest returns the pixel whose centre is closest to (el, az).
func (h *Healpix) Nearest(el, az float64) int {
	l, m, n := ElAzToLMN(el, az)
	best, bestDot := 0, math.Inf(-1)
	for index := range h.l {
		dot := l*h.l[index] + m*h.m[index] + n*h.n[index]
		if dot > bestDot {
			best, bestDot = index, dot
		}
	}
	return best
}

// SetVisiblePixels stores values, scaled by (v - min) / mad when scale is
// set.
func (h *Healpix) SetVisiblePixels(values []float64, scale bool) {
	if len(values) != len(h.pixels) {
		panic(errors.Wrapf(errors.ErrShapeMismatch, "%d values for %d pixels", len(values), len(h.pixels)))
	}
	copy(h.pixels, values)
	if !scale {
		return
	}
	h.stats = ImageStats(values)
	h.stats.Log(logger.ComponentLogger("sky"))
	for index, value := range values {
		h.pixels[index] = (value - h.stats.Min) / h.stats.MAD
	}
}
